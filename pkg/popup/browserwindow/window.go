// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package browserwindow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/popup-login/pkg/popup"
	"github.com/stacklok/popup-login/pkg/query"
)

// Window is a browser login observed through its callback listener.
type Window struct {
	name    string
	path    string
	ln      net.Listener
	server  *http.Server
	log     *slog.Logger
	onClose func()

	mu       sync.Mutex
	location *url.URL
	closed   bool
	failed   error
}

var _ popup.Window = (*Window)(nil)

func newWindow(name string, ln net.Listener, path string, log *slog.Logger) *Window {
	w := &Window{name: name, path: path, ln: ln, log: log}
	w.server = &http.Server{
		Handler:           w.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return w
}

func (w *Window) routes() http.Handler {
	r := chi.NewRouter()
	r.Get(w.path, w.handleCallback)
	if w.path != "/" {
		r.Get("/", func(rw http.ResponseWriter, _ *http.Request) { writeInfoPage(rw, w.log) })
	}
	return r
}

func (w *Window) serve() {
	go func() {
		err := w.server.Serve(w.ln)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		w.log.Warn("callback listener failed", "name", w.name, "error", err)
		w.mu.Lock()
		w.failed = err
		w.mu.Unlock()
	}()
}

// CallbackURL returns the URL the listener serves the callback on.
func (w *Window) CallbackURL() string {
	return fmt.Sprintf("http://%s%s", w.ln.Addr().String(), w.path)
}

// Closed reports whether the window was closed or its listener failed.
func (w *Window) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed || w.failed != nil
}

// Location returns the callback URL the browser was redirected to, or
// popup.ErrLocationUnreadable while the browser is still on the provider.
func (w *Window) Location() (*url.URL, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.location == nil {
		return nil, popup.ErrLocationUnreadable
	}
	loc := *w.location
	return &loc, nil
}

// Close shuts the listener down. It is safe to call more than once.
func (w *Window) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	if w.onClose != nil {
		w.onClose()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := w.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down callback listener: %w", err)
	}
	w.log.Debug("callback listener stopped", "name", w.name)
	return nil
}

func (w *Window) handleCallback(rw http.ResponseWriter, r *http.Request) {
	loc := *r.URL
	loc.Scheme = "http"
	loc.Host = r.Host

	w.mu.Lock()
	w.location = &loc
	w.mu.Unlock()
	w.log.Debug("callback received", "name", w.name, "path", r.URL.Path)

	params := query.Decode(r.URL.RawQuery)
	if errCode := params.Get("error"); errCode != "" {
		desc := params.Get("error_description")
		writeErrorPage(rw, w.log, fmt.Errorf("%s: %s", errCode, desc))
		return
	}
	writeSuccessPage(rw, w.log)
}
