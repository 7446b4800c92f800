// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package browserwindow opens popup logins in the system browser. The
// redirect is observed by a loopback HTTP listener bound to the callback
// address, so the "window" a session polls is that listener: its location
// stays unreadable until the provider redirects back to it.
package browserwindow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/browser"

	poperrors "github.com/stacklok/popup-login/pkg/errors"
	"github.com/stacklok/popup-login/pkg/logger"
	"github.com/stacklok/popup-login/pkg/networking"
	"github.com/stacklok/popup-login/pkg/popup"
	"github.com/stacklok/popup-login/pkg/query"
)

const (
	bindAttempts      = 5
	bindInitialDelay  = 100 * time.Millisecond
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Opener implements popup.Opener with the system browser.
type Opener struct {
	callbackURL string
	launch      func(string) error
	out         io.Writer
	log         *slog.Logger

	mu      sync.Mutex
	windows map[string]*Window
}

var _ popup.Opener = (*Opener)(nil)

// OpenerOption configures an Opener.
type OpenerOption func(*Opener)

// WithCallbackURL sets the loopback URL to listen on. Without it the
// redirect_uri parameter of the opened URL is used.
func WithCallbackURL(u string) OpenerOption {
	return func(o *Opener) {
		o.callbackURL = u
	}
}

// WithBrowser replaces the function that launches the browser.
func WithBrowser(launch func(string) error) OpenerOption {
	return func(o *Opener) {
		if launch != nil {
			o.launch = launch
		}
	}
}

// WithNoBrowser prints the URL to out instead of launching a browser.
func WithNoBrowser(out io.Writer) OpenerOption {
	return func(o *Opener) {
		o.out = out
	}
}

// WithLogger sets the logger. It defaults to logger.Get().
func WithLogger(l *slog.Logger) OpenerOption {
	return func(o *Opener) {
		if l != nil {
			o.log = l
		}
	}
}

// NewOpener creates an Opener.
func NewOpener(opts ...OpenerOption) *Opener {
	o := &Opener{
		launch:  browser.OpenURL,
		log:     logger.Get(),
		windows: make(map[string]*Window),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open starts the callback listener and shows target in the browser.
// A window already open under name is closed first.
func (o *Opener) Open(ctx context.Context, target, name, features string) (popup.Window, error) {
	if prev := o.take(name); prev != nil {
		o.log.Debug("replacing popup window", "name", name)
		if err := prev.Close(); err != nil {
			o.log.Warn("failed to close replaced popup window", "name", name, "error", err)
		}
	}

	callback, err := o.resolveCallback(target)
	if err != nil {
		return nil, err
	}
	addr, path, err := networking.CallbackAddress(callback)
	if err != nil {
		return nil, poperrors.NewInvalidArgumentError("invalid callback URL", err)
	}

	if !networking.IsAvailable(addr) {
		o.log.Debug("callback port is busy, waiting for it", "addr", addr)
	}
	ln, err := o.listen(ctx, addr)
	if err != nil {
		return nil, poperrors.NewPopupBlockedError(fmt.Sprintf("failed to listen on %s", addr), err)
	}

	w := newWindow(name, ln, path, o.log)
	w.onClose = func() { o.forget(name, w) }
	w.serve()
	o.log.Debug("callback listener started", "name", name, "addr", ln.Addr().String(), "path", path, "features", features)

	if err := o.show(target); err != nil {
		_ = w.Close()
		return nil, poperrors.NewPopupBlockedError("failed to open browser", err)
	}

	o.mu.Lock()
	o.windows[name] = w
	o.mu.Unlock()
	return w, nil
}

// Close closes every window the opener still holds.
func (o *Opener) Close() error {
	o.mu.Lock()
	windows := make([]*Window, 0, len(o.windows))
	for _, w := range o.windows {
		windows = append(windows, w)
	}
	o.windows = make(map[string]*Window)
	o.mu.Unlock()

	var errs []error
	for _, w := range windows {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}

func (o *Opener) take(name string) *Window {
	o.mu.Lock()
	defer o.mu.Unlock()
	w := o.windows[name]
	delete(o.windows, name)
	return w
}

func (o *Opener) forget(name string, w *Window) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.windows[name] == w {
		delete(o.windows, name)
	}
}

func (o *Opener) resolveCallback(target string) (string, error) {
	if o.callbackURL != "" {
		return o.callbackURL, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", poperrors.NewInvalidArgumentError("invalid popup URL", err)
	}
	redirect, ok := query.Decode(u.RawQuery).Lookup("redirect_uri")
	if !ok || redirect == "" {
		return "", poperrors.NewInvalidArgumentError("popup URL has no redirect_uri and no callback URL is configured", nil)
	}
	return redirect, nil
}

func (o *Opener) listen(ctx context.Context, addr string) (net.Listener, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = bindInitialDelay

	var lc net.ListenConfig
	return backoff.Retry(ctx, func() (net.Listener, error) {
		return lc.Listen(ctx, "tcp", addr)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(bindAttempts),
		backoff.WithNotify(func(err error, d time.Duration) {
			o.log.Debug("callback listener bind failed, retrying", "addr", addr, "error", err, "delay", d)
		}),
	)
}

func (o *Opener) show(target string) error {
	if o.out != nil {
		_, err := fmt.Fprintf(o.out, "Open this URL in your browser to log in:\n\n  %s\n\n", target)
		return err
	}
	o.log.Info("opening browser", "url", target)
	return o.launch(target)
}
