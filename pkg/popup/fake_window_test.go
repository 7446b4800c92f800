// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package popup

import (
	"context"
	"net/url"
	"sync"
)

// locationStep is one scripted answer of fakeWindow.Location.
type locationStep struct {
	href string
	err  error
}

func unreadable() locationStep { return locationStep{err: ErrLocationUnreadable} }

func at(href string) locationStep { return locationStep{href: href} }

// fakeWindow is a scripted Window. Location answers are consumed in order
// and the last one repeats. All counters are safe to read while the
// session's polling goroutine runs.
type fakeWindow struct {
	mu            sync.Mutex
	steps         []locationStep
	closed        bool
	closedChecks  int
	locationCalls int
	closeCalls    int
}

func newFakeWindow(steps ...locationStep) *fakeWindow {
	if len(steps) == 0 {
		steps = []locationStep{unreadable()}
	}
	return &fakeWindow{steps: steps}
}

func (w *fakeWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closedChecks++
	return w.closed
}

func (w *fakeWindow) Location() (*url.URL, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	step := w.steps[min(w.locationCalls, len(w.steps)-1)]
	w.locationCalls++
	if step.err != nil {
		return nil, step.err
	}
	return url.Parse(step.href)
}

func (w *fakeWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeCalls++
	w.closed = true
	return nil
}

// userCloses simulates the user closing the window.
func (w *fakeWindow) userCloses() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

func (w *fakeWindow) counts() (closedChecks, locationCalls, closeCalls int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closedChecks, w.locationCalls, w.closeCalls
}

func (w *fakeWindow) locations() int {
	_, n, _ := w.counts()
	return n
}

func (w *fakeWindow) closes() int {
	_, _, n := w.counts()
	return n
}

// fakeOpener hands out a fixed window and records how it was asked to open it.
type fakeOpener struct {
	mu       sync.Mutex
	window   Window
	err      error
	target   string
	name     string
	features string
}

func (o *fakeOpener) Open(_ context.Context, target, name, features string) (Window, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.target, o.name, o.features = target, name, features
	return o.window, o.err
}
