// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package popup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	poperrors "github.com/stacklok/popup-login/pkg/errors"
	"github.com/stacklok/popup-login/pkg/query"
)

// State is the settlement state of a Session.
type State int

const (
	// StatePending means the window is open and being observed.
	StatePending State = iota
	// StateResolved means the redirect was observed.
	StateResolved
	// StateRejected means the session ended without a redirect.
	StateRejected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is one popup login attempt. It is created by Open, lives for a
// single polling loop and cannot be restarted; retry with a new session.
type Session struct {
	id              string
	target          string
	clock           clock.WithTickerAndDelayedExecution
	pollInterval    time.Duration
	holdOpen        time.Duration
	timeout         time.Duration
	maxReadFailures int
	log             *slog.Logger
	metrics         *sessionMetrics
	openedAt        time.Time
	completion      *Completion
	released        chan struct{}

	mu           sync.Mutex
	state        State
	window       Window
	ticker       clock.Ticker
	deadline     clock.Timer
	holdTimer    clock.Timer
	stop         chan struct{}
	readFailures int
	ticks        int
}

// Open builds the authorize URL for req, opens it in a window named
// sessionID and starts polling. An empty sessionID gets a generated one.
//
// Invalid input is reported as an error. A window that cannot be opened is
// not: the returned session is already rejected with a popup_blocked error.
func Open(
	ctx context.Context,
	opener Opener,
	req AuthRequest,
	windowOpts WindowOptions,
	authorizeURL string,
	sessionID string,
	opts ...Option,
) (*Session, error) {
	if opener == nil {
		return nil, poperrors.NewInvalidArgumentError("window opener is required", nil)
	}
	target, err := BuildURL(authorizeURL, req)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = "popup-" + uuid.NewString()
	}

	o := newOptions(opts)
	s := &Session{
		id:              sessionID,
		target:          target,
		clock:           o.clock,
		pollInterval:    o.pollInterval,
		holdOpen:        o.holdOpen,
		timeout:         o.timeout,
		maxReadFailures: o.maxReadFailures,
		log:             o.logger.With("session", sessionID),
		metrics:         newSessionMetrics(o.meterProvider, o.logger),
		openedAt:        o.clock.Now(),
		completion:      newCompletion(),
		released:        make(chan struct{}),
	}
	s.metrics.recordOpened()

	features := windowOpts.String()
	s.log.Debug("opening popup", "url", target, "features", features)

	w, err := opener.Open(ctx, target, sessionID, features)
	if err == nil && w == nil {
		err = errors.New("opener returned no window")
	}
	if err != nil {
		s.mu.Lock()
		s.rejectLocked(poperrors.NewPopupBlockedError("failed to open popup", err))
		s.mu.Unlock()
		return s, nil
	}

	s.mu.Lock()
	s.window = w
	s.ticker = s.clock.NewTicker(s.pollInterval)
	var deadline <-chan time.Time
	if s.timeout > 0 {
		s.deadline = s.clock.NewTimer(s.timeout)
		deadline = s.deadline.C()
	}
	s.stop = make(chan struct{})
	go s.poll(ctx, s.ticker.C(), deadline, s.stop)
	s.mu.Unlock()

	return s, nil
}

// ID returns the window name the session opened.
func (s *Session) ID() string {
	return s.id
}

// URL returns the full authorize URL the window was opened at.
func (s *Session) URL() string {
	return s.target
}

// State returns the current settlement state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ticks returns how many times the window has been inspected.
func (s *Session) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Completion returns the session's one-shot outcome.
func (s *Session) Completion() *Completion {
	return s.completion
}

// Wait blocks until the session settles or ctx is done. Giving up on ctx
// does not cancel the session.
func (s *Session) Wait(ctx context.Context) (*query.Params, error) {
	return s.completion.Wait(ctx)
}

// Released is closed once the session no longer holds a window: after
// rejection, after Close, or when the hold-open delay following a
// resolution has passed. Cancel is the exception: it settles the session
// but keeps the window, so Released stays open until Close.
func (s *Session) Released() <-chan struct{} {
	return s.released
}

// Cancel stops polling but leaves the window open. A pending session
// rejects with a cancelled error so that waiters return.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopPollingLocked()
	if s.state == StatePending {
		s.settleLocked(nil, poperrors.NewCancelledError("popup login cancelled", nil))
	}
}

// Close stops polling, drops any pending hold-open delay and closes the
// window. A pending session rejects with a cancelled error. Close is
// idempotent and always returns nil; window close failures are logged.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopPollingLocked()
	if s.holdTimer != nil {
		s.holdTimer.Stop()
		s.holdTimer = nil
	}
	s.releaseWindowLocked()
	if s.state == StatePending {
		s.settleLocked(nil, poperrors.NewCancelledError("popup login cancelled", nil))
	}
	return nil
}

func (s *Session) poll(ctx context.Context, tick, deadline <-chan time.Time, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			s.abort(poperrors.NewCancelledError("popup login cancelled", ctx.Err()))
			return
		case <-deadline:
			s.abort(poperrors.NewTimeoutError(
				fmt.Sprintf("popup did not complete within %s", s.timeout), nil))
			return
		case <-tick:
			if s.tick() {
				return
			}
		}
	}
}

// tick inspects the window once and reports whether polling is over.
func (s *Session) tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePending || s.ticker == nil {
		return true
	}
	s.ticks++
	s.metrics.recordTick()

	if s.window == nil || s.window.Closed() {
		s.rejectLocked(poperrors.NewUserAbandonedError("the popup was closed", nil))
		return true
	}

	loc, err := s.window.Location()
	switch {
	case errors.Is(err, ErrLocationUnreadable):
		s.readFailures = 0
		return false
	case err != nil:
		s.readFailures++
		if s.maxReadFailures > 0 && s.readFailures >= s.maxReadFailures {
			s.rejectLocked(poperrors.NewReadFailedError(
				fmt.Sprintf("reading popup location failed %d times in a row", s.readFailures), err))
			return true
		}
		s.log.Warn("failed to read popup location", "error", err, "failures", s.readFailures)
		return false
	}
	s.readFailures = 0

	if !s.arrived(loc) {
		return false
	}
	s.resolveLocked(query.Decode(loc.RawQuery))
	return true
}

// arrived reports whether loc is the callback page rather than the
// authorize URL or a blank placeholder.
func (s *Session) arrived(loc *url.URL) bool {
	if loc == nil || loc.String() == s.target {
		return false
	}
	return !isPlaceholder(loc)
}

func isPlaceholder(u *url.URL) bool {
	return u.Scheme == "about" || u.Opaque == "blank" || strings.Trim(u.Path, "/") == "blank"
}

// abort rejects a pending session from outside a tick.
func (s *Session) abort(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePending {
		s.rejectLocked(err)
	}
}

func (s *Session) rejectLocked(err error) {
	s.stopPollingLocked()
	s.releaseWindowLocked()
	s.settleLocked(nil, err)
}

func (s *Session) resolveLocked(result *query.Params) {
	s.stopPollingLocked()
	s.settleLocked(result, nil)

	if s.holdOpen <= 0 {
		s.releaseWindowLocked()
		return
	}
	s.holdTimer = s.clock.AfterFunc(s.holdOpen, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.holdTimer = nil
		s.releaseWindowLocked()
	})
}

func (s *Session) settleLocked(result *query.Params, err error) {
	if s.state != StatePending {
		return
	}
	if err != nil {
		s.state = StateRejected
		s.log.Debug("popup rejected", "error", err, "ticks", s.ticks)
	} else {
		s.state = StateResolved
		s.log.Debug("popup resolved", "keys", result.Keys(), "ticks", s.ticks)
	}
	s.metrics.recordSettled(s.state, err, s.clock.Since(s.openedAt))
	s.completion.settle(result, err)
}

func (s *Session) stopPollingLocked() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.deadline != nil {
		s.deadline.Stop()
		s.deadline = nil
	}
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *Session) releaseWindowLocked() {
	if s.window != nil {
		if err := s.window.Close(); err != nil {
			s.log.Warn("failed to close popup", "error", err)
		}
		s.window = nil
	}
	select {
	case <-s.released:
	default:
		close(s.released)
	}
}
