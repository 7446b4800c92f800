// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package popup

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"k8s.io/utils/clock"

	"github.com/stacklok/popup-login/pkg/logger"
)

const (
	// DefaultPollInterval is how often a session inspects its window.
	DefaultPollInterval = 2 * time.Second

	// DefaultMaxReadFailures is how many unexpected location read errors in
	// a row a session tolerates before it rejects. ErrLocationUnreadable
	// never counts.
	DefaultMaxReadFailures = 5
)

type options struct {
	clock           clock.WithTickerAndDelayedExecution
	pollInterval    time.Duration
	holdOpen        time.Duration
	timeout         time.Duration
	maxReadFailures int
	logger          *slog.Logger
	meterProvider   metric.MeterProvider
}

// Option configures a Session.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		clock:           clock.RealClock{},
		pollInterval:    DefaultPollInterval,
		maxReadFailures: DefaultMaxReadFailures,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	if o.meterProvider == nil {
		o.meterProvider = noop.NewMeterProvider()
	}
	return o
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.WithTickerAndDelayedExecution) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithPollInterval sets the polling period. Non-positive values keep the default.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithHoldOpen keeps the window open for d after the redirect is observed,
// so a success page rendered at the callback stays visible. The delay is a
// scheduled timer; polling has already stopped when it runs.
func WithHoldOpen(d time.Duration) Option {
	return func(o *options) {
		o.holdOpen = max(d, 0)
	}
}

// WithTimeout rejects the session if no redirect arrives within d. Zero
// means wait until the window closes.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = max(d, 0)
	}
}

// WithMaxReadFailures sets how many consecutive unexpected location read
// errors are tolerated. Zero retries forever.
func WithMaxReadFailures(n int) Option {
	return func(o *options) {
		o.maxReadFailures = max(n, 0)
	}
}

// WithLogger sets the session logger. It defaults to logger.Get().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMeterProvider records session metrics through mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}
