// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package popup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	poperrors "github.com/stacklok/popup-login/pkg/errors"
)

const instrumentationName = "github.com/stacklok/popup-login/pkg/popup"

var (
	attrOutcome   = attribute.Key("popup.outcome")
	attrErrorType = attribute.Key("error.type")
)

type sessionMetrics struct {
	opened   metric.Int64Counter
	settled  metric.Int64Counter
	ticks    metric.Int64Counter
	duration metric.Float64Histogram
}

// newSessionMetrics creates the session instruments. If any instrument
// cannot be created the session records nothing rather than failing.
func newSessionMetrics(mp metric.MeterProvider, log *slog.Logger) *sessionMetrics {
	m, err := createSessionMetrics(mp)
	if err != nil {
		log.Warn("popup metrics disabled", "error", err)
		m, _ = createSessionMetrics(noop.NewMeterProvider())
	}
	return m
}

func createSessionMetrics(mp metric.MeterProvider) (*sessionMetrics, error) {
	meter := mp.Meter(instrumentationName)

	opened, err := meter.Int64Counter(
		"popup_sessions_opened",
		metric.WithDescription("Number of popup sessions opened"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions opened counter: %w", err)
	}
	settled, err := meter.Int64Counter(
		"popup_sessions_settled",
		metric.WithDescription("Number of popup sessions settled, by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions settled counter: %w", err)
	}
	ticks, err := meter.Int64Counter(
		"popup_poll_ticks",
		metric.WithDescription("Number of window inspections performed"))
	if err != nil {
		return nil, fmt.Errorf("failed to create poll ticks counter: %w", err)
	}
	duration, err := meter.Float64Histogram(
		"popup_session_duration",
		metric.WithDescription("Time from opening a popup to its settlement"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create session duration histogram: %w", err)
	}

	return &sessionMetrics{opened: opened, settled: settled, ticks: ticks, duration: duration}, nil
}

func (m *sessionMetrics) recordOpened() {
	m.opened.Add(context.Background(), 1)
}

func (m *sessionMetrics) recordTick() {
	m.ticks.Add(context.Background(), 1)
}

func (m *sessionMetrics) recordSettled(state State, err error, elapsed time.Duration) {
	attrs := []attribute.KeyValue{attrOutcome.String(state.String())}
	if err != nil {
		errType := poperrors.TypeOf(err)
		if errType == "" {
			errType = poperrors.ErrInternal
		}
		attrs = append(attrs, attrErrorType.String(errType))
	}
	set := metric.WithAttributes(attrs...)
	m.settled.Add(context.Background(), 1, set)
	m.duration.Record(context.Background(), elapsed.Seconds(), set)
}
