// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package popup

import (
	"context"
	"errors"
	"sync"

	"github.com/stacklok/popup-login/pkg/query"
)

// ErrNotSettled is returned by Completion.Result while the session is pending.
var ErrNotSettled = errors.New("popup session has not settled")

// Completion is the one-shot outcome of a Session. It settles exactly once,
// with either the redirect parameters or an error, and every later read
// returns that same outcome. Any number of goroutines may wait on it.
type Completion struct {
	once   sync.Once
	done   chan struct{}
	result *query.Params
	err    error
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// settle records the outcome. Only the first call has an effect.
func (c *Completion) settle(result *query.Params, err error) bool {
	settled := false
	c.once.Do(func() {
		c.result = result
		c.err = err
		close(c.done)
		settled = true
	})
	return settled
}

// Done is closed once the completion has settled.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Settled reports whether the completion has settled.
func (c *Completion) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Result returns the settled outcome without blocking. The parameters are
// a copy; callers may modify them.
func (c *Completion) Result() (*query.Params, error) {
	if !c.Settled() {
		return nil, ErrNotSettled
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.result.Clone(), nil
}

// Wait blocks until the completion settles or ctx is done.
func (c *Completion) Wait(ctx context.Context) (*query.Params, error) {
	select {
	case <-c.done:
		return c.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Then calls fn in a new goroutine once the completion resolves. fn is not
// called on rejection.
func (c *Completion) Then(fn func(*query.Params)) *Completion {
	go func() {
		<-c.done
		if c.err == nil {
			fn(c.result.Clone())
		}
	}()
	return c
}

// Catch calls fn in a new goroutine once the completion rejects. fn is not
// called on resolution.
func (c *Completion) Catch(fn func(error)) *Completion {
	go func() {
		<-c.done
		if c.err != nil {
			fn(c.err)
		}
	}()
	return c
}
