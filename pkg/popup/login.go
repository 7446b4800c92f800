// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package popup

import (
	"context"

	"github.com/stacklok/popup-login/pkg/query"
)

// Login opens a session, waits for it to settle and, on success, waits for
// the hold-open delay to pass before returning the redirect parameters.
// If ctx ends first the session is closed and ctx's error is returned.
func Login(
	ctx context.Context,
	opener Opener,
	req AuthRequest,
	windowOpts WindowOptions,
	authorizeURL string,
	sessionID string,
	opts ...Option,
) (*query.Params, error) {
	s, err := Open(ctx, opener, req, windowOpts, authorizeURL, sessionID, opts...)
	if err != nil {
		return nil, err
	}

	result, err := s.Wait(ctx)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	select {
	case <-s.Released():
	case <-ctx.Done():
		_ = s.Close()
	}
	return result, nil
}
