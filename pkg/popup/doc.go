// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package popup drives a popup login: it opens a window at an OAuth
// authorize URL, polls the window until the provider redirects back to a
// readable callback location, and settles a one-shot Completion with the
// callback's query parameters.
//
// A Session exclusively owns its Window. Each session runs one polling
// goroutine driven by a ticker from an injectable clock; ticks and the
// Close/Cancel calls serialise on the session mutex, so no tick observes a
// session after it settled or was cancelled.
//
//	s, err := popup.Open(ctx, opener, req, popup.WindowOptions{Height: 800, Width: 1200},
//		"https://github.com/login/oauth/authorize", "github-oauth")
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//	result, err := s.Wait(ctx)
package popup
