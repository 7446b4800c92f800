// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package popup

import (
	"context"
	"errors"
	"net/url"
)

//go:generate mockgen -destination=mocks/mock_window.go -package=mocks -source=window.go Opener,Window

// ErrLocationUnreadable is returned by Window.Location while the window is
// on a foreign origin. Sessions treat it as "not arrived yet" and never
// surface it.
var ErrLocationUnreadable = errors.New("popup location is not readable from this origin")

// Opener creates windows.
type Opener interface {
	// Open shows target in a window called name. Opening a name that is
	// already in use replaces that window. features is a comma separated
	// key=value list such as "height=800,width=1200".
	Open(ctx context.Context, target, name, features string) (Window, error)
}

// Window is the capability a Session holds over an open window.
type Window interface {
	// Closed reports whether the window has gone away.
	Closed() bool

	// Location returns the current location, or ErrLocationUnreadable when
	// the window is on another origin. Any other error is unexpected.
	Location() (*url.URL, error)

	// Close closes the window. Closing an already closed window is not an error.
	Close() error
}
