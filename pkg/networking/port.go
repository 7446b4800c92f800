// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package networking

import (
	"net"
)

// IsAvailable reports whether a TCP listener can bind addr right now.
// The answer is advisory: another process may take the port before the
// caller binds it.
func IsAvailable(addr string) bool {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}
