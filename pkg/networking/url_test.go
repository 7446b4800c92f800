// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package networking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "valid https url", input: "https://github.com/login/oauth/authorize", expected: true},
		{name: "valid http url with port", input: "http://localhost:8080/callback", expected: true},
		{name: "empty string", input: "", expected: false},
		{name: "missing scheme", input: "github.com/login", expected: false},
		{name: "unsupported scheme", input: "ftp://example.com", expected: false},
		{name: "about blank", input: "about:blank", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsURL(tt.input))
		})
	}
}

func TestIsLocalhost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "localhost without port", input: "localhost", expected: true},
		{name: "localhost with port", input: "localhost:8080", expected: true},
		{name: "127.0.0.1 with port", input: "127.0.0.1:8080", expected: true},
		{name: "IPv6 localhost with port", input: "[::1]:8080", expected: true},
		{name: "empty string", input: "", expected: false},
		{name: "random hostname", input: "example.com:8080", expected: false},
		{name: "private IP", input: "192.168.1.1", expected: false},
		{name: "IPv6 localhost without port", input: "[::1]", expected: true},
		{name: "uppercase localhost", input: "LOCALHOST:8080", expected: true},
		{name: "other loopback IP", input: "127.0.0.2:8080", expected: true},
		{name: "localhost prefixed domain", input: "localhost.attacker.example", expected: false},
		{name: "localhost prefixed domain with port", input: "localhost.attacker.example:8080", expected: false},
		{name: "loopback IP prefixed domain", input: "127.0.0.1.nip.io", expected: false},
		{name: "localhost suffix without dot", input: "localhostevil.com:80", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsLocalhost(tt.input))
		})
	}
}

func TestValidateEndpointURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		expectErr bool
	}{
		{name: "https endpoint", input: "https://github.com/login/oauth/authorize"},
		{name: "http localhost endpoint", input: "http://localhost:8080/oauth/authorize"},
		{name: "http loopback IP endpoint", input: "http://127.0.0.1:9000/authorize"},
		{name: "http remote endpoint", input: "http://example.com/authorize", expectErr: true},
		{name: "http localhost prefixed domain", input: "http://localhost.attacker.example/authorize", expectErr: true},
		{name: "http loopback IP prefixed domain", input: "http://127.0.0.1.nip.io/authorize", expectErr: true},
		{name: "missing host", input: "https:///authorize", expectErr: true},
		{name: "unsupported scheme", input: "ftp://example.com/authorize", expectErr: true},
		{name: "unparsable", input: "://bad", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateEndpointURL(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCallbackAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantAddr  string
		wantPath  string
		expectErr bool
	}{
		{
			name:     "default github callback",
			input:    "http://localhost:8080/v1/oauth/callback/github",
			wantAddr: "localhost:8080",
			wantPath: "/v1/oauth/callback/github",
		},
		{
			name:     "default port and path",
			input:    "http://127.0.0.1",
			wantAddr: "127.0.0.1:80",
			wantPath: "/",
		},
		{
			name:     "ipv6 loopback",
			input:    "http://[::1]:9999/cb",
			wantAddr: "[::1]:9999",
			wantPath: "/cb",
		},
		{name: "https is rejected", input: "https://localhost:8080/cb", expectErr: true},
		{name: "remote host is rejected", input: "http://example.com:8080/cb", expectErr: true},
		{name: "localhost prefixed domain is rejected", input: "http://localhost.attacker.example:8080/cb", expectErr: true},
		{name: "loopback IP prefixed domain is rejected", input: "http://127.0.0.1.nip.io:8080/cb", expectErr: true},
		{name: "bad port", input: "http://localhost:99999/cb", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			addr, path, err := CallbackAddress(tt.input)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, addr)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}
