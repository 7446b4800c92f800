// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package networking validates the endpoints a popup login talks to and
// the loopback address its callback listener binds.
package networking

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// HttpScheme is the HTTP scheme
//
//nolint:revive
const HttpScheme = "http"

// HttpsScheme is the HTTPS scheme
//
//nolint:revive
const HttpsScheme = "https"

// IsURL reports whether input parses as an absolute http(s) URL with a host.
func IsURL(input string) bool {
	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	return (u.Scheme == HttpScheme || u.Scheme == HttpsScheme) && u.Host != ""
}

// IsLocalhost reports whether host (optionally with a port) names the
// loopback interface: exactly "localhost" or a loopback IP literal.
func IsLocalhost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// ValidateEndpointURL requires HTTPS unless the endpoint is on localhost.
func ValidateEndpointURL(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", endpoint)
	}
	switch u.Scheme {
	case HttpsScheme:
		return nil
	case HttpScheme:
		if IsLocalhost(u.Host) {
			return nil
		}
		return fmt.Errorf("URL %q must use HTTPS unless it points to localhost", endpoint)
	default:
		return fmt.Errorf("URL %q has unsupported scheme %q", endpoint, u.Scheme)
	}
}

// CallbackAddress splits a loopback redirect URI into the address a
// listener should bind and the path the provider will redirect to.
func CallbackAddress(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect URI: %w", err)
	}
	if u.Scheme != HttpScheme {
		return "", "", fmt.Errorf("redirect URI %q must use http for a loopback listener", redirectURI)
	}
	if !IsLocalhost(u.Host) {
		return "", "", fmt.Errorf("redirect URI %q does not point to localhost", redirectURI)
	}

	port := u.Port()
	if port == "" {
		port = "80"
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", "", fmt.Errorf("redirect URI %q has invalid port: %w", redirectURI, err)
	}

	path = u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(u.Hostname(), port), path, nil
}
