// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package validation provides functions for validating user input.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/http/httpguts"
)

// reservedParamChars cannot appear in a parameter key: the query codec
// writes keys verbatim, so these would split or merge pairs.
const reservedParamChars = "&=,?#"

// ValidateHTTPHeaderName validates that a string is a valid HTTP header name per RFC 7230.
func ValidateHTTPHeaderName(name string) error {
	if name == "" {
		return fmt.Errorf("header name cannot be empty")
	}
	if len(name) > 256 {
		return fmt.Errorf("header name exceeds maximum length of 256 bytes")
	}
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("invalid HTTP header name: contains invalid characters")
	}
	return nil
}

// ValidateHTTPHeaderValue validates that a string is a valid HTTP header value per RFC 7230.
// It checks for CRLF injection and control characters.
func ValidateHTTPHeaderValue(value string) error {
	if value == "" {
		return fmt.Errorf("header value cannot be empty")
	}
	if len(value) > 8192 {
		return fmt.Errorf("header value exceeds maximum length of 8192 bytes")
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("invalid HTTP header value: contains control characters")
	}
	return nil
}

// ValidateParamKey checks that key can be written into a query or window
// feature string without changing how it splits.
func ValidateParamKey(key string) error {
	if key == "" {
		return fmt.Errorf("parameter key cannot be empty")
	}
	if i := strings.IndexAny(key, reservedParamChars); i >= 0 {
		return fmt.Errorf("parameter key %q cannot contain %q", key, key[i])
	}
	if strings.ContainsFunc(key, unicode.IsSpace) {
		return fmt.Errorf("parameter key %q cannot contain whitespace", key)
	}
	return nil
}

// ValidateSessionID checks a window name. Empty means "generate one".
func ValidateSessionID(id string) error {
	if strings.ContainsFunc(id, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) {
		return fmt.Errorf("session ID %q cannot contain whitespace or control characters", id)
	}
	if len(id) > 128 {
		return fmt.Errorf("session ID exceeds maximum length of 128 bytes")
	}
	return nil
}
