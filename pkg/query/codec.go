// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package query

import "strings"

const (
	// DefaultDelimiter separates pairs in a URL query string.
	DefaultDelimiter = "&"
	// FeatureDelimiter separates pairs in a window feature string.
	FeatureDelimiter = ","
)

// Decode parses a raw query string.
//
// A single leading "?" or "/" is dropped, the rest is split on "&" and each
// segment on its first "=". When a key repeats the last occurrence wins.
// A segment without "=" marks its key as absent, removing any earlier
// value. Values are not percent-decoded.
func Decode(raw string) *Params {
	p := &Params{}
	if strings.HasPrefix(raw, "?") || strings.HasPrefix(raw, "/") {
		raw = raw[1:]
	}
	if raw == "" {
		return p
	}
	for _, segment := range strings.Split(raw, DefaultDelimiter) {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			p.Del(key)
			continue
		}
		p.Set(key, value)
	}
	return p
}

// Encode joins p as key=value pairs separated by "&".
func Encode(p *Params) string {
	return EncodeDelimited(p, DefaultDelimiter)
}

// EncodeDelimited joins p as key=value pairs separated by delimiter, in
// iteration order and without a trailing delimiter. Nothing is escaped.
func EncodeDelimited(p *Params, delimiter string) string {
	var b strings.Builder
	for i, k := range p.Keys() {
		if i > 0 {
			b.WriteString(delimiter)
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(p.values[k])
	}
	return b.String()
}
