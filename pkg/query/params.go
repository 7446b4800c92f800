// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package query converts between flat key/value mappings and raw query
// strings. It performs no percent-encoding or decoding: values travel
// exactly as the caller wrote them, and escaping is the caller's job.
package query

import (
	"maps"
	"slices"
)

// Params is an insertion-ordered string mapping.
//
// Re-setting an existing key replaces its value but keeps the position of
// the first insertion. The zero value is ready to use.
type Params struct {
	keys   []string
	values map[string]string
}

// NewParams returns a Params holding the given key/value pairs in order.
// A trailing key without a value is ignored.
func NewParams(kv ...string) *Params {
	p := &Params{}
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i], kv[i+1])
	}
	return p
}

// FromMap copies m into a Params. Go maps carry no order, so keys are
// sorted to keep encoding deterministic.
func FromMap(m map[string]string) *Params {
	p := &Params{}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		p.Set(k, m[k])
	}
	return p
}

// Set assigns value to key.
func (p *Params) Set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for key, or "" when absent.
func (p *Params) Get(key string) string {
	v, _ := p.Lookup(key)
	return v
}

// Lookup returns the value for key and whether it is present.
func (p *Params) Lookup(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.Lookup(key)
	return ok
}

// Del removes key. Deleting a missing key is a no-op.
func (p *Params) Del(key string) {
	if !p.Has(key) {
		return
	}
	delete(p.values, key)
	p.keys = slices.DeleteFunc(p.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in iteration order.
func (p *Params) Keys() []string {
	if p == nil || len(p.keys) == 0 {
		return nil
	}
	return slices.Clone(p.keys)
}

// Len returns the number of keys.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Map returns an unordered copy of the mapping.
func (p *Params) Map() map[string]string {
	m := make(map[string]string, p.Len())
	if p != nil {
		maps.Copy(m, p.values)
	}
	return m
}

// Clone returns a deep copy. Cloning nil yields an empty Params.
func (p *Params) Clone() *Params {
	c := &Params{}
	for _, k := range p.Keys() {
		c.Set(k, p.values[k])
	}
	return c
}

// Equal reports whether p and o hold the same key/value pairs, ignoring order.
func (p *Params) Equal(o *Params) bool {
	return maps.Equal(p.Map(), o.Map())
}
