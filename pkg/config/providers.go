// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"slices"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

var providers = map[string]oauth2.Endpoint{
	"github": endpoints.GitHub,
	"gitlab": endpoints.GitLab,
	"google": endpoints.Google,
}

// ProviderAuthURL returns the authorize URL of a provider preset.
func ProviderAuthURL(name string) (string, bool) {
	ep, ok := providers[name]
	if !ok {
		return "", false
	}
	return ep.AuthURL, true
}

// ProviderNames returns the known provider presets, sorted.
func ProviderNames() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
