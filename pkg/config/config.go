// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config contains the definition of the popup-login config file
// and the logic required to load, default, validate and update it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dario.cat/mergo"

	"github.com/stacklok/popup-login/pkg/networking"
	"github.com/stacklok/popup-login/pkg/popup"
	"github.com/stacklok/popup-login/pkg/query"
	"github.com/stacklok/popup-login/pkg/telemetry"
	"github.com/stacklok/popup-login/pkg/validation"
)

const (
	// DefaultProvider is the provider preset used when none is configured.
	DefaultProvider = "github"
	// DefaultRedirectURI is where providers send the browser back to.
	DefaultRedirectURI = "http://localhost:8080/v1/oauth/callback/github"
	// DefaultHeight is the popup height in pixels.
	DefaultHeight = 800
	// DefaultWidth is the popup width in pixels.
	DefaultWidth = 1200
	// DefaultHoldOpen is how long the window stays open after the redirect.
	DefaultHoldOpen = 2 * time.Second
)

// Config represents the configuration of popup-login.
type Config struct {
	Provider     string           `yaml:"provider,omitempty"`
	AuthorizeURL string           `yaml:"authorize_url,omitempty"`
	ClientID     string           `yaml:"client_id,omitempty"`
	RedirectURI  string           `yaml:"redirect_uri,omitempty"`
	Scopes       []string         `yaml:"scopes,omitempty"`
	Window       WindowConfig     `yaml:"window,omitempty"`
	Polling      PollingConfig    `yaml:"polling,omitempty"`
	OTEL         telemetry.Config `yaml:"otel,omitempty"`
}

// WindowConfig sizes the popup window.
type WindowConfig struct {
	Height int `yaml:"height,omitempty"`
	Width  int `yaml:"width,omitempty"`
}

// PollingConfig controls how a session watches its window.
type PollingConfig struct {
	Interval Duration `yaml:"interval,omitempty"`
	HoldOpen Duration `yaml:"hold_open,omitempty"`
	// Timeout of zero waits until the window closes.
	Timeout Duration `yaml:"timeout,omitempty"`
	// MaxReadFailures of zero retries forever; nil takes the default.
	MaxReadFailures *int `yaml:"max_read_failures,omitempty"`
}

// Defaults returns the configuration used for anything left unset.
func Defaults() *Config {
	maxReadFailures := popup.DefaultMaxReadFailures
	return &Config{
		Provider:    DefaultProvider,
		RedirectURI: DefaultRedirectURI,
		Window: WindowConfig{
			Height: DefaultHeight,
			Width:  DefaultWidth,
		},
		Polling: PollingConfig{
			Interval:        Duration(popup.DefaultPollInterval),
			HoldOpen:        Duration(DefaultHoldOpen),
			MaxReadFailures: &maxReadFailures,
		},
	}
}

// ApplyDefaults fills every zero field from Defaults. Values already set
// are preserved.
func (c *Config) ApplyDefaults() error {
	if err := mergo.Merge(c, Defaults()); err != nil {
		return fmt.Errorf("failed to apply config defaults: %w", err)
	}
	return nil
}

// ResolveAuthorizeURL returns the explicit authorize URL, or the one of
// the configured provider preset.
func (c *Config) ResolveAuthorizeURL() (string, error) {
	if c.AuthorizeURL != "" {
		return c.AuthorizeURL, nil
	}
	u, ok := ProviderAuthURL(c.Provider)
	if !ok {
		return "", fmt.Errorf("unknown provider %q (known providers: %s)",
			c.Provider, strings.Join(ProviderNames(), ", "))
	}
	return u, nil
}

// Validate checks a defaulted configuration.
func (c *Config) Validate() error {
	var errs []error

	authorizeURL, err := c.ResolveAuthorizeURL()
	if err != nil {
		errs = append(errs, err)
	} else if err := networking.ValidateEndpointURL(authorizeURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid authorize URL: %w", err))
	}
	if c.RedirectURI != "" && !networking.IsURL(c.RedirectURI) {
		errs = append(errs, fmt.Errorf("invalid redirect URI %q", c.RedirectURI))
	}
	if c.Window.Height < 0 || c.Window.Width < 0 {
		errs = append(errs, errors.New("window dimensions must not be negative"))
	}
	if c.Polling.Interval.Duration() <= 0 {
		errs = append(errs, errors.New("polling interval must be positive"))
	}
	if c.Polling.HoldOpen < 0 || c.Polling.Timeout < 0 {
		errs = append(errs, errors.New("hold_open and timeout must not be negative"))
	}
	if c.Polling.MaxReadFailures != nil && *c.Polling.MaxReadFailures < 0 {
		errs = append(errs, errors.New("max_read_failures must not be negative"))
	}
	for name, value := range c.OTEL.Headers {
		if err := validation.ValidateHTTPHeaderName(name); err != nil {
			errs = append(errs, fmt.Errorf("otel header %q: %w", name, err))
		} else if err := validation.ValidateHTTPHeaderValue(value); err != nil {
			errs = append(errs, fmt.Errorf("otel header %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// AuthRequest builds the authorize request for clientID, falling back to
// the configured client ID when it is empty.
func (c *Config) AuthRequest(clientID string, extra *query.Params) popup.AuthRequest {
	if clientID == "" {
		clientID = c.ClientID
	}
	params := query.NewParams()
	if len(c.Scopes) > 0 {
		params.Set("scope", strings.Join(c.Scopes, " "))
	}
	for _, k := range extra.Keys() {
		params.Set(k, extra.Get(k))
	}
	return popup.AuthRequest{ClientID: clientID, RedirectURI: c.RedirectURI, Extra: params}
}

// WindowOptions returns the configured window size.
func (c *Config) WindowOptions() popup.WindowOptions {
	return popup.WindowOptions{Height: c.Window.Height, Width: c.Window.Width}
}

// SessionOptions returns the session options for the polling settings.
func (c *Config) SessionOptions() []popup.Option {
	opts := []popup.Option{
		popup.WithPollInterval(c.Polling.Interval.Duration()),
		popup.WithHoldOpen(c.Polling.HoldOpen.Duration()),
		popup.WithTimeout(c.Polling.Timeout.Duration()),
	}
	if c.Polling.MaxReadFailures != nil {
		opts = append(opts, popup.WithMaxReadFailures(*c.Polling.MaxReadFailures))
	}
	return opts
}
