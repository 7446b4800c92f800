// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/stacklok/popup-login/pkg/networking"
)

// Field is a config value that can be read and set by name.
type Field struct {
	Name        string
	Description string
	Get         func(*Config) string
	Set         func(*Config, string) error
}

var fields = map[string]Field{}

func registerField(f Field) {
	if _, exists := fields[f.Name]; exists {
		panic(fmt.Sprintf("config field %q registered twice", f.Name))
	}
	fields[f.Name] = f
}

// Fields returns every settable field, sorted by name.
func Fields() []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b Field) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// LookupField returns the field called name.
func LookupField(name string) (Field, bool) {
	f, ok := fields[name]
	return f, ok
}

// SetField validates value and stores it in the field called name.
func SetField(cfg *Config, name, value string) error {
	f, ok := fields[name]
	if !ok {
		return fmt.Errorf("unknown config field %q", name)
	}
	if err := f.Set(cfg, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", name, err)
	}
	return nil
}

func init() {
	registerField(Field{
		Name:        "provider",
		Description: "provider preset (" + strings.Join(ProviderNames(), ", ") + ")",
		Get:         func(c *Config) string { return c.Provider },
		Set: func(c *Config, v string) error {
			if _, ok := ProviderAuthURL(v); !ok {
				return fmt.Errorf("unknown provider %q", v)
			}
			c.Provider = v
			return nil
		},
	})
	registerField(Field{
		Name:        "authorize-url",
		Description: "authorize endpoint, overrides the provider preset",
		Get:         func(c *Config) string { return c.AuthorizeURL },
		Set: func(c *Config, v string) error {
			if err := networking.ValidateEndpointURL(v); err != nil {
				return err
			}
			c.AuthorizeURL = v
			return nil
		},
	})
	registerField(Field{
		Name:        "client-id",
		Description: "OAuth client ID",
		Get:         func(c *Config) string { return c.ClientID },
		Set: func(c *Config, v string) error {
			c.ClientID = v
			return nil
		},
	})
	registerField(Field{
		Name:        "redirect-uri",
		Description: "callback URL registered with the provider",
		Get:         func(c *Config) string { return c.RedirectURI },
		Set: func(c *Config, v string) error {
			if !networking.IsURL(v) {
				return fmt.Errorf("%q is not an http(s) URL", v)
			}
			c.RedirectURI = v
			return nil
		},
	})
	registerField(Field{
		Name:        "scopes",
		Description: "comma separated scopes to request",
		Get:         func(c *Config) string { return strings.Join(c.Scopes, ",") },
		Set: func(c *Config, v string) error {
			c.Scopes = nil
			for _, s := range strings.Split(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					c.Scopes = append(c.Scopes, s)
				}
			}
			return nil
		},
	})
	registerIntField("window.height", "popup height in pixels", func(c *Config) *int { return &c.Window.Height })
	registerIntField("window.width", "popup width in pixels", func(c *Config) *int { return &c.Window.Width })
	registerDurationField("polling.interval", "time between window checks", func(c *Config) *Duration { return &c.Polling.Interval })
	registerDurationField("polling.hold-open", "how long the window stays open after login", func(c *Config) *Duration { return &c.Polling.HoldOpen })
	registerDurationField("polling.timeout", "give up after this long, 0 waits forever", func(c *Config) *Duration { return &c.Polling.Timeout })
	registerField(Field{
		Name:        "otel.endpoint",
		Description: "OTLP/HTTP collector host:port for session metrics",
		Get:         func(c *Config) string { return c.OTEL.Endpoint },
		Set: func(c *Config, v string) error {
			c.OTEL.Endpoint = v
			return nil
		},
	})
	registerField(Field{
		Name:        "otel.insecure",
		Description: "export metrics over plain HTTP",
		Get: func(c *Config) string {
			if !c.OTEL.Insecure {
				return ""
			}
			return "true"
		},
		Set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%q is not a boolean", v)
			}
			c.OTEL.Insecure = b
			return nil
		},
	})
	registerField(Field{
		Name:        "polling.max-read-failures",
		Description: "consecutive location read errors tolerated, 0 retries forever",
		Get: func(c *Config) string {
			if c.Polling.MaxReadFailures == nil {
				return ""
			}
			return strconv.Itoa(*c.Polling.MaxReadFailures)
		},
		Set: func(c *Config, v string) error {
			n, err := parseNonNegative(v)
			if err != nil {
				return err
			}
			c.Polling.MaxReadFailures = &n
			return nil
		},
	})
}

func registerIntField(name, description string, ptr func(*Config) *int) {
	registerField(Field{
		Name:        name,
		Description: description,
		Get: func(c *Config) string {
			if *ptr(c) == 0 {
				return ""
			}
			return strconv.Itoa(*ptr(c))
		},
		Set: func(c *Config, v string) error {
			n, err := parseNonNegative(v)
			if err != nil {
				return err
			}
			*ptr(c) = n
			return nil
		},
	})
}

func registerDurationField(name, description string, ptr func(*Config) *Duration) {
	registerField(Field{
		Name:        name,
		Description: description,
		Get: func(c *Config) string {
			if *ptr(c) == 0 {
				return ""
			}
			return ptr(c).String()
		},
		Set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			if d < 0 {
				return fmt.Errorf("duration %s is negative", d)
			}
			*ptr(c) = Duration(d)
			return nil
		},
	})
}

func parseNonNegative(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", v)
	}
	if n < 0 {
		return 0, fmt.Errorf("%d is negative", n)
	}
	return n, nil
}
