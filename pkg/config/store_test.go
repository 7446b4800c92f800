// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadMissingFile(t *testing.T) {
	t.Parallel()

	s, err := NewStore(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	cfg, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	_, err = os.Stat(s.Path())
	assert.True(t, errors.Is(err, os.ErrNotExist), "loading must not create the file")
}

func TestStoreLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `provider: google
client_id: abc
scopes: [openid, email]
window:
  width: 500
polling:
  interval: 1s
  timeout: 2m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	s, err := NewStore(path)
	require.NoError(t, err)
	cfg, err := s.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "google", cfg.Provider)
	assert.Equal(t, "abc", cfg.ClientID)
	assert.Equal(t, []string{"openid", "email"}, cfg.Scopes)
	assert.Equal(t, DefaultHeight, cfg.Window.Height)
	assert.Equal(t, 500, cfg.Window.Width)
	assert.Equal(t, time.Second, cfg.Polling.Interval.Duration())
	assert.Equal(t, 2*time.Minute, cfg.Polling.Timeout.Duration())
	assert.Equal(t, DefaultHoldOpen, cfg.Polling.HoldOpen.Duration())
}

func TestStoreLoadInvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: [1, 2"), 0600))

	s, err := NewStore(path)
	require.NoError(t, err)
	_, err = s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestStoreUpdatePersistsOnlySetValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	s, err := NewStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Update(context.Background(), func(c *Config) error {
		return SetField(c, "client-id", "abc")
	}))
	require.NoError(t, s.Update(context.Background(), func(c *Config) error {
		return SetField(c, "polling.interval", "500ms")
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "client_id: abc\npolling:\n    interval: 500ms\n", string(data))

	boom := errors.New("boom")
	err = s.Update(context.Background(), func(c *Config) error {
		c.ClientID = "lost"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	cfg, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.ClientID)
}
