// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/popup-login/pkg/fileutils"
	"github.com/stacklok/popup-login/pkg/logger"
)

// lockTimeout is the maximum time to wait for a file lock
const lockTimeout = 1 * time.Second

// DefaultPath returns the config file location under the XDG config home.
func DefaultPath() (string, error) {
	return xdg.ConfigFile("popup-login/config.yaml")
}

// Store loads and saves the configuration file.
type Store struct {
	path string
}

// NewStore creates a store for path. An empty path uses DefaultPath.
func NewStore(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("unable to fetch config path: %w", err)
		}
	}
	return &Store{path: filepath.Clean(path)}, nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load reads the configuration and applies defaults. A missing file
// yields the defaults.
func (s *Store) Load(_ context.Context) (*Config, error) {
	cfg, err := s.read()
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Update applies updateFn to the stored configuration while holding a
// file lock. Only values present in the file, or set by updateFn, are
// written back; defaults are not persisted.
func (s *Store) Update(ctx context.Context, updateFn func(*Config) error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	fileLock := flock.New(s.path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock: timeout after %v", lockTimeout)
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			logger.Warnf("failed to release config lock: %v", err)
		}
	}()

	cfg, err := s.read()
	if err != nil {
		return err
	}
	if err := updateFn(cfg); err != nil {
		return err
	}
	return s.write(cfg)
}

func (s *Store) read() (*Config, error) {
	// #nosec G304: the path is chosen by the user running the CLI.
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debugf("no config file at %s, using defaults", s.path)
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", s.path, err)
	}
	return &cfg, nil
}

func (s *Store) write(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error serializing config file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := fileutils.AtomicWriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
