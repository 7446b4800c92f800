// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/popup-login/pkg/popup"
)

// These tests share the viper instance and the newOpener hook, so none of
// them run in parallel.

type redirectWindow struct {
	location *url.URL
}

func (*redirectWindow) Closed() bool                  { return false }
func (w *redirectWindow) Location() (*url.URL, error) { return w.location, nil }
func (*redirectWindow) Close() error                  { return nil }

type recordingOpener struct {
	mu       sync.Mutex
	redirect string
	target   string
	features string
}

func (o *recordingOpener) Open(_ context.Context, target, _, features string) (popup.Window, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.target, o.features = target, features
	u, err := url.Parse(o.redirect)
	if err != nil {
		return nil, err
	}
	return &redirectWindow{location: u}, nil
}

func useOpener(t *testing.T, o popup.Opener) {
	t.Helper()
	orig := newOpener
	newOpener = func(*loginFlags, io.Writer) popup.Opener { return o }
	t.Cleanup(func() { newOpener = orig })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	return executeWithConfig(t, cfgPath, args...)
}

func executeWithConfig(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFeaturesCommand(t *testing.T) { //nolint:paralleltest // Shares viper state
	out, err := execute(t, "features")
	require.NoError(t, err)
	assert.Equal(t, "height=800,width=1200\n", out)

	out, err = execute(t, "features", "--height", "600", "--feature", "left=10", "--feature", "top=20")
	require.NoError(t, err)
	assert.Equal(t, "height=600,width=1200,left=10,top=20\n", out)

	_, err = execute(t, "features", "--width", "-1")
	assert.Error(t, err)
}

func TestLoginCommand(t *testing.T) { //nolint:paralleltest // Shares viper state and newOpener
	opener := &recordingOpener{redirect: "http://localhost:8080/v1/oauth/callback/github?code=abc123&user=alice"}
	useOpener(t, opener)

	out, err := execute(t, "login",
		"--client-id", "X",
		"--scope", "read:user",
		"--param", "state=s1",
		"--poll-interval", "1ms",
		"--hold-open", "0s",
		"-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "{\"code\":\"abc123\",\"user\":\"alice\"}\n", out)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, map[string]string{"code": "abc123", "user": "alice"}, decoded)

	assert.Equal(t,
		"https://github.com/login/oauth/authorize?client_id=X&redirect_uri=http://localhost:8080/v1/oauth/callback/github&scope=read:user&state=s1",
		opener.target)
	assert.Equal(t, "height=800,width=1200", opener.features)
}

func TestLoginCommandTableOutput(t *testing.T) { //nolint:paralleltest // Shares viper state and newOpener
	useOpener(t, &recordingOpener{redirect: "http://localhost:8080/cb?code=abc123"})

	out, err := execute(t, "login", "--client-id", "X", "--poll-interval", "1ms", "--hold-open", "0s")
	require.NoError(t, err)
	assert.Contains(t, out, "code")
	assert.Contains(t, out, "abc123")
}

func TestLoginCommandErrors(t *testing.T) { //nolint:paralleltest // Shares viper state and newOpener
	useOpener(t, &recordingOpener{redirect: "http://localhost:8080/cb?error=access_denied"})

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing client id", args: []string{"login"}, wantErr: "client ID is required"},
		{name: "bad output", args: []string{"login", "--client-id", "X", "-o", "xml"}, wantErr: "unsupported output format"},
		{name: "bad param", args: []string{"login", "--client-id", "X", "--param", "novalue"}, wantErr: "expected key=value"},
		{name: "reserved param key", args: []string{"login", "--client-id", "X", "--param", "a&b=c"}, wantErr: "cannot contain"},
		{name: "bad session id", args: []string{"login", "--client-id", "X", "--session-id", "two words"}, wantErr: "session ID"},
		{name: "unknown provider", args: []string{"login", "--client-id", "X", "--provider", "myspace"}, wantErr: "unknown provider"},
		{
			name:    "provider error",
			args:    []string{"login", "--client-id", "X", "--poll-interval", "1ms", "--hold-open", "0s"},
			wantErr: `provider returned error "access_denied"`,
		},
	}

	for _, tt := range tests { //nolint:paralleltest // Shares viper state and newOpener
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigCommands(t *testing.T) { //nolint:paralleltest // Shares viper state
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")

	out, err := executeWithConfig(t, cfgPath, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, cfgPath+"\n", out)

	_, err = executeWithConfig(t, cfgPath, "config", "set", "window.height", "640")
	require.NoError(t, err)

	out, err = executeWithConfig(t, cfgPath, "features")
	require.NoError(t, err)
	assert.Equal(t, "height=640,width=1200\n", out)

	out, err = executeWithConfig(t, cfgPath, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "window.height")
	assert.Contains(t, out, "640")

	_, err = executeWithConfig(t, cfgPath, "config", "set", "window.height", "tall")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) { //nolint:paralleltest // Shares viper state
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")
}

func TestParseParams(t *testing.T) {
	t.Parallel()

	p, err := parseParams([]string{"state=s1", "prompt=", "state=s2", "a=b=c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"state", "prompt", "a"}, p.Keys())
	assert.Equal(t, "s2", p.Get("state"))
	assert.Equal(t, "", p.Get("prompt"))
	assert.Equal(t, "b=c", p.Get("a"))

	_, err = parseParams([]string{"=x"})
	assert.Error(t, err)
}
