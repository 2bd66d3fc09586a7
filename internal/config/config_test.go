// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TUITCH_USERNAME", "TUITCH_TOKEN", "TUITCH_CHANNEL", "TUITCH_SERVER"} {
		t.Setenv(k, "")
	}
}

func TestLoadFromPath_MinimalFileGetsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
username = "me"
token = "oauth:abc"
channel = "#Room"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "me", cfg.Username)
	assert.Equal(t, "#Room", cfg.Channel)
	assert.Equal(t, "irc.chat.twitch.tv:6697", cfg.Server)
	assert.Equal(t, ":", cfg.CommandPrefix)
	assert.Equal(t, ':', cfg.Prefix())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.UI.Color)
}

func TestLoadFromPath_FullFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
username = "me"
token = "abc"
server = "localhost:6667"
command_prefix = "/"

[log]
path = "/tmp/t.log"
level = "debug"

[ui]
color = "never"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6667", cfg.Server)
	assert.Equal(t, '/', cfg.Prefix())
	assert.Equal(t, "/tmp/t.log", cfg.Log.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "never", cfg.UI.Color)
}

func TestLoadFromPath_Errors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad toml", `username = `, "failed to decode TOML file"},
		{"missing username", `token = "abc"`, "username: is required"},
		{"missing token", `username = "me"`, "token: is required"},
		{"bare oauth prefix", "username = \"me\"\ntoken = \"oauth:\"", "token: is required"},
		{"unknown key", "username = \"me\"\ntoken = \"x\"\nchanel = \"typo\"", "unknown keys: chanel"},
		{"bad prefix", "username = \"me\"\ntoken = \"x\"\ncommand_prefix = \"::\"", "command_prefix"},
		{"bad server", "username = \"me\"\ntoken = \"x\"\nserver = \"nohost\"", "server: must be host:port"},
		{"bad level", "username = \"me\"\ntoken = \"x\"\n[log]\nlevel = \"loud\"", "log.level"},
		{"bad color", "username = \"me\"\ntoken = \"x\"\n[ui]\ncolor = \"rainbow\"", "ui.color"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromPath(writeConfig(t, tc.body))
			require.Error(t, err)

			var lerr *LoadError
			require.True(t, errors.As(err, &lerr), "expected *LoadError, got %T", err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TUITCH_USERNAME", "envuser")
	t.Setenv("TUITCH_TOKEN", "envtoken")
	t.Setenv("TUITCH_CHANNEL", "envchan")
	t.Setenv("TUITCH_SERVER", "")

	// The file alone would fail validation; the environment completes it.
	cfg, err := LoadFromPath(writeConfig(t, `channel = "filechan"`))
	require.NoError(t, err)
	assert.Equal(t, "envuser", cfg.Username)
	assert.Equal(t, "envtoken", cfg.Token)
	assert.Equal(t, "envchan", cfg.Channel)
}

func TestLoad_DefaultPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	if runtime.GOOS == "windows" {
		t.Setenv("AppData", dir)
	}

	want, err := DefaultPath()
	require.NoError(t, err)
	require.NoError(t, SaveTOML(&Config{Username: "me", Token: "abc"}, want))

	cfg, path, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Equal(t, "me", cfg.Username)
}

func TestSaveTOML_SecureAndExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Username = "me"
	cfg.Token = "abc"
	require.NoError(t, SaveTOML(cfg, path))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	assert.Error(t, SaveTOML(cfg, path), "existing config must not be overwritten")
}

func TestLoadTOML_FixesPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	clearEnv(t)
	path := writeConfig(t, "username = \"me\"\ntoken = \"x\"")
	require.NoError(t, os.Chmod(path, 0o644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfig_StringMasksToken(t *testing.T) {
	cfg := Default()
	cfg.Token = "oauth:secret"
	s := cfg.String()
	assert.False(t, strings.Contains(s, "secret"))
	assert.Contains(t, s, "<redacted>")
}

func TestValidateErrors_Error(t *testing.T) {
	assert.Equal(t, "no validation errors", ValidateErrors{}.Error())
	errs := ValidateErrors{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}}
	assert.Equal(t, "a: x; b: y", errs.Error())
}
