// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tuitch configuration.
type Config struct {
	// Username is the Twitch login used for chat
	Username string `toml:"username"`

	// Token is the OAuth token, with or without the "oauth:" prefix
	Token string `toml:"token"`

	// Channel is joined at startup; empty means start without a channel
	Channel string `toml:"channel"`

	// Server is the TLS chat endpoint (host:port)
	Server string `toml:"server"`

	// CommandPrefix marks a typed line as a command
	CommandPrefix string `toml:"command_prefix"`

	Log LogConfig `toml:"log"`
	UI  UIConfig  `toml:"ui"`
}

// LogConfig controls the log file. The terminal itself is never logged to.
type LogConfig struct {
	// Path of the log file; empty uses the user cache directory
	Path string `toml:"path"`

	// Level is one of debug, info, warn, error
	Level string `toml:"level"`
}

// UIConfig controls terminal output.
type UIConfig struct {
	// Color is auto, always or never
	Color string `toml:"color"`
}

// Default returns the built-in defaults. Username and token have none.
func Default() *Config {
	return &Config{
		Server:        "irc.chat.twitch.tv:6697",
		CommandPrefix: ":",
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Color: "auto",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the tuitch configuration directory path.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine config directory: %w", err)
	}
	return filepath.Join(dir, "tuitch"), nil
}

// DefaultPath returns the path of the default config file.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions tightens the config file to 0600: it holds the
// OAuth token.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD ERRORS
// =============================================================================

// LoadError is returned for any failure to produce a usable configuration:
// a missing file, bad TOML or failed validation. It is fatal at startup.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config from path, or from DefaultPath when path is empty.
// Environment overrides are applied after the file, then defaults, then
// validation. Every failure is a *LoadError.
func Load(path string) (*Config, string, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, "", &LoadError{Err: err}
		}
		path = p
	}
	cfg, err := LoadFromPath(path)
	return cfg, path, err
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	if err := LoadTOML(cfg, path); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("invalid config: %w", err)}
	}
	return cfg, nil
}

// LoadTOML decodes the TOML file at path into cfg. Unknown keys are an
// error so typos do not silently fall back to defaults.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file not found (create it or pass --config): %w", err)
		}
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Server == "" {
		cfg.Server = defaults.Server
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = defaults.CommandPrefix
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.UI.Color == "" {
		cfg.UI.Color = defaults.UI.Color
	}
}

// =============================================================================
// SAVE
// =============================================================================

// SaveTOML writes cfg to path with 0600 permissions, creating the directory.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(c.Username) == "" {
		errs = append(errs, ValidationError{Field: "username", Message: "is required"})
	} else if strings.ContainsAny(c.Username, " #:\t") {
		errs = append(errs, ValidationError{Field: "username", Message: "must be a bare Twitch login"})
	}

	if strings.TrimSpace(strings.TrimPrefix(c.Token, "oauth:")) == "" {
		errs = append(errs, ValidationError{Field: "token", Message: "is required"})
	}

	if strings.ContainsAny(strings.TrimPrefix(c.Channel, "#"), " :\t") {
		errs = append(errs, ValidationError{Field: "channel", Message: fmt.Sprintf("invalid channel name %q", c.Channel)})
	}

	if _, _, err := net.SplitHostPort(c.Server); err != nil {
		errs = append(errs, ValidationError{Field: "server", Message: fmt.Sprintf("must be host:port (%v)", err)})
	}

	if utf8.RuneCountInString(c.CommandPrefix) != 1 {
		errs = append(errs, ValidationError{Field: "command_prefix", Message: "must be a single character"})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	switch strings.ToLower(c.UI.Color) {
	case "auto", "always", "never":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.color",
			Message: fmt.Sprintf("invalid value '%s', must be one of: auto, always, never", c.UI.Color),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Prefix returns the command prefix as a rune.
func (c *Config) Prefix() rune {
	r, _ := utf8.DecodeRuneInString(c.CommandPrefix)
	return r
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - TUITCH_USERNAME: overrides username
//   - TUITCH_TOKEN: overrides token
//   - TUITCH_CHANNEL: overrides channel
//   - TUITCH_SERVER: overrides server
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TUITCH_USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("TUITCH_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("TUITCH_CHANNEL"); v != "" {
		c.Channel = v
	}
	if v := os.Getenv("TUITCH_SERVER"); v != "" {
		c.Server = v
	}
}

// String renders the config for logs with the token masked.
func (c *Config) String() string {
	token := "<unset>"
	if c.Token != "" {
		token = "<redacted>"
	}
	return fmt.Sprintf("username=%s channel=%s server=%s prefix=%q token=%s log.level=%s ui.color=%s",
		c.Username, c.Channel, c.Server, c.CommandPrefix, token, c.Log.Level, c.UI.Color)
}
