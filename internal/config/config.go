// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/yairb30/smartfix.samana.front2/internal/session"
	"github.com/yairb30/smartfix.samana.front2/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete smartfix configuration.
type Config struct {
	API     APIConfig     `toml:"api" json:"api"`
	Session SessionConfig `toml:"session" json:"session"`
	Update  UpdateConfig  `toml:"update" json:"update"`
	Audit   AuditConfig   `toml:"audit" json:"audit"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// APIConfig points at the repair-shop backend.
type APIConfig struct {
	BaseURL     string `toml:"base_url" json:"base_url"`
	LoginPath   string `toml:"login_path" json:"login_path"`
	TimeoutSecs int    `toml:"timeout_secs" json:"timeout_secs"`
}

// SessionConfig holds the inactivity timeout and tab storage settings.
type SessionConfig struct {
	TimeoutMinutes float64 `toml:"timeout_minutes" json:"timeout_minutes"`
	WarningMinutes float64 `toml:"warning_minutes" json:"warning_minutes"`
	// StorePath is the SQLite file holding per-tab state. Empty selects
	// ~/.smartfix/session.db.
	StorePath string `toml:"store_path" json:"store_path"`
	// StaleTabHours is the age after which abandoned tabs are pruned.
	StaleTabHours int `toml:"stale_tab_hours" json:"stale_tab_hours"`
}

// UpdateConfig controls the new-build watcher.
type UpdateConfig struct {
	Enabled    bool   `toml:"enabled" json:"enabled"`
	WatchPath  string `toml:"watch_path" json:"watch_path"`
	DebounceMS int    `toml:"debounce_ms" json:"debounce_ms"`
}

// AuditConfig controls the audit log.
type AuditConfig struct {
	Enabled   bool   `toml:"enabled" json:"enabled"`
	Path      string `toml:"path" json:"path"`
	MaxSizeMB int    `toml:"max_size_mb" json:"max_size_mb"`
}

// UIConfig holds terminal options.
type UIConfig struct {
	AltScreen bool `toml:"alt_screen" json:"alt_screen"`
	Mouse     bool `toml:"mouse" json:"mouse"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "http://localhost:8080",
			LoginPath:   "/login",
			TimeoutSecs: 15,
		},
		Session: SessionConfig{
			TimeoutMinutes: session.DefaultTimeoutMinutes,
			WarningMinutes: session.DefaultWarningMinutes,
			StaleTabHours:  24,
		},
		Update: UpdateConfig{
			Enabled:    true,
			DebounceMS: 1000,
		},
		Audit: AuditConfig{
			Enabled:   true,
			MaxSizeMB: 5,
		},
		UI: UIConfig{
			AltScreen: true,
			Mouse:     true,
		},
	}
}

// Inactivity returns the validated monitor configuration.
func (c *Config) Inactivity() (session.Config, error) {
	return session.NewConfig(c.Session.TimeoutMinutes, c.Session.WarningMinutes)
}

// APITimeout returns the login request timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// UpdateDebounce returns the update watcher debounce.
func (c *Config) UpdateDebounce() time.Duration {
	return time.Duration(c.Update.DebounceMS) * time.Millisecond
}

// AuditMaxBytes returns the rotation threshold in bytes.
func (c *Config) AuditMaxBytes() int64 {
	return int64(c.Audit.MaxSizeMB) * 1024 * 1024
}

// StaleTabAge returns the prune threshold for abandoned tabs.
func (c *Config) StaleTabAge() time.Duration {
	return time.Duration(c.Session.StaleTabHours) * time.Hour
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns ~/.smartfix.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".smartfix"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ActivePath returns the file Load would read, or "" when none exists.
func ActivePath() string {
	for _, fn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		p, err := fn()
		if err != nil {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ensureSecurePermissions narrows config files to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.smartfix/config.toml, else config.json, else the defaults,
// then applies environment overrides and validates.
func Load() (*Config, error) {
	if p := ActivePath(); p != "" {
		return LoadFromPath(p)
	}
	cfg := Default()
	return cfg, finish(cfg)
}

// LoadFromPath loads a specific file (TOML unless it ends in .json) over
// the defaults, then applies environment overrides and validates.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config) error {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
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
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to ~/.smartfix/config.toml.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# smartfix configuration file\n")
	b.WriteString("# Environment variables SMARTFIX_* override these values.\n\n")
	if err := cfg.Encode(&b); err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as indented JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid field.
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

// Validate rejects bad values instead of clamping them.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[:port]", c.API.BaseURL),
		})
	}
	if !strings.HasPrefix(c.API.LoginPath, "/") {
		errs = append(errs, ValidationError{Field: "api.login_path", Message: "must start with /"})
	}
	if c.API.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{Field: "api.timeout_secs", Message: "must be positive"})
	}

	before := len(errs)
	if !(c.Session.TimeoutMinutes > 0) {
		errs = append(errs, ValidationError{Field: "session.timeout_minutes", Message: "must be positive"})
	}
	if !(c.Session.WarningMinutes > 0) {
		errs = append(errs, ValidationError{Field: "session.warning_minutes", Message: "must be positive"})
	} else if c.Session.WarningMinutes >= c.Session.TimeoutMinutes {
		errs = append(errs, ValidationError{
			Field:   "session.warning_minutes",
			Message: fmt.Sprintf("must be less than session.timeout_minutes (%v)", c.Session.TimeoutMinutes),
		})
	}
	// Infinities and minutes too large for a time.Duration.
	if len(errs) == before {
		if _, err := c.Inactivity(); err != nil {
			errs = append(errs, ValidationError{
				Field:   "session.timeout_minutes",
				Message: strings.TrimPrefix(err.Error(), session.ErrInvalidConfig.Error()+": "),
			})
		}
	}
	if c.Session.StaleTabHours < 0 {
		errs = append(errs, ValidationError{Field: "session.stale_tab_hours", Message: "cannot be negative"})
	}

	if c.Update.DebounceMS < 0 {
		errs = append(errs, ValidationError{Field: "update.debounce_ms", Message: "cannot be negative"})
	}
	if c.Audit.MaxSizeMB < 0 {
		errs = append(errs, ValidationError{Field: "audit.max_size_mb", Message: "cannot be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty strings that have a computed default. Numbers are
// left alone so that invalid values reach Validate.
func (c *Config) SetDefaults() {
	if c.API.LoginPath == "" {
		c.API.LoginPath = "/login"
	}
	if c.Session.StorePath == "" {
		if dir, err := ConfigDir(); err == nil {
			c.Session.StorePath = filepath.Join(dir, "session.db")
		}
	}
	if c.Audit.Path == "" {
		if dir, err := ConfigDir(); err == nil {
			c.Audit.Path = filepath.Join(dir, "audit.log")
		}
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// Environment variables read by ApplyEnvOverrides.
const (
	EnvAPIURL         = "SMARTFIX_API_URL"
	EnvTimeoutMinutes = "SMARTFIX_SESSION_TIMEOUT_MINUTES"
	EnvWarningMinutes = "SMARTFIX_SESSION_WARNING_MINUTES"
	EnvStorePath      = "SMARTFIX_STORE_PATH"
	EnvNoUpdateWatch  = "SMARTFIX_NO_UPDATE_WATCH"
	EnvAuditPath      = "SMARTFIX_AUDIT_PATH"
)

// ApplyEnvOverrides applies SMARTFIX_* variables. Unparsable numbers are
// reported, not ignored.
func (c *Config) ApplyEnvOverrides() error {
	var errs ValidateErrors

	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvTimeoutMinutes); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, ValidationError{Field: EnvTimeoutMinutes, Message: fmt.Sprintf("not a number: %q", v)})
		} else {
			c.Session.TimeoutMinutes = f
		}
	}
	if v := os.Getenv(EnvWarningMinutes); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, ValidationError{Field: EnvWarningMinutes, Message: fmt.Sprintf("not a number: %q", v)})
		} else {
			c.Session.WarningMinutes = f
		}
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		c.Session.StorePath = v
	}
	if v := os.Getenv(EnvNoUpdateWatch); v != "" {
		c.Update.Enabled = !parseBool(v)
	}
	if v := os.Getenv(EnvAuditPath); v != "" {
		c.Audit.Path = v
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get returns a value by key, e.g. "session.timeout_minutes".
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by key, converting strings to the field type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field := fieldByTag(v, part)
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) reflect.Value {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return v.Field(i)
		}
	}
	return reflect.Value{}
}

func tomlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

func setFieldValue(field reflect.Value, value interface{}) error {
	if s, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(f)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(s))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && field.Kind() != reflect.String && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns every settable key in dot notation.
func GetAllKeys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, tomlName(section)+"."+tomlName(section.Type.Field(j)))
		}
	}
	return keys
}

// Clone returns a copy. Config holds no references, so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
