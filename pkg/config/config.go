// Package config loads bot configuration from defaults, an optional YAML
// file, .env files and WHATSBOT_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/whatsbot/whatsbot-go/pkg/connection"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WHATSBOT_"

// Defaults.
const (
	DefaultAuthDir           = "auth_info"
	DefaultLogLevel          = "info"
	DefaultClientDisplayName = "Chrome (Mac OS)"
)

// Config is the complete bot configuration.
type Config struct {
	// AuthDir holds the credential database and the persisted bot state.
	AuthDir string `yaml:"auth_dir"`

	LogLevel string `yaml:"log_level"`

	// EventLog is the CBOR session event log file. Empty disables it.
	EventLog string `yaml:"event_log"`

	FetchLatestVersion bool `yaml:"fetch_latest_version"`

	// ExitOnTerminal makes the process exit after a fatal disconnect instead
	// of idling until signalled.
	ExitOnTerminal bool `yaml:"exit_on_terminal"`

	Pairing   PairingConfig   `yaml:"pairing"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// PairingConfig configures first-time linking.
type PairingConfig struct {
	// Phone skips the interactive prompt when set.
	Phone string `yaml:"phone"`

	ClientDisplayName    string `yaml:"client_display_name"`
	ShowPushNotification bool   `yaml:"show_push_notification"`
}

// ReconnectConfig configures the reconnection policy.
type ReconnectConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
	Jitter       float64       `yaml:"jitter"`

	// MaxAttempts caps consecutive reconnections without reaching open.
	// Zero means unlimited.
	MaxAttempts int `yaml:"max_attempts"`

	// MaxElapsed caps the time spent reconnecting. Zero means unlimited.
	MaxElapsed time.Duration `yaml:"max_elapsed"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address, e.g. ":9464". Empty disables the endpoint.
	Addr string `yaml:"addr"`
}

// Default returns the default configuration.
func Default() Config {
	b := connection.DefaultBackoffConfig()
	return Config{
		AuthDir:            DefaultAuthDir,
		LogLevel:           DefaultLogLevel,
		FetchLatestVersion: true,
		Pairing: PairingConfig{
			ClientDisplayName:    DefaultClientDisplayName,
			ShowPushNotification: true,
		},
		Reconnect: ReconnectConfig{
			InitialDelay: b.Initial,
			MaxDelay:     b.Max,
			Multiplier:   b.Multiplier,
			Jitter:       b.Jitter,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	if err := Decode(bytes.NewReader(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays YAML from r onto cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadDotEnv loads environment variables from the given files. Missing
// files are ignored; variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays WHATSBOT_* variables from os.Environ onto cfg.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	str("AUTH_DIR", &c.AuthDir)
	str("LOG_LEVEL", &c.LogLevel)
	str("EVENT_LOG", &c.EventLog)
	boolean("FETCH_LATEST_VERSION", &c.FetchLatestVersion)
	boolean("EXIT_ON_TERMINAL", &c.ExitOnTerminal)
	str("PHONE", &c.Pairing.Phone)
	str("CLIENT_DISPLAY_NAME", &c.Pairing.ClientDisplayName)
	boolean("SHOW_PUSH_NOTIFICATION", &c.Pairing.ShowPushNotification)
	duration("RECONNECT_INITIAL_DELAY", &c.Reconnect.InitialDelay)
	duration("RECONNECT_MAX_DELAY", &c.Reconnect.MaxDelay)
	integer("RECONNECT_MAX_ATTEMPTS", &c.Reconnect.MaxAttempts)
	duration("RECONNECT_MAX_ELAPSED", &c.Reconnect.MaxElapsed)
	str("METRICS_ADDR", &c.Metrics.Addr)

	return errors.Join(errs...)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AuthDir) == "" {
		return errors.New("config: auth_dir is required")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return c.Reconnect.Validate()
}

// Validate checks the reconnection settings.
func (r ReconnectConfig) Validate() error {
	switch {
	case r.InitialDelay <= 0:
		return errors.New("config: reconnect.initial_delay must be positive")
	case r.MaxDelay < r.InitialDelay:
		return errors.New("config: reconnect.max_delay must not be below initial_delay")
	case r.Multiplier < 1:
		return errors.New("config: reconnect.multiplier must be at least 1")
	case r.Jitter < 0 || r.Jitter > 1:
		return errors.New("config: reconnect.jitter must be within [0, 1]")
	case r.MaxAttempts < 0:
		return errors.New("config: reconnect.max_attempts must not be negative")
	case r.MaxElapsed < 0:
		return errors.New("config: reconnect.max_elapsed must not be negative")
	}
	return nil
}

// Policy converts the settings to a reconnection policy.
func (r ReconnectConfig) Policy() connection.Policy {
	return connection.Policy{
		Backoff: connection.BackoffConfig{
			Initial:    r.InitialDelay,
			Max:        r.MaxDelay,
			Multiplier: r.Multiplier,
			Jitter:     r.Jitter,
		},
		MaxAttempts: r.MaxAttempts,
		MaxElapsed:  r.MaxElapsed,
	}
}
