package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Bind              string        `mapstructure:"bind" yaml:"bind"`
	StaticPath        string        `mapstructure:"static_path" yaml:"static_path"`
	MaxClients        int           `mapstructure:"max_clients" yaml:"max_clients"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Per-connection websocket settings.
	OutboundBuffer int           `mapstructure:"outbound_buffer" yaml:"outbound_buffer"`
	ReadLimit      int64         `mapstructure:"read_limit" yaml:"read_limit"`
	PingInterval   time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	RelayRateLimit int           `mapstructure:"relay_rate_limit" yaml:"relay_rate_limit"` // relays per minute, 0 disables
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	MetricsEnabled bool `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`

	Admission Admission `mapstructure:"admission" yaml:"admission"`
}

// Admission configures optional token checks before a websocket is accepted.
// An empty Secret leaves the lobby open.
type Admission struct {
	Secret   string        `mapstructure:"secret" yaml:"secret"`
	Issuer   string        `mapstructure:"issuer" yaml:"issuer"`
	Audience string        `mapstructure:"audience" yaml:"audience"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Bind:              "127.0.0.1:8080",
		StaticPath:        "static/",
		MaxClients:        10,
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		OutboundBuffer:    16,
		ReadLimit:         1 << 20,
		PingInterval:      30 * time.Second,
		RelayRateLimit:    120,
		MetricsEnabled:    true,
		Admission: Admission{
			Issuer:   "rtclobby",
			Audience: "rtclobby",
			TTL:      24 * time.Hour,
		},
	}
}

// Validate reports settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Bind == "" {
		errs = append(errs, errors.New("bind must not be empty"))
	}
	if c.StaticPath == "" {
		errs = append(errs, errors.New("static_path must not be empty"))
	}
	if c.MaxClients <= 0 {
		errs = append(errs, fmt.Errorf("max_clients must be positive, got %d", c.MaxClients))
	}
	if c.OutboundBuffer <= 0 {
		errs = append(errs, fmt.Errorf("outbound_buffer must be positive, got %d", c.OutboundBuffer))
	}
	if c.ReadLimit <= 0 {
		errs = append(errs, fmt.Errorf("read_limit must be positive, got %d", c.ReadLimit))
	}
	if c.PingInterval < 0 {
		errs = append(errs, fmt.Errorf("ping_interval must not be negative, got %s", c.PingInterval))
	}
	if c.RelayRateLimit < 0 {
		errs = append(errs, fmt.Errorf("relay_rate_limit must not be negative, got %d", c.RelayRateLimit))
	}
	if c.Admission.Secret != "" && c.Admission.TTL <= 0 {
		errs = append(errs, errors.New("admission.ttl must be positive when a secret is set"))
	}
	return errors.Join(errs...)
}
