package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix         = "RTCLOBBY"
	defaultConfigName = "config.yaml"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"bind":        "bind",
	"static-path": "static_path",
	"max-clients": "max_clients",
	"log-level":   "log_level",
}

// Load builds configuration from defaults, optional config file, env vars and flags.
// Precedence: defaults < config file < env vars < flags.
// An explicit path that does not exist is created with the defaults.
func Load(logger *zerolog.Logger, explicitPath string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return cfg, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := readConfigFile(v, logger, explicitPath, cfg); err != nil {
		return cfg, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("bind", cfg.Bind)
	v.SetDefault("static_path", cfg.StaticPath)
	v.SetDefault("max_clients", cfg.MaxClients)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("outbound_buffer", cfg.OutboundBuffer)
	v.SetDefault("read_limit", cfg.ReadLimit)
	v.SetDefault("ping_interval", cfg.PingInterval)
	v.SetDefault("relay_rate_limit", cfg.RelayRateLimit)
	v.SetDefault("allowed_origins", cfg.AllowedOrigins)
	v.SetDefault("metrics_enabled", cfg.MetricsEnabled)
	v.SetDefault("admission.secret", cfg.Admission.Secret)
	v.SetDefault("admission.issuer", cfg.Admission.Issuer)
	v.SetDefault("admission.audience", cfg.Admission.Audience)
	v.SetDefault("admission.ttl", cfg.Admission.TTL)
}

func readConfigFile(v *viper.Viper, logger *zerolog.Logger, explicitPath string, cfg Config) error {
	configPath := explicitPath
	if configPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil
		}
		configPath = filepath.Join(cwd, defaultConfigName)
		if _, err := os.Stat(configPath); err != nil {
			// No config next to the binary; defaults and env are enough.
			return nil
		}
	}
	v.SetConfigFile(configPath)

	err := v.ReadInConfig()
	if err == nil {
		if logger != nil {
			logger.Debug().Str("path", configPath).Msg("loaded config")
		}
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config: %w", err)
	}

	if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil {
		if logger != nil {
			logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
		}
		return nil
	}
	if logger != nil {
		logger.Info().Str("path", configPath).Msg("created default config")
	}
	if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
		logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
	}
	return nil
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
