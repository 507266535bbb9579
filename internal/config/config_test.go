package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	def := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("bind", def.Bind, "")
	fs.String("static-path", def.StaticPath, "")
	fs.Int("max-clients", def.MaxClients, "")
	fs.String("log-level", def.LogLevel, "")
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil, "", testFlags(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := Default()
	if cfg.Bind != def.Bind || cfg.StaticPath != def.StaticPath || cfg.MaxClients != def.MaxClients {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if _, err := os.Stat(defaultConfigName); !os.IsNotExist(err) {
		t.Fatalf("config file should not be created implicitly: %v", err)
	}
}

func TestLoadWritesDefaultForExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lobby.yaml")

	cfg, err := Load(nil, path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxClients != Default().MaxClients {
		t.Fatalf("unexpected max clients %d", cfg.MaxClients)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if !strings.Contains(string(data), "127.0.0.1:8080") {
		t.Fatalf("unexpected default file:\n%s", data)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
bind: 0.0.0.0:9000
static_path: /srv/www
max_clients: 4
ping_interval: 10s
allowed_origins:
  - example.com
admission:
  secret: file-secret
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("RTCLOBBY_MAX_CLIENTS", "6")
	t.Setenv("RTCLOBBY_ADMISSION_SECRET", "env-secret")

	cfg, err := Load(nil, path, testFlags(t, "--static-path", "/opt/static"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Bind != "0.0.0.0:9000" {
		t.Errorf("bind from file not applied: %q", cfg.Bind)
	}
	if cfg.MaxClients != 6 {
		t.Errorf("env should override file, got %d", cfg.MaxClients)
	}
	if cfg.StaticPath != "/opt/static" {
		t.Errorf("flag should override file, got %q", cfg.StaticPath)
	}
	if cfg.PingInterval != 10*time.Second {
		t.Errorf("unexpected ping interval %s", cfg.PingInterval)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "example.com" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.Admission.Secret != "env-secret" || cfg.Admission.Issuer != "rtclobby" {
		t.Errorf("unexpected admission config %+v", cfg.Admission)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := Load(nil, "", testFlags(t, "--max-clients", "0")); err == nil {
		t.Fatal("expected error for zero max clients")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"empty bind", func(c *Config) { c.Bind = "" }, false},
		{"negative max clients", func(c *Config) { c.MaxClients = -1 }, false},
		{"zero buffer", func(c *Config) { c.OutboundBuffer = 0 }, false},
		{"zero read limit", func(c *Config) { c.ReadLimit = 0 }, false},
		{"negative rate limit", func(c *Config) { c.RelayRateLimit = -5 }, false},
		{"unlimited rate", func(c *Config) { c.RelayRateLimit = 0 }, true},
		{"pings disabled", func(c *Config) { c.PingInterval = 0 }, true},
		{"secret without ttl", func(c *Config) { c.Admission.Secret = "s"; c.Admission.TTL = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
