package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns defaults adjusted to pass validation (defaults enable
// kinesis but carry no credentials).
func validConfig() Config {
	cfg := Defaults()
	cfg.Kinesis.ApiKey = "key"
	cfg.Kinesis.ApiSecret = "secret"
	return cfg
}

func TestValidateDefaultsNeedCredentials(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error without kinesis credentials")
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Errorf("error %q does not mention api_key", err)
	}

	cfg = validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "bogus"
	cfg.Detector.FeeRate = 1.5
	cfg.Universe.Pairs = []string{"BTCUSD"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"unknown mode", "fee_rate", "malformed pair"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidateModeRequirements(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name: "ingest needs a venue",
			mutate: func(c *Config) {
				c.Mode = "ingest"
				c.Kinesis.Enabled = false
				c.Swyftx.Enabled = false
			},
			want: "at least one venue",
		},
		{
			name: "detect needs redis",
			mutate: func(c *Config) {
				c.Mode = "detect"
				c.Redis.Addr = ""
			},
			want: "redis: addr",
		},
		{
			name: "telegram credentials travel together",
			mutate: func(c *Config) {
				c.Notify.TelegramToken = "tok"
			},
			want: "telegram_chat_id",
		},
		{
			name: "postgres needs a target",
			mutate: func(c *Config) {
				c.Postgres.Enabled = true
				c.Postgres.Host = ""
				c.Postgres.DSN = ""
			},
			want: "postgres: host",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
mode = "scan"
log_level = "debug"

[universe]
bases = ["BTC"]
quotes = ["USD"]

[detector]
interval = "2s"
fee_rate = 0.001
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "scan" {
		t.Errorf("mode = %q, want scan", cfg.Mode)
	}
	if cfg.Detector.Interval.Duration != 2*time.Second {
		t.Errorf("interval = %s, want 2s", cfg.Detector.Interval.Duration)
	}
	if cfg.Detector.FeeRate != 0.001 {
		t.Errorf("fee_rate = %g, want 0.001", cfg.Detector.FeeRate)
	}
	// Untouched sections keep their defaults.
	if cfg.Swyftx.BaseURL != "https://api.swyftx.com.au" {
		t.Errorf("swyftx base_url lost its default: %q", cfg.Swyftx.BaseURL)
	}
}

func TestLoadDecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("mode = [broken\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "config: decode") {
		t.Errorf("error %q is not wrapped with the decode context", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("mode = \"full\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TRIARB_MODE", "detect")
	t.Setenv("TRIARB_KINESIS_API_KEY", "env-key")
	t.Setenv("TRIARB_DETECTOR_INTERVAL", "7s")
	t.Setenv("TRIARB_UNIVERSE_BASES", "BTC, ETH")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "detect" {
		t.Errorf("mode = %q, want detect", cfg.Mode)
	}
	if cfg.Kinesis.ApiKey != "env-key" {
		t.Errorf("api_key = %q, want env-key", cfg.Kinesis.ApiKey)
	}
	if cfg.Detector.Interval.Duration != 7*time.Second {
		t.Errorf("interval = %s, want 7s", cfg.Detector.Interval.Duration)
	}
	if len(cfg.Universe.Bases) != 2 || cfg.Universe.Bases[1] != "ETH" {
		t.Errorf("bases = %v, want [BTC ETH]", cfg.Universe.Bases)
	}
}

func TestUniverseToDomain(t *testing.T) {
	u := UniverseConfig{
		Bases:  []string{"BTC"},
		Quotes: []string{"USD"},
		Pairs:  []string{"ETH_AUD", "garbage"},
	}
	uni := u.ToDomain()
	if len(uni.Bases) != 1 || len(uni.Quotes) != 1 {
		t.Errorf("bases/quotes not converted: %+v", uni)
	}
	// Malformed explicit pairs are dropped here; Validate reports them.
	if len(uni.ExplicitPairs) != 1 {
		t.Fatalf("got %d explicit pairs, want 1", len(uni.ExplicitPairs))
	}
	if uni.ExplicitPairs[0].Base != "ETH" || uni.ExplicitPairs[0].Quote != "AUD" {
		t.Errorf("pair = %+v, want ETH/AUD", uni.ExplicitPairs[0])
	}
}
