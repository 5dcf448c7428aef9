package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TRIARB_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TRIARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Universe ──
	setStringSlice(&cfg.Universe.Bases, "TRIARB_UNIVERSE_BASES")
	setStringSlice(&cfg.Universe.Quotes, "TRIARB_UNIVERSE_QUOTES")
	setStringSlice(&cfg.Universe.Pairs, "TRIARB_UNIVERSE_PAIRS")

	// ── Detector ──
	setDuration(&cfg.Detector.Interval, "TRIARB_DETECTOR_INTERVAL")
	setFloat64(&cfg.Detector.ProbePay, "TRIARB_DETECTOR_PROBE_PAY")
	setFloat64(&cfg.Detector.ReplayPay, "TRIARB_DETECTOR_REPLAY_PAY")
	setFloat64(&cfg.Detector.NominalLiquidity, "TRIARB_DETECTOR_NOMINAL_LIQUIDITY")
	setFloat64(&cfg.Detector.FeeRate, "TRIARB_DETECTOR_FEE_RATE")

	// ── Kinesis ──
	setBool(&cfg.Kinesis.Enabled, "TRIARB_KINESIS_ENABLED")
	setStr(&cfg.Kinesis.BaseURL, "TRIARB_KINESIS_BASE_URL")
	setStr(&cfg.Kinesis.WSURL, "TRIARB_KINESIS_WS_URL")
	setStr(&cfg.Kinesis.ApiKey, "TRIARB_KINESIS_API_KEY")
	setStr(&cfg.Kinesis.ApiSecret, "TRIARB_KINESIS_API_SECRET")
	setDuration(&cfg.Kinesis.DepthInterval, "TRIARB_KINESIS_DEPTH_INTERVAL")
	setInt(&cfg.Kinesis.ReconnectBudget, "TRIARB_KINESIS_RECONNECT_BUDGET")

	// ── Swyftx ──
	setBool(&cfg.Swyftx.Enabled, "TRIARB_SWYFTX_ENABLED")
	setStr(&cfg.Swyftx.BaseURL, "TRIARB_SWYFTX_BASE_URL")
	setDuration(&cfg.Swyftx.PollInterval, "TRIARB_SWYFTX_POLL_INTERVAL")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "TRIARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TRIARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TRIARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TRIARB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TRIARB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TRIARB_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "TRIARB_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "TRIARB_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "TRIARB_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "TRIARB_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "TRIARB_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "TRIARB_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "TRIARB_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "TRIARB_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "TRIARB_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "TRIARB_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "TRIARB_POSTGRES_RUN_MIGRATIONS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "TRIARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TRIARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "TRIARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "TRIARB_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "TRIARB_MODE")
	setStr(&cfg.LogLevel, "TRIARB_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
