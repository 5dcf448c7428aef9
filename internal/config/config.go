// Package config defines the top-level configuration for the triarb detector
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/calweir/triarb/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by TRIARB_* environment variables.
type Config struct {
	Universe UniverseConfig `toml:"universe"`
	Detector DetectorConfig `toml:"detector"`
	Kinesis  KinesisConfig  `toml:"kinesis"`
	Swyftx   SwyftxConfig   `toml:"swyftx"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// UniverseConfig defines the currencies and pairs under consideration. When
// pairs is empty, every base/quote combination is attempted.
type UniverseConfig struct {
	Bases  []string `toml:"bases"`
	Quotes []string `toml:"quotes"`
	// Pairs restricts the universe to explicit "{base}_{quote}" symbols.
	Pairs []string `toml:"pairs"`
}

// ToDomain converts the configured universe into its domain form. Malformed
// explicit pairs are reported by Validate, not here.
func (u UniverseConfig) ToDomain() domain.Universe {
	uni := domain.Universe{}
	for _, b := range u.Bases {
		uni.Bases = append(uni.Bases, domain.CurrencyCode(b))
	}
	for _, q := range u.Quotes {
		uni.Quotes = append(uni.Quotes, domain.CurrencyCode(q))
	}
	for _, p := range u.Pairs {
		base, quote, ok := domain.SymbolID(p).Split()
		if !ok {
			continue
		}
		uni.ExplicitPairs = append(uni.ExplicitPairs, domain.Pair{Base: base, Quote: quote})
	}
	return uni
}

// DetectorConfig holds detection-pass parameters.
type DetectorConfig struct {
	// Interval between detection passes.
	Interval duration `toml:"interval"`
	// ProbePay is the nominal amount used to quote each hop when building
	// graph edges.
	ProbePay float64 `toml:"probe_pay"`
	// ReplayPay is the starting amount used when replaying a discovered
	// cycle.
	ReplayPay float64 `toml:"replay_pay"`
	// NominalLiquidity is the assumed one-level depth when a book has no
	// depth snapshot.
	NominalLiquidity float64 `toml:"nominal_liquidity"`
	// FeeRate is the flat taker fee applied on each hop, e.g. 0.0022.
	FeeRate float64 `toml:"fee_rate"`
	// FeeCurrencies maps "{base}_{quote}" symbols to the currency their fee
	// is charged in. Unlisted symbols default to the base currency.
	FeeCurrencies map[string]string `toml:"fee_currencies"`
}

// KinesisConfig holds Kinesis exchange endpoints and API credentials.
type KinesisConfig struct {
	Enabled         bool     `toml:"enabled"`
	BaseURL         string   `toml:"base_url"`
	WSURL           string   `toml:"ws_url"`
	ApiKey          string   `toml:"api_key"`
	ApiSecret       string   `toml:"api_secret"`
	DepthInterval   duration `toml:"depth_interval"`
	ReconnectBudget int      `toml:"reconnect_budget"`
}

// SwyftxConfig holds the Swyftx polling parameters.
type SwyftxConfig struct {
	Enabled      bool     `toml:"enabled"`
	BaseURL      string   `toml:"base_url"`
	PollInterval duration `toml:"poll_interval"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters. History persistence
// is optional; it is skipped entirely when Enabled is false.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "1m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5s" or "1m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Universe: UniverseConfig{
			Bases:  []string{"BTC", "ETH", "KAU", "KAG"},
			Quotes: []string{"USD", "AUD"},
		},
		Detector: DetectorConfig{
			Interval:         duration{5 * time.Second},
			ProbePay:         1.0,
			ReplayPay:        1.0,
			NominalLiquidity: 1_000_000,
			FeeRate:          0.0022,
			FeeCurrencies:    map[string]string{},
		},
		Kinesis: KinesisConfig{
			Enabled:         true,
			BaseURL:         "https://client-api.kinesis.money",
			WSURL:           "wss://apip.kinesis.money/notifications/market-analytics/tickers",
			DepthInterval:   duration{10 * time.Second},
			ReconnectBudget: 10,
		},
		Swyftx: SwyftxConfig{
			Enabled:      false,
			BaseURL:      "https://api.swyftx.com.au",
			PollInterval: duration{30 * time.Second},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "triarb",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Notify: NotifyConfig{
			Events: []string{"arb_detected", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"full":   true,
	"ingest": true,
	"detect": true,
	"scan":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: full, ingest, detect, scan)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Universe
	if len(c.Universe.Pairs) == 0 && (len(c.Universe.Bases) == 0 || len(c.Universe.Quotes) == 0) {
		errs = append(errs, "universe: bases and quotes must both be non-empty (or set explicit pairs)")
	}
	for _, p := range c.Universe.Pairs {
		if _, _, ok := domain.SymbolID(p).Split(); !ok {
			errs = append(errs, fmt.Sprintf("universe: malformed pair %q (want \"{base}_{quote}\")", p))
		}
	}

	// Detector
	if c.Detector.Interval.Duration <= 0 {
		errs = append(errs, "detector: interval must be > 0")
	}
	if c.Detector.ProbePay <= 0 {
		errs = append(errs, "detector: probe_pay must be > 0")
	}
	if c.Detector.ReplayPay <= 0 {
		errs = append(errs, "detector: replay_pay must be > 0")
	}
	if c.Detector.NominalLiquidity <= 0 {
		errs = append(errs, "detector: nominal_liquidity must be > 0")
	}
	if c.Detector.FeeRate < 0 || c.Detector.FeeRate >= 1 {
		errs = append(errs, fmt.Sprintf("detector: fee_rate must be in [0, 1), got %g", c.Detector.FeeRate))
	}

	// Feeds — the ingesting modes need at least one venue enabled.
	mode := strings.ToLower(c.Mode)
	if mode == "full" || mode == "ingest" {
		if !c.Kinesis.Enabled && !c.Swyftx.Enabled {
			errs = append(errs, "at least one venue must be enabled for mode "+c.Mode)
		}
	}
	if c.Kinesis.Enabled {
		if c.Kinesis.ApiKey == "" || c.Kinesis.ApiSecret == "" {
			errs = append(errs, "kinesis: api_key and api_secret are required when enabled")
		}
		if c.Kinesis.DepthInterval.Duration <= 0 {
			errs = append(errs, "kinesis: depth_interval must be > 0")
		}
		if c.Kinesis.ReconnectBudget < 1 {
			errs = append(errs, "kinesis: reconnect_budget must be >= 1")
		}
	}
	if c.Swyftx.Enabled && c.Swyftx.PollInterval.Duration <= 0 {
		errs = append(errs, "swyftx: poll_interval must be > 0")
	}

	// Redis — required for the split-process modes.
	if mode == "ingest" || mode == "detect" {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty for mode "+c.Mode)
		}
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Notify — token and chat id travel together.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
