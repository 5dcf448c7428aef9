package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/calweir/triarb/internal/cache/memory"
	"github.com/calweir/triarb/internal/cache/redis"
	"github.com/calweir/triarb/internal/config"
	"github.com/calweir/triarb/internal/domain"
	"github.com/calweir/triarb/internal/notify"
	"github.com/calweir/triarb/internal/store/postgres"
	"github.com/calweir/triarb/internal/venue/kinesis"
	"github.com/calweir/triarb/internal/venue/swyftx"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Store is the shared quote store: in-process for "full" and "scan",
	// Redis-backed for the split "ingest"/"detect" processes.
	Store domain.QuoteStore

	// SignalBus is non-nil only when Redis is wired.
	SignalBus domain.SignalBus

	// OpportunityStore is non-nil only when Postgres is enabled.
	OpportunityStore domain.OpportunityStore

	// Venue clients, non-nil when the venue is enabled.
	Kinesis *kinesis.Client
	Swyftx  *swyftx.Client

	Notifier *notify.Notifier
}

// needsRedis returns true for modes where ingestion and detection run as
// separate processes and must share state through Redis.
func needsRedis(mode string) bool {
	switch mode {
	case "ingest", "detect":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()
	mode := strings.ToLower(cfg.Mode)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Quote store ---
	if needsRedis(mode) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Store = redis.NewQuoteStore(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	} else {
		deps.Store = memory.NewQuoteStore()
	}

	// --- PostgreSQL (optional opportunity history) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.OpportunityStore = postgres.NewOpportunityStore(pgClient.Pool())
	}

	// --- Venue clients ---
	if cfg.Kinesis.Enabled {
		deps.Kinesis = kinesis.NewClient(cfg.Kinesis.BaseURL, cfg.Kinesis.ApiKey, cfg.Kinesis.ApiSecret)
	}
	if cfg.Swyftx.Enabled {
		deps.Swyftx = swyftx.NewClient(cfg.Swyftx.BaseURL)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
