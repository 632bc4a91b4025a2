package cli

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unimarket/authctx"
	"github.com/unimarket/authctx/internal/config"
	"github.com/unimarket/authctx/pkg/adapters/file"
	"github.com/unimarket/authctx/pkg/adapters/memory"
	"github.com/unimarket/authctx/pkg/adapters/redis"
	"github.com/unimarket/authctx/pkg/observability"
	"github.com/unimarket/authctx/pkg/persistence/middleware"
	"github.com/unimarket/authctx/pkg/ports"
)

// Wiring is a store together with the resources it owns.
type Wiring struct {
	Store   *authctx.Store
	Metrics *observability.Metrics
	Close   func() error
}

// BuildStore wires a Store from configuration.
// The tab-scoped tier is process memory: one CLI process is one context.
// A nil reg disables metric registration.
func BuildStore(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Wiring, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shared, broadcaster, closeFn, err := buildShared(cfg, logger)
	if err != nil {
		return nil, err
	}

	key, err := cfg.Key()
	if err != nil {
		_ = closeFn()
		return nil, err
	}
	if key != nil {
		shared = middleware.Chain(shared, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}

	metrics := observability.NewMetrics(reg)
	opts := []authctx.Option{
		authctx.WithLogger(logger),
		authctx.WithBroadcaster(broadcaster),
		authctx.WithMetrics(metrics),
	}
	if cfg.TabID != "" {
		opts = append(opts, authctx.WithTabID(cfg.TabID))
	}

	return &Wiring{
		Store:   authctx.New(memory.NewTier(), shared, opts...),
		Metrics: metrics,
		Close:   closeFn,
	}, nil
}

func buildShared(cfg config.Config, logger *slog.Logger) (ports.Tier, ports.Broadcaster, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		// Only contexts inside this process share it; useful for serve and tests.
		return memory.NewTier(), memory.NewBus().Attach(), noop, nil

	case config.BackendFile:
		tier := file.NewTier(cfg.Dir)
		b := file.NewBroadcaster(tier,
			file.WithPulseDelay(cfg.PulseDelay),
			file.WithLogger(logger),
		)
		return tier, b, noop, nil

	case config.BackendRedis:
		tier := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		b := redis.NewBroadcaster(tier.Client(),
			redis.WithBroadcastPrefix(tier.Prefix()),
			redis.WithPulseDelay(cfg.PulseDelay),
			redis.WithLogger(logger),
		)
		return tier, b, tier.Close, nil

	default:
		return nil, nil, noop, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
