package selection

import (
	"context"
	"fmt"

	"capital-risk/internal/config"
)

// Open builds the store named by cfg.Backend. The returned close function
// is never nil.
func Open(ctx context.Context, cfg config.SelectionConfig) (Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.File), noop, nil
	case "memory":
		return NewMemoryStore(), noop, nil
	case "redis":
		rs, err := NewRedisStore(ctx, RedisOptions{
			Addr:    cfg.RedisAddr,
			DB:      cfg.RedisDB,
			Prefix:  cfg.RedisPrefix,
			Channel: cfg.RedisChannel,
		})
		if err != nil {
			return nil, noop, err
		}
		return rs, rs.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown selection backend %q", cfg.Backend)
}

// LimitsFrom reads the caps from cfg, keeping the defaults for unset values.
func LimitsFrom(cfg config.SelectionConfig) Limits {
	l := DefaultLimits()
	if cfg.MaxILD > 0 {
		l.ILD = cfg.MaxILD
	}
	if cfg.MaxScenario > 0 {
		l.Scenario = cfg.MaxScenario
	}
	return l
}
