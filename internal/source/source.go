// Package source opens the configured scenario DataSource.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dayahead-sim/internal/config"
	"dayahead-sim/internal/scenario"
	"dayahead-sim/internal/source/cache"
	"dayahead-sim/internal/source/file"
	"dayahead-sim/internal/source/postgres"
	"dayahead-sim/internal/source/sqlite"
)

// Handle is an open DataSource plus whatever must be released with it.
type Handle struct {
	scenario.DataSource
	Cache   *cache.Source
	closers []func() error
}

func (h *Handle) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		errs = append(errs, h.closers[i]())
	}
	h.closers = nil
	return errors.Join(errs...)
}

// Open builds the source described by src and wraps it in the cache
// described by cc.
func Open(ctx context.Context, src config.SourceConfig, cc config.CacheConfig, logger *slog.Logger) (*Handle, error) {
	h := &Handle{}
	switch src.Kind {
	case config.SourceFile, "":
		m, err := file.Load(src.Path)
		if err != nil {
			return nil, err
		}
		h.DataSource = m
	case config.SourceSQLite:
		s, err := sqlite.Open(src.Path, logger)
		if err != nil {
			return nil, err
		}
		h.DataSource = s
		h.closers = append(h.closers, s.Close)
	case config.SourcePostgres:
		s, err := postgres.Open(ctx, src.DSN, src.PoolMaxConns, logger)
		if err != nil {
			return nil, err
		}
		h.DataSource = s
		h.closers = append(h.closers, func() error { s.Close(); return nil })
	default:
		return nil, fmt.Errorf("source: unknown kind %q", src.Kind)
	}

	var backend cache.Backend
	switch cc.Kind {
	case config.CacheNone, "":
		return h, nil
	case config.CacheMemory:
		backend = cache.NewMemory(cc.TTL.Duration, cc.TTL.Duration/2)
	case config.CacheRedis:
		r, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cc.RedisAddr,
			Password: cc.RedisPassword,
			DB:       cc.RedisDB,
			TTL:      cc.TTL.Duration,
		})
		if err != nil {
			_ = h.Close()
			return nil, err
		}
		backend = r
	default:
		_ = h.Close()
		return nil, fmt.Errorf("source: unknown cache kind %q", cc.Kind)
	}
	h.Cache = cache.New(h.DataSource, backend, logger)
	h.DataSource = h.Cache
	h.closers = append(h.closers, h.Cache.Close)
	return h, nil
}
