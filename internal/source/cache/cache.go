// Package cache decorates a scenario.DataSource with a sample cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"dayahead-sim/internal/scenario"
	"dayahead-sim/internal/source/codec"
)

// Backend stores opaque values by key. A miss is (nil, false, nil).
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Stats counts cache traffic.
type Stats struct {
	Hits   int64
	Misses int64
	Errors int64
}

// Source serves samples from a Backend and falls through to the wrapped
// source on a miss. Concurrent misses for the same key share one fetch.
// Backend failures are logged and bypassed; unavailable data is never
// cached.
type Source struct {
	next    scenario.DataSource
	backend Backend
	group   singleflight.Group
	logger  *slog.Logger

	hits, misses, errs atomic.Int64
}

func New(next scenario.DataSource, backend Backend, logger *slog.Logger) *Source {
	return &Source{next: next, backend: backend, logger: logger.With(slog.String("component", "cache"))}
}

// Key derives the cache key of one series.
func Key(kind, scenarioID string, f scenario.Filter) string {
	raw := strings.Join([]string{kind, scenarioID, f.Dataset, f.Area, f.Key}, "\x00")
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (s *Source) FetchYearlySamples(ctx context.Context, scenarioID string, f scenario.Filter) (map[int]float64, error) {
	v, err := fetch(ctx, s, Key("yearly", scenarioID, f), func() (map[int]float64, error) {
		return s.next.FetchYearlySamples(ctx, scenarioID, f)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[int]float64, len(v))
	for y, x := range v {
		out[y] = x
	}
	return out, nil
}

func (s *Source) FetchHourlyProfile(ctx context.Context, scenarioID string, f scenario.Filter) (map[int][]float64, error) {
	return fetch(ctx, s, Key("hourly", scenarioID, f), func() (map[int][]float64, error) {
		return s.next.FetchHourlyProfile(ctx, scenarioID, f)
	})
}

func fetch[V any](ctx context.Context, s *Source, key string, load func() (V, error)) (V, error) {
	res, err, _ := s.group.Do(key, func() (any, error) {
		var v V
		b, ok, err := s.backend.Get(ctx, key)
		switch {
		case err != nil:
			s.errs.Add(1)
			s.logger.Warn("cache get failed", slog.String("key", key), slog.Any("error", err))
		case ok:
			if err := codec.Decode(b, &v); err == nil {
				s.hits.Add(1)
				return v, nil
			}
			s.errs.Add(1)
			s.logger.Warn("cache entry corrupt", slog.String("key", key))
		}
		s.misses.Add(1)

		v, err = load()
		if err != nil {
			return v, err
		}
		b, err = codec.Encode(v)
		if err == nil {
			err = s.backend.Set(ctx, key, b)
		}
		if err != nil {
			s.errs.Add(1)
			s.logger.Warn("cache set failed", slog.String("key", key), slog.Any("error", err))
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Stats returns the counters so far.
func (s *Source) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load(), Errors: s.errs.Load()}
}

func (s *Source) Close() error {
	return s.backend.Close()
}
