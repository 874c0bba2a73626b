// Package timeseries reconstructs dense yearly series from sparse samples.
//
// A Store is filled during the load phase and frozen into a Dense series
// covering the whole simulation horizon. Internal gaps are interpolated
// linearly; years outside the sampled range follow the store's Policy.
package timeseries

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Store is the mutable builder for one series. Ingest may be called from
// several goroutines; after the first Freeze the store rejects new samples.
type Store[T any] struct {
	name   string
	kind   Kind[T]
	logger *slog.Logger

	mu      sync.Mutex
	samples map[int]T
	frozen  bool
	warned  bool
}

// NewStore returns an empty store using kind for its arithmetic.
func NewStore[T any](name string, kind Kind[T], logger *slog.Logger) *Store[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store[T]{
		name:    name,
		kind:    kind,
		logger:  logger.With(slog.String("series", name)),
		samples: make(map[int]T),
	}
}

// NewScalarStore returns a store of yearly scalar samples.
func NewScalarStore(name string, logger *slog.Logger) *Store[float64] {
	return NewStore[float64](name, Scalar{}, logger)
}

// NewProfileStore returns a store of yearly hourly profiles.
func NewProfileStore(name string, logger *slog.Logger) *Store[[]float64] {
	return NewStore[[]float64](name, Profile{}, logger)
}

func (s *Store[T]) Name() string { return s.name }

// Ingest records the sample for year. A second sample for the same year
// replaces the first.
func (s *Store[T]) Ingest(year int, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return fmt.Errorf("timeseries: %s: ingest %d: %w", s.name, year, ErrAlreadyFrozen)
	}
	s.samples[year] = s.kind.Clone(v)
	return nil
}

// IngestAll records every sample in m.
func (s *Store[T]) IngestAll(m map[int]T) error {
	for year, v := range m {
		if err := s.Ingest(year, v); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of sampled years.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

// Frozen reports whether Freeze has succeeded on this store.
func (s *Store[T]) Frozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frozen
}

// Freeze materialises every year in [first, last] and moves the store to
// the frozen state. It may be called again on a frozen store; identical
// arguments produce identical series.
func (s *Store[T]) Freeze(first, last int, policy Policy) (*Dense[T], error) {
	if last < first {
		return nil, fmt.Errorf("timeseries: %s: %w: [%d, %d]", s.name, ErrInvalidRange, first, last)
	}
	if policy != Flat && policy != LinearTrendFloored {
		return nil, fmt.Errorf("timeseries: %s: %w", s.name, ErrUnknownPolicy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.samples) == 0 {
		return nil, fmt.Errorf("timeseries: %s: %w", s.name, ErrEmptySeries)
	}

	years := make([]int, 0, len(s.samples))
	for y, v := range s.samples {
		if err := s.kind.Check(v); err != nil {
			return nil, fmt.Errorf("timeseries: %s: year %d: %w", s.name, y, err)
		}
		years = append(years, y)
	}
	sort.Ints(years)

	values := make([]T, 0, last-first+1)
	for y := first; y <= last; y++ {
		values = append(values, s.resolve(y, years, policy))
	}
	s.frozen = true

	return &Dense[T]{name: s.name, first: first, values: values}, nil
}

// resolve computes the value for year y from the sorted sample years.
// Caller holds s.mu.
func (s *Store[T]) resolve(y int, years []int, policy Policy) T {
	minS, maxS := years[0], years[len(years)-1]

	if len(years) == 1 || y <= minS {
		if y != minS {
			s.warnOnce("extrapolating from first sample",
				slog.Int("year", y), slog.Int("first_sample", minS), slog.Int("samples", len(years)))
		}
		return s.kind.Clone(s.samples[minS])
	}

	if y >= maxS {
		vMax := s.samples[maxS]
		if y == maxS || policy == Flat {
			return s.kind.Clone(vMax)
		}
		yA := years[len(years)-2]
		v := s.kind.Lerp(s.samples[yA], vMax, float64(y-yA), float64(maxS-yA))
		return s.kind.AtLeast(v, vMax)
	}

	// minS < y < maxS, so i is in [1, len(years)-1].
	i := sort.SearchInts(years, y)
	if years[i] == y {
		return s.kind.Clone(s.samples[y])
	}
	y1, y2 := years[i-1], years[i]
	return s.kind.Lerp(s.samples[y1], s.samples[y2], float64(y-y1), float64(y2-y1))
}

func (s *Store[T]) warnOnce(msg string, attrs ...any) {
	if s.warned {
		return
	}
	s.warned = true
	s.logger.Warn(msg, attrs...)
}
