package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/scenario"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var gas = scenario.Filter{Dataset: scenario.DatasetFuelPrice, Area: "DE", Key: "gas"}

// countingSource counts calls reaching the wrapped source and can hold them
// until release is closed.
type countingSource struct {
	next    scenario.DataSource
	calls   atomic.Int64
	release chan struct{}
}

func (c *countingSource) FetchYearlySamples(ctx context.Context, id string, f scenario.Filter) (map[int]float64, error) {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	return c.next.FetchYearlySamples(ctx, id, f)
}

func (c *countingSource) FetchHourlyProfile(ctx context.Context, id string, f scenario.Filter) (map[int][]float64, error) {
	c.calls.Add(1)
	return c.next.FetchHourlyProfile(ctx, id, f)
}

func seeded() *countingSource {
	m := scenario.NewMemorySource()
	m.PutYearly("base", gas, 2020, 20)
	m.PutYearly("base", gas, 2030, 40)
	p := make([]float64, calendar.HoursPerYear)
	p[5] = 7
	m.PutProfile("base", scenario.Filter{Dataset: scenario.DatasetDemand, Area: "DE"}, 2020, p)
	return &countingSource{next: m}
}

func TestHitAfterMiss(t *testing.T) {
	next := seeded()
	mem := NewMemory(time.Minute, 0)
	s := New(next, mem, quiet())
	ctx := context.Background()

	for range 3 {
		got, err := s.FetchYearlySamples(ctx, "base", gas)
		require.NoError(t, err)
		assert.Equal(t, map[int]float64{2020: 20, 2030: 40}, got)
	}
	prof, err := s.FetchHourlyProfile(ctx, "base", scenario.Filter{Dataset: scenario.DatasetDemand, Area: "DE"})
	require.NoError(t, err)
	assert.Equal(t, 7.0, prof[2020][5])

	assert.Equal(t, int64(2), next.calls.Load())
	assert.Equal(t, Stats{Hits: 2, Misses: 2}, s.Stats())
	assert.Equal(t, 2, mem.Len())
}

func TestCallerCannotCorruptCache(t *testing.T) {
	s := New(seeded(), NewMemory(time.Minute, 0), quiet())
	got, err := s.FetchYearlySamples(context.Background(), "base", gas)
	require.NoError(t, err)
	got[2020] = -1

	again, err := s.FetchYearlySamples(context.Background(), "base", gas)
	require.NoError(t, err)
	assert.Equal(t, 20.0, again[2020])
}

func TestUnavailableIsNotCached(t *testing.T) {
	next := seeded()
	mem := NewMemory(time.Minute, 0)
	s := New(next, mem, quiet())
	missing := scenario.Filter{Dataset: scenario.DatasetFuelPrice, Area: "FR", Key: "gas"}

	for range 2 {
		_, err := s.FetchYearlySamples(context.Background(), "base", missing)
		assert.ErrorIs(t, err, scenario.ErrDataUnavailable)
	}
	assert.Equal(t, int64(2), next.calls.Load())
	assert.Zero(t, mem.Len())
}

func TestConcurrentMissesShareOneFetch(t *testing.T) {
	next := seeded()
	next.release = make(chan struct{})
	s := New(next, NewMemory(time.Minute, 0), quiet())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.FetchYearlySamples(context.Background(), "base", gas)
			assert.NoError(t, err)
			assert.Len(t, got, 2)
		}()
	}
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(next.release)
	wg.Wait()

	assert.Equal(t, int64(1), next.calls.Load())
}

func TestMemoryExpiry(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	mem := NewMemory(time.Minute, 0)
	mem.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, "k", []byte("v")))
	_, ok, _ := mem.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = mem.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 1, mem.Len())
	mem.sweep()
	assert.Zero(t, mem.Len())
	require.NoError(t, mem.Close())
	require.NoError(t, mem.Close())
}

type brokenBackend struct{}

func (brokenBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}
func (brokenBackend) Set(context.Context, string, []byte) error { return errors.New("down") }
func (brokenBackend) Close() error                              { return nil }

func TestBackendFailureFallsThrough(t *testing.T) {
	next := seeded()
	s := New(next, brokenBackend{}, quiet())
	got, err := s.FetchYearlySamples(context.Background(), "base", gas)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, Stats{Misses: 1, Errors: 2}, s.Stats())
}

func TestKeyIsStable(t *testing.T) {
	a := Key("yearly", "base", gas)
	assert.Equal(t, a, Key("yearly", "base", gas))
	assert.NotEqual(t, a, Key("hourly", "base", gas))
	assert.NotEqual(t, a, Key("yearly", "base", scenario.Filter{Dataset: gas.Dataset, Area: "DEg", Key: "as"}))
	assert.Len(t, a, 64)
}
