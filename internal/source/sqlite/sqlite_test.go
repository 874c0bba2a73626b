package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/scenario"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func openTestDB(t *testing.T) *Source {
	t.Helper()
	s, err := Open(":memory:", quiet())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func flat(v float64) []float64 {
	p := make([]float64, calendar.HoursPerYear)
	for i := range p {
		p[i] = v
	}
	return p
}

func seed() *scenario.MemorySource {
	m := scenario.NewMemorySource()
	demand := scenario.Filter{Dataset: scenario.DatasetDemand, Area: "DE"}
	m.PutProfile("base", demand, 2020, flat(1000))
	m.PutProfile("base", demand, 2030, flat(1200))
	m.PutYearly("base", scenario.Filter{Dataset: scenario.DatasetFuelPrice, Area: "DE", Key: "gas"}, 2020, 20)
	m.PutYearly("base", scenario.Filter{Dataset: scenario.DatasetFuelPrice, Area: "DE", Key: "gas"}, 2030, 40)
	m.PutYearly("high", scenario.Filter{Dataset: scenario.DatasetCarbonPrice, Area: "DE"}, 2020, 90)
	return m
}

func TestImportAndFetch(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	n, err := s.Import(ctx, seed())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	gas, err := s.FetchYearlySamples(ctx, "base", scenario.Filter{Dataset: scenario.DatasetFuelPrice, Area: "DE", Key: "gas"})
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{2020: 20, 2030: 40}, gas)

	demand, err := s.FetchHourlyProfile(ctx, "base", scenario.Filter{Dataset: scenario.DatasetDemand, Area: "DE"})
	require.NoError(t, err)
	require.Len(t, demand, 2)
	assert.Equal(t, 1200.0, demand[2030][100])

	ids, err := s.Scenarios(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "high"}, ids)
}

func TestMissingSeriesIsUnavailable(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	_, err := s.FetchYearlySamples(ctx, "base", scenario.Filter{Dataset: scenario.DatasetFuelPrice, Area: "FR", Key: "gas"})
	assert.ErrorIs(t, err, scenario.ErrDataUnavailable)
	_, err = s.FetchHourlyProfile(ctx, "base", scenario.Filter{Dataset: scenario.DatasetDemand, Area: "FR"})
	assert.ErrorIs(t, err, scenario.ErrDataUnavailable)
}

func TestImportReplacesRows(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	_, err := s.Import(ctx, seed())
	require.NoError(t, err)

	m := scenario.NewMemorySource()
	gas := scenario.Filter{Dataset: scenario.DatasetFuelPrice, Area: "DE", Key: "gas"}
	m.PutYearly("base", gas, 2020, 25)
	_, err = s.Import(ctx, m)
	require.NoError(t, err)

	got, err := s.FetchYearlySamples(ctx, "base", gas)
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{2020: 25, 2030: 40}, got)
}

func TestImportRejectsShortProfile(t *testing.T) {
	s := openTestDB(t)
	m := scenario.NewMemorySource()
	m.PutProfile("base", scenario.Filter{Dataset: scenario.DatasetDemand, Area: "DE"}, 2020, []float64{1, 2, 3})
	_, err := s.Import(context.Background(), m)
	assert.Error(t, err)

	_, err = s.FetchHourlyProfile(context.Background(), "base", scenario.Filter{Dataset: scenario.DatasetDemand, Area: "DE"})
	assert.ErrorIs(t, err, scenario.ErrDataUnavailable, "failed import is rolled back")
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.db")
	s, err := Open(path, quiet())
	require.NoError(t, err)
	_, err = s.Import(context.Background(), seed())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, quiet())
	require.NoError(t, err)
	defer s.Close()
	ids, err := s.Scenarios(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "high"}, ids)
}

func TestLoadScenarioFromSQLite(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	_, err := s.Import(ctx, seed())
	require.NoError(t, err)

	sc, err := scenario.Load(ctx, s, scenario.Options{
		ScenarioID: "base",
		FirstYear:  2020,
		LastYear:   2030,
		Areas:      []scenario.AreaSpec{{Code: "DE"}},
		Fuels:      []string{"gas"},
	}, quiet())
	require.NoError(t, err)
	de, ok := sc.Area("DE")
	require.True(t, ok)
	assert.InDelta(t, 1100.0, de.Demand.Hourly(2025, 0), 1e-9)
	gas, ok := de.Fuels.Price("gas", 2025)
	require.True(t, ok)
	assert.InDelta(t, 30.0, gas, 1e-9)
}
