package market

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"dayahead-sim/internal/agent"
	"dayahead-sim/internal/auction"
	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/model"
	"dayahead-sim/internal/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func testScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	src := scenario.NewMemorySource()
	profile := make([]float64, calendar.HoursPerYear)
	for i := range profile {
		profile[i] = 500
	}
	gas := map[string]float64{"DE": 20, "FR": 30, "PL": 25}
	for _, area := range []string{"DE", "FR", "PL"} {
		src.PutProfile("s", scenario.Filter{Dataset: scenario.DatasetDemand, Area: area}, 2020, profile)
		src.PutYearly("s", scenario.Filter{Dataset: scenario.DatasetFuelPrice, Area: area, Key: "gas"}, 2020, gas[area])
		src.PutYearly("s", scenario.Filter{Dataset: scenario.DatasetCarbonPrice, Area: area}, 2020, 50)
	}
	sc, err := scenario.Load(context.Background(), src, scenario.Options{
		ScenarioID: "s",
		FirstYear:  2020,
		LastYear:   2022,
		Areas:      []scenario.AreaSpec{{Code: "DE"}, {Code: "FR"}, {Code: "PL"}},
		Fuels:      []string{"gas"},
	}, quiet())
	require.NoError(t, err)
	return sc
}

func testAgents(t *testing.T, areas ...string) map[string][]agent.Agent {
	t.Helper()
	out := make(map[string][]agent.Agent)
	for _, a := range areas {
		plant, err := model.NewThermal(a+"/ccgt", model.ThermalParams{Fuel: "gas", CapacityMW: 1000, Efficiency: 0.5, EmissionFactor: 0.2})
		require.NoError(t, err)
		out[a] = []agent.Agent{agent.NewDemand(a + "/load"), agent.NewThermal(a+"/thermal", plant)}
	}
	return out
}

func TestEngineRun(t *testing.T) {
	sc := testScenario(t)
	var mu sync.Mutex
	var coupled []string
	e, err := New(sc, testAgents(t, "DE", "FR"), Options{
		FirstYear:   2020,
		LastYear:    2021,
		DaysPerYear: 2,
		Groups:      map[string]string{"DE": "cwe", "FR": "cwe"},
		Coupler: func(group string) auction.Coupler {
			mu.Lock()
			coupled = append(coupled, group)
			mu.Unlock()
			return nil
		},
		KeepUnits: true,
	}, quiet())
	require.NoError(t, err)

	res, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"cwe", "PL"}, coupled)
	require.Len(t, res.Ledger, 2*2*2*calendar.HoursPerDay)
	first := res.Ledger[0]
	assert.Equal(t, "DE", first.Area)
	assert.Equal(t, 2020, first.Year)
	assert.Equal(t, 0, first.Hour)
	assert.Equal(t, 60.0, first.Price)
	assert.Equal(t, 500.0, first.Supply)
	assert.Equal(t, "DE/ccgt#25", first.MarginalBid)
	last := res.Ledger[len(res.Ledger)-1]
	assert.Equal(t, "FR", last.Area)
	assert.Equal(t, 2021, last.Year)
	assert.Equal(t, 1, last.Day)
	assert.Equal(t, 47, last.HourOfYear)

	assert.Equal(t, []float64{80}, uniq(res.Prices("FR")))

	de, ok := res.Area("DE")
	require.True(t, ok)
	assert.Equal(t, 96, de.Hours)
	assert.Equal(t, 60.0, de.MeanPrice)
	assert.Equal(t, 96*500.0, de.TradedMWh)
	assert.Zero(t, de.ImbalancedHours)
	require.Len(t, de.Units, 2)
	assert.Equal(t, agent.KindDemand, de.Units[0].Kind)

	pl, ok := res.Area("PL")
	require.True(t, ok)
	assert.Equal(t, 4, pl.SkippedDays)
	assert.Zero(t, pl.Hours)

	// two units per area and hour
	assert.Len(t, res.Units, 2*len(res.Ledger))
}

func uniq(v []float64) []float64 {
	var out []float64
	seen := map[float64]bool{}
	for _, x := range v {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}

func TestEngineIsDeterministic(t *testing.T) {
	run := func() *Result {
		e, err := New(testScenario(t), testAgents(t, "DE", "FR", "PL"), Options{DaysPerYear: 1}, quiet())
		require.NoError(t, err)
		res, err := e.Run(context.Background())
		require.NoError(t, err)
		return res
	}
	assert.Equal(t, run().Ledger, run().Ledger)
}

func TestNewValidates(t *testing.T) {
	sc := testScenario(t)
	_, err := New(sc, nil, Options{FirstYear: 2019}, quiet())
	assert.Error(t, err)
	_, err = New(sc, nil, Options{DaysPerYear: 366}, quiet())
	assert.Error(t, err)
	_, err = New(sc, testAgents(t, "XX"), Options{}, quiet())
	assert.Error(t, err)
	_, err = New(nil, nil, Options{}, quiet())
	assert.Error(t, err)

	e, err := New(sc, nil, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2020, e.opts.FirstYear)
	assert.Equal(t, 2022, e.opts.LastYear)
	assert.Equal(t, calendar.DaysPerYear, e.opts.DaysPerYear)
}

func TestEngineStopsOnCancel(t *testing.T) {
	e, err := New(testScenario(t), testAgents(t, "DE"), Options{}, quiet())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteLedgerCSV(t *testing.T) {
	e, err := New(testScenario(t), testAgents(t, "DE"), Options{DaysPerYear: 1, LastYear: 2020, KeepUnits: true}, quiet())
	require.NoError(t, err)
	res, err := e.Run(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.csv")
	require.NoError(t, WriteLedgerCSV(path, res.Ledger))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+calendar.HoursPerDay)
	assert.Equal(t, "area", records[0][0])
	assert.Equal(t, "DE", records[1][0])
	assert.Equal(t, "60.000000", records[1][5])
	assert.Equal(t, "false", records[1][11])

	units := filepath.Join(dir, "units.csv")
	require.NoError(t, WriteUnitsCSV(units, res.Units))
	raw, err := os.ReadFile(units)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "GENERATING")
}
