package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/scenario"
)

const doc = `
scenarios:
  base:
    datasets:
      - dataset: demand
        area: DE
        profiles:
          2020: {daily: [1,1,1,1,1,1,2,2,2,2,2,2,2,2,2,2,2,2,1,1,1,1,1,1], scale: 500}
          2030: {constant: 800}
      - dataset: fuel_price
        area: DE
        key: gas
        yearly: {2020: 20, 2030: 35}
`

func TestDecodeYAML(t *testing.T) {
	src, err := Decode(strings.NewReader(doc), false)
	require.NoError(t, err)
	ctx := context.Background()

	fuel, err := src.FetchYearlySamples(ctx, "base", scenario.Filter{Dataset: scenario.DatasetFuelPrice, Area: "DE", Key: "gas"})
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{2020: 20, 2030: 35}, fuel)

	profiles, err := src.FetchHourlyProfile(ctx, "base", scenario.Filter{Dataset: scenario.DatasetDemand, Area: "DE"})
	require.NoError(t, err)
	require.Len(t, profiles[2020], calendar.HoursPerYear)
	assert.Equal(t, 500.0, profiles[2020][0])
	assert.Equal(t, 1000.0, profiles[2020][calendar.HoursPerDay+6])
	assert.Equal(t, 800.0, profiles[2030][calendar.HoursPerYear-1])

	_, err = src.FetchYearlySamples(ctx, "other", scenario.Filter{Dataset: scenario.DatasetFuelPrice, Area: "DE", Key: "gas"})
	assert.ErrorIs(t, err, scenario.ErrDataUnavailable)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.json")
	body := `{"scenarios":{"s":{"datasets":[{"dataset":"carbon_price","area":"FR","yearly":{"2025":80}}]}}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	src, err := Load(path)
	require.NoError(t, err)
	got, err := src.FetchYearlySamples(context.Background(), "s", scenario.Filter{Dataset: scenario.DatasetCarbonPrice, Area: "FR"})
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{2025: 80}, got)
}

func TestDecodeRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"short profile":   "scenarios: {s: {datasets: [{dataset: demand, area: DE, profiles: {2020: {values: [1, 2]}}}]}}",
		"short day":       "scenarios: {s: {datasets: [{dataset: demand, area: DE, profiles: {2020: {daily: [1]}}}]}}",
		"empty profile":   "scenarios: {s: {datasets: [{dataset: demand, area: DE, profiles: {2020: {}}}]}}",
		"missing area":    "scenarios: {s: {datasets: [{dataset: demand, yearly: {2020: 1}}]}}",
		"malformed input": "scenarios: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(body), false)
			assert.Error(t, err)
		})
	}
}

func TestDecodeEmptyDocument(t *testing.T) {
	src, err := Decode(strings.NewReader(""), false)
	require.NoError(t, err)
	count := 0
	require.NoError(t, src.Entries(func(string, scenario.Filter, map[int]float64, map[int][]float64) error {
		count++
		return nil
	}))
	assert.Zero(t, count)
}
