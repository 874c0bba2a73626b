package main

import (
	"context"
	"testing"

	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/logging"
	"dayahead-sim/internal/scenario"
	"dayahead-sim/internal/simulation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesValues(t *testing.T) {
	cfg, areas := simulation.DemoConfig()
	src := simulation.Synthetic(cfg.ScenarioID, cfg.FirstYear, cfg.LastYear, areas)
	sc, err := scenario.Load(context.Background(), src, cfg.ScenarioOptions(), logging.Discard())
	require.NoError(t, err)

	v, err := seriesValues(sc, "DE", scenario.DatasetDemand, "", 2027)
	require.NoError(t, err)
	assert.Len(t, v, calendar.HoursPerYear)

	v, err = seriesValues(sc, "DE", scenario.DatasetInterconnectorCapacity, "FR", 2027)
	require.NoError(t, err)
	assert.Len(t, v, 1)

	for _, year := range []int{1990, 2031} {
		_, err = seriesValues(sc, "DE", scenario.DatasetDemand, "", year)
		assert.ErrorContains(t, err, "outside the scenario horizon")
	}

	_, err = seriesValues(sc, "XX", scenario.DatasetDemand, "", 2027)
	assert.Error(t, err)
}
