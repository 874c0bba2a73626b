package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	prices := []float64{10, 20, 30, 40, 50}
	s := ComputeStats("DE", prices)

	assert.Equal(t, "DE", s.Area)
	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 50.0, s.Max)
	assert.Equal(t, 30.0, s.Mean)
	assert.InDelta(t, 12.0, s.P05, 1e-9)
	assert.InDelta(t, 48.0, s.P95, 1e-9)
	assert.InDelta(t, 36.0, s.SpreadP95P05, 1e-9)
	// input order is untouched
	assert.Equal(t, []float64{10, 20, 30, 40, 50}, prices)
}

func TestComputeStatsEmpty(t *testing.T) {
	s := ComputeStats("FR", nil)
	assert.Zero(t, s.Count)
	assert.Zero(t, s.StorageValue)
}

func TestStorageValue(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   float64
	}{
		// sell the initial half MWh at 100
		{"flat", []float64{100, 100}, 50},
		// buy half at 0, then sell the full MWh at 100
		{"cheap then dear", []float64{0, 100}, 100},
		// sell half at 100, buy 1 MWh at -50, sell it at 100
		{"negative price", []float64{100, -50, 100}, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, storageValueCanonical(tt.prices), 1e-9)
		})
	}
}

func TestRanking(t *testing.T) {
	byArea := map[string][]float64{
		"DE": {10, 100, 10, 100},
		"FR": {50, 50, 50, 50},
		"PL": {0, 200, 0, 200},
	}
	ranked := RankByStorageValue(byArea)
	assert.Equal(t, []string{"PL", "DE", "FR"}, areas(ranked))

	spread := RankBySpread(byArea)
	assert.Equal(t, []string{"PL", "DE", "FR"}, areas(spread))
	assert.Zero(t, spread[2].SpreadP95P05)
}

func areas(stats []PriceStats) []string {
	out := make([]string, len(stats))
	for i, s := range stats {
		out[i] = s.Area
	}
	return out
}
