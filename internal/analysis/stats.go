package analysis

import (
	"math"
	"sort"
)

// PriceStats summarises the clearing prices of one area. StorageValue is the
// best profit of a canonical storage unit on those prices and can be used
// for ranking without picking a specific unit size.
type PriceStats struct {
	Area string `json:"area"`

	Count int `json:"count"`

	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	P05  float64 `json:"p05"`
	P95  float64 `json:"p95"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`

	// StorageValue is the profit (EUR) of:
	// - 1 MW power, 1 MWh energy
	// - 100% efficiency, no degradation
	// - SOC bounds [0,1], initial SOC 0.5
	// - dispatch choices {-1, -0.5, 0, +0.5, +1} MW each hour
	StorageValue float64 `json:"storage_value"`
}

// ComputeStats summarises hourly prices in time order.
func ComputeStats(area string, prices []float64) PriceStats {
	s := PriceStats{Area: area}
	if len(prices) == 0 {
		return s
	}
	s.Count = len(prices)

	sum := 0.0
	s.Min = math.Inf(1)
	s.Max = math.Inf(-1)
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	for _, v := range prices {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	sort.Float64s(sorted)
	s.Mean = sum / float64(len(prices))
	s.P05 = percentileSorted(sorted, 0.05)
	s.P95 = percentileSorted(sorted, 0.95)
	s.SpreadP95P05 = s.P95 - s.P05

	s.StorageValue = storageValueCanonical(prices)
	return s
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// storageValueCanonical computes an upper bound with a DP on a SOC grid of
// 0.5 MWh cells, so the half-full start state is exact.
func storageValueCanonical(prices []float64) float64 {
	const (
		cells = 2 // 1 MWh in 0.5 MWh cells
		step  = 0.5
	)
	negInf := math.Inf(-1)
	dp := make([]float64, cells+1)
	next := make([]float64, cells+1)
	for i := range dp {
		dp[i] = negInf
	}
	dp[1] = 0

	for _, price := range prices {
		for i := range next {
			next[i] = negInf
		}
		for soc := 0; soc <= cells; soc++ {
			if math.IsInf(dp[soc], -1) {
				continue
			}
			// move is the SOC change in cells; charging costs, discharging earns.
			for move := -cells; move <= cells; move++ {
				to := soc + move
				if to < 0 || to > cells {
					continue
				}
				v := dp[soc] - float64(move)*step*price
				if v > next[to] {
					next[to] = v
				}
			}
		}
		dp, next = next, dp
	}

	best := negInf
	for _, v := range dp {
		best = math.Max(best, v)
	}
	return best
}
