package analysis

import "sort"

// RankByStorageValue computes stats per area and sorts them by storage
// value, then by spread, descending.
func RankByStorageValue(pricesByArea map[string][]float64) []PriceStats {
	out := make([]PriceStats, 0, len(pricesByArea))
	for area, prices := range pricesByArea {
		out = append(out, ComputeStats(area, prices))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StorageValue != out[j].StorageValue {
			return out[i].StorageValue > out[j].StorageValue
		}
		if out[i].SpreadP95P05 != out[j].SpreadP95P05 {
			return out[i].SpreadP95P05 > out[j].SpreadP95P05
		}
		return out[i].Area < out[j].Area
	})
	return out
}

// RankBySpread sorts by the P95-P05 price spread, descending.
func RankBySpread(pricesByArea map[string][]float64) []PriceStats {
	out := make([]PriceStats, 0, len(pricesByArea))
	for area, prices := range pricesByArea {
		out = append(out, ComputeStats(area, prices))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SpreadP95P05 != out[j].SpreadP95P05 {
			return out[i].SpreadP95P05 > out[j].SpreadP95P05
		}
		return out[i].Area < out[j].Area
	})
	return out
}
