package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"dayahead-sim/internal/timeseries"
)

// FuelPrices holds one yearly price series per fuel in EUR/MWh thermal.
type FuelPrices struct {
	prices map[string]*timeseries.Dense[float64]
}

// LoadFuelPrices loads every fuel in fuels. Every listed fuel is used by at
// least one plant, so a fuel without samples fails the load.
func LoadFuelPrices(ctx context.Context, src DataSource, req Request, fuels []string) (*FuelPrices, error) {
	fp := &FuelPrices{prices: make(map[string]*timeseries.Dense[float64], len(fuels))}
	var missing []string
	for _, fuel := range fuels {
		d, err := loadScalar(ctx, src, req, req.filter(DatasetFuelPrice, fuel), timeseries.Flat)
		if errors.Is(err, ErrDataUnavailable) {
			missing = append(missing, fuel)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scenario: fuel price %s/%s: %w", req.Area, fuel, err)
		}
		fp.prices[fuel] = d
	}
	if len(missing) > 0 {
		return fp, fmt.Errorf("scenario: fuel prices %s missing %v: %w", req.Area, missing, ErrDataUnavailable)
	}
	return fp, nil
}

// Series returns the dense price series of fuel. Consumers resolve it once
// and read it per hour.
func (fp *FuelPrices) Series(fuel string) (*timeseries.Dense[float64], bool) {
	d, ok := fp.prices[fuel]
	return d, ok
}

// Price returns the price of fuel in year, or false for an unknown fuel.
func (fp *FuelPrices) Price(fuel string, year int) (float64, bool) {
	d, ok := fp.prices[fuel]
	if !ok {
		return 0, false
	}
	return d.At(year), true
}

// Fuels lists the loaded fuels in name order.
func (fp *FuelPrices) Fuels() []string {
	out := make([]string, 0, len(fp.prices))
	for f := range fp.prices {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
