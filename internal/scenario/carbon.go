package scenario

import (
	"context"
	"fmt"

	"dayahead-sim/internal/timeseries"
)

// DefaultCarbonMarketStart is the first year with a carbon price.
const DefaultCarbonMarketStart = 2005

// CarbonPrices is the yearly carbon price in EUR/t. Years before the
// market start are 0; later gaps are reconstructed like any other series.
type CarbonPrices struct {
	prices      *timeseries.Dense[float64]
	marketStart int
}

// LoadCarbonPrices loads the carbon price of req.Area. Samples dated before
// marketStart are ignored.
func LoadCarbonPrices(ctx context.Context, src DataSource, req Request, marketStart int) (*CarbonPrices, error) {
	f := req.filter(DatasetCarbonPrice, "")
	samples, err := src.FetchYearlySamples(ctx, req.ScenarioID, f)
	if err != nil {
		return nil, fmt.Errorf("scenario: carbon price %s: %w", req.Area, err)
	}
	for y := range samples {
		if y < marketStart {
			delete(samples, y)
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("scenario: carbon price %s: no samples from %d: %w", req.Area, marketStart, ErrDataUnavailable)
	}
	d, err := freezeScalar(req, f, samples, timeseries.Flat)
	if err != nil {
		return nil, fmt.Errorf("scenario: carbon price %s: %w", req.Area, err)
	}
	prices := timeseries.Map(d.Name(), d, func(y int, v float64) float64 {
		if y < marketStart {
			return 0
		}
		return v
	})
	return &CarbonPrices{prices: prices, marketStart: marketStart}, nil
}

// NoCarbonMarket is the fallback for an area without carbon price data.
func NoCarbonMarket(req Request) *CarbonPrices {
	return &CarbonPrices{
		prices:      timeseries.Constant(req.filter(DatasetCarbonPrice, "").String(), req.FirstYear, req.LastYear, 0.0),
		marketStart: req.LastYear + 1,
	}
}

// Price returns the carbon price of year.
func (c *CarbonPrices) Price(year int) float64 {
	return c.prices.At(year)
}

// Series returns the underlying dense series.
func (c *CarbonPrices) Series() *timeseries.Dense[float64] { return c.prices }

func (c *CarbonPrices) MarketStart() int { return c.marketStart }
