package scenario

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable means the source holds no samples for a filter.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrRequiredSeriesEmpty aborts a run: a series every consumer needs
	// could not be loaded at all.
	ErrRequiredSeriesEmpty = errors.New("required series empty")
)

// Dataset names understood by every DataSource.
const (
	DatasetDemand                 = "demand"
	DatasetFuelPrice              = "fuel_price"
	DatasetCarbonPrice            = "carbon_price"
	DatasetCrossBorderFlow        = "cross_border_flow"
	DatasetRenewableCapacity      = "renewable_capacity"
	DatasetRenewableFullLoadHours = "renewable_full_load_hours"
	DatasetRenewableUtilisation   = "renewable_utilisation"
	DatasetRenewableProfile       = "renewable_profile"
	DatasetInterconnectorCapacity = "interconnector_capacity"
)

// Filter selects one series inside a scenario. Key narrows the dataset to a
// fuel, neighbouring area, renewable type or interconnector target; it is
// empty for datasets with one series per area.
type Filter struct {
	Dataset string
	Area    string
	Key     string
}

func (f Filter) String() string {
	if f.Key == "" {
		return fmt.Sprintf("%s/%s", f.Dataset, f.Area)
	}
	return fmt.Sprintf("%s/%s/%s", f.Dataset, f.Area, f.Key)
}

// DataSource retrieves raw scenario samples. Implementations return an error
// wrapping ErrDataUnavailable when nothing matches the filter.
type DataSource interface {
	FetchYearlySamples(ctx context.Context, scenarioID string, f Filter) (map[int]float64, error)
	FetchHourlyProfile(ctx context.Context, scenarioID string, f Filter) (map[int][]float64, error)
}
