// Package scenario loads the input data of a simulation run and exposes it
// as frozen, read-only series per market area.
//
// Every dataset adapter owns one or more timeseries stores and chooses the
// extrapolation policy for them. A Scenario is the run context: it is built
// once by Load and passed explicitly to every consumer.
package scenario

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Area bundles the datasets of one market area.
type Area struct {
	Code       string
	Demand     *Demand
	Fuels      *FuelPrices
	Carbon     *CarbonPrices
	Flows      *CrossBorderFlows
	Renewables *RenewableManager
}

// ResidualDemand is the demand left for dispatchable plants after
// renewable infeed and net imports, floored at 0.
func (a *Area) ResidualDemand(year, hourOfYear int) float64 {
	r := a.Demand.Hourly(year, hourOfYear)
	if a.Renewables != nil {
		r -= a.Renewables.TotalLoad(year, hourOfYear)
	}
	if a.Flows != nil {
		r -= a.Flows.NetImport(year, hourOfYear)
	}
	return math.Max(0, r)
}

// Scenario is the frozen input of one simulation run.
type Scenario struct {
	ID        string
	FirstYear int
	LastYear  int

	areas           map[string]*Area
	order           []string
	Interconnectors *InterconnectorCapacity
}

// Area returns the area with code.
func (s *Scenario) Area(code string) (*Area, bool) {
	a, ok := s.areas[code]
	return a, ok
}

// Areas returns all areas sorted by code.
func (s *Scenario) Areas() []*Area {
	out := make([]*Area, 0, len(s.order))
	for _, c := range s.order {
		out = append(out, s.areas[c])
	}
	return out
}

// CoversYear reports whether year lies inside the simulation horizon.
func (s *Scenario) CoversYear(year int) bool {
	return year >= s.FirstYear && year <= s.LastYear
}

func newScenario(id string, first, last int, areas map[string]*Area) *Scenario {
	order := make([]string, 0, len(areas))
	for c := range areas {
		order = append(order, c)
	}
	sort.Strings(order)
	return &Scenario{ID: id, FirstYear: first, LastYear: last, areas: areas, order: order}
}

// Values returns the reconstructed values of one dataset for year. Yearly
// datasets yield one value, hourly datasets a copy of the profile.
func (a *Area) Values(dataset, key string, year int) ([]float64, error) {
	switch dataset {
	case DatasetDemand:
		return clone(a.Demand.Profile(year)), nil
	case DatasetFuelPrice:
		if v, ok := a.Fuels.Price(key, year); ok {
			return []float64{v}, nil
		}
	case DatasetCarbonPrice:
		return []float64{a.Carbon.Price(year)}, nil
	case DatasetCrossBorderFlow:
		if key == "" || key == "net" {
			return clone(a.Flows.NetProfile(year)), nil
		}
		if d, ok := a.Flows.byNeighbour[key]; ok {
			return clone(d.At(year)), nil
		}
	case DatasetRenewableCapacity:
		if _, ok := a.Renewables.byType[key]; ok {
			return []float64{a.Renewables.Capacity(key, year)}, nil
		}
	case DatasetRenewableFullLoadHours:
		if r, ok := a.Renewables.byType[key]; ok {
			return []float64{r.fullLoadHours.At(year)}, nil
		}
	case DatasetRenewableUtilisation:
		if r, ok := a.Renewables.byType[key]; ok {
			return []float64{r.utilisation.At(year)}, nil
		}
	case DatasetRenewableProfile:
		if key == "" || key == "total" {
			return clone(a.Renewables.TotalProfile(year)), nil
		}
		if r, ok := a.Renewables.byType[key]; ok {
			out := make([]float64, len(r.profile.At(year)))
			for h := range out {
				out[h] = r.load(year, h)
			}
			return out, nil
		}
	case DatasetInterconnectorCapacity:
		return nil, fmt.Errorf("scenario: %s is keyed by link, read it through Scenario.Values", dataset)
	default:
		return nil, unknownDataset(dataset)
	}
	return nil, fmt.Errorf("scenario: %s/%s/%s: %w", dataset, a.Code, key, ErrDataUnavailable)
}

// Values returns the values of one dataset of area for year, including
// interconnector capacities, which are keyed by the target area.
func (s *Scenario) Values(area, dataset, key string, year int) ([]float64, error) {
	if !s.CoversYear(year) {
		return nil, fmt.Errorf("scenario: year %d outside [%d, %d]", year, s.FirstYear, s.LastYear)
	}
	a, ok := s.Area(area)
	if !ok {
		return nil, fmt.Errorf("scenario: area %s: %w", area, ErrDataUnavailable)
	}
	if dataset != DatasetInterconnectorCapacity {
		return a.Values(dataset, key, year)
	}
	if s.Interconnectors != nil {
		if d, ok := s.Interconnectors.caps[Link{From: area, To: key}]; ok {
			return []float64{d.At(year)}, nil
		}
	}
	return nil, fmt.Errorf("scenario: %s/%s/%s: %w", dataset, area, key, ErrDataUnavailable)
}

// Datasets lists every dataset name Values understands.
var Datasets = []string{
	DatasetDemand,
	DatasetFuelPrice,
	DatasetCarbonPrice,
	DatasetCrossBorderFlow,
	DatasetRenewableCapacity,
	DatasetRenewableFullLoadHours,
	DatasetRenewableUtilisation,
	DatasetRenewableProfile,
	DatasetInterconnectorCapacity,
}

func unknownDataset(name string) error {
	return fmt.Errorf("scenario: unknown dataset %q, want one of %s", name, strings.Join(Datasets, ", "))
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
