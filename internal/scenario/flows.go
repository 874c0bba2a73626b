package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/timeseries"
)

// CrossBorderFlows are scheduled hourly exchanges with neighbouring areas in
// MW, positive for imports into the area.
type CrossBorderFlows struct {
	byNeighbour map[string]*timeseries.Dense[[]float64]
	net         *timeseries.Dense[[]float64]
}

// LoadCrossBorderFlows loads one flow profile per neighbour. A neighbour
// without data is logged and contributes no flow.
func LoadCrossBorderFlows(ctx context.Context, src DataSource, req Request, neighbours []string) (*CrossBorderFlows, error) {
	cf := &CrossBorderFlows{byNeighbour: make(map[string]*timeseries.Dense[[]float64], len(neighbours))}
	for _, n := range neighbours {
		d, err := loadProfile(ctx, src, req, req.filter(DatasetCrossBorderFlow, n), timeseries.Flat)
		if errors.Is(err, ErrDataUnavailable) {
			req.logger().Warn("no cross-border flows, assuming none",
				slog.String("area", req.Area), slog.String("neighbour", n))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scenario: flows %s/%s: %w", req.Area, n, err)
		}
		cf.byNeighbour[n] = d
	}
	cf.net = timeseries.Generate(req.filter(DatasetCrossBorderFlow, "net").String(), req.FirstYear, req.LastYear,
		func(y int) []float64 {
			net := make([]float64, calendar.HoursPerYear)
			for _, d := range cf.byNeighbour {
				for h, v := range d.At(y) {
					net[h] += v
				}
			}
			return net
		})
	return cf, nil
}

// Hourly returns the flow from neighbour in hourOfYear, 0 for an unknown
// neighbour.
func (cf *CrossBorderFlows) Hourly(neighbour string, year, hourOfYear int) float64 {
	d, ok := cf.byNeighbour[neighbour]
	if !ok {
		return 0
	}
	return d.At(year)[hourOfYear]
}

// NetImport returns the summed flow over all neighbours.
func (cf *CrossBorderFlows) NetImport(year, hourOfYear int) float64 {
	return cf.net.At(year)[hourOfYear]
}

// NetProfile returns the yearly net import profile. It must not be modified.
func (cf *CrossBorderFlows) NetProfile(year int) []float64 {
	return cf.net.At(year)
}
