package scenario

import (
	"context"
	"fmt"

	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/timeseries"
)

// Demand is the hourly electricity demand of one area in MW.
type Demand struct {
	profiles *timeseries.Dense[[]float64]
	sums     *timeseries.Dense[float64]
}

// LoadDemand loads and freezes the demand profiles of req.Area. Years
// outside the sampled range repeat the nearest profile.
func LoadDemand(ctx context.Context, src DataSource, req Request) (*Demand, error) {
	f := req.filter(DatasetDemand, "")
	profiles, err := loadProfile(ctx, src, req, f, timeseries.Flat)
	if err != nil {
		return nil, fmt.Errorf("scenario: demand %s: %w", req.Area, err)
	}
	return newDemand(profiles), nil
}

func newDemand(profiles *timeseries.Dense[[]float64]) *Demand {
	sums := timeseries.Map(profiles.Name()+"/sum", profiles, func(_ int, p []float64) float64 {
		total := 0.0
		for _, v := range p {
			total += v
		}
		return total
	})
	return &Demand{profiles: profiles, sums: sums}
}

// Hourly returns the demand in hourOfYear of year.
func (d *Demand) Hourly(year, hourOfYear int) float64 {
	return d.profiles.At(year)[hourOfYear]
}

// DailyRange returns the 24 hourly values of day. The slice aliases the
// frozen series and must not be modified.
func (d *Demand) DailyRange(year, day int) []float64 {
	start := calendar.DayStart(day)
	return d.profiles.At(year)[start : start+calendar.HoursPerDay]
}

// YearlySum returns the annual demand in MWh.
func (d *Demand) YearlySum(year int) float64 {
	return d.sums.At(year)
}

// Profile returns the full hourly profile of year. It must not be modified.
func (d *Demand) Profile(year int) []float64 {
	return d.profiles.At(year)
}
