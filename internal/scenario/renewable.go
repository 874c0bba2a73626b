package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/timeseries"
)

type renewable struct {
	capacity      *timeseries.Dense[float64]
	fullLoadHours *timeseries.Dense[float64]
	utilisation   *timeseries.Dense[float64]
	profile       *timeseries.Dense[[]float64]
}

func (r *renewable) load(year, hour int) float64 {
	return r.capacity.At(year) * r.fullLoadHours.At(year) * r.utilisation.At(year) * r.profile.At(year)[hour]
}

// RenewableManager combines capacity, full load hours, utilisation and a
// normalised hourly profile per renewable type into hourly infeed in MW.
type RenewableManager struct {
	types  []string
	byType map[string]*renewable
	total  *timeseries.Dense[[]float64]
}

// LoadRenewables loads every type in types. Capacity grows along its last
// trend and never shrinks; the other factors are held flat. A type missing
// capacity, full load hours or profile is skipped with a warning; a missing
// utilisation defaults to 1.
func LoadRenewables(ctx context.Context, src DataSource, req Request, types []string) (*RenewableManager, error) {
	rm := &RenewableManager{byType: make(map[string]*renewable, len(types))}
	log := req.logger()

	for _, typ := range types {
		r, err := loadRenewable(ctx, src, req, typ)
		if errors.Is(err, ErrDataUnavailable) {
			log.Warn("renewable type skipped", slog.String("area", req.Area), slog.String("type", typ), slog.Any("error", err))
			continue
		}
		if err != nil {
			return nil, err
		}
		rm.types = append(rm.types, typ)
		rm.byType[typ] = r
	}

	rm.total = timeseries.Generate(req.filter(DatasetRenewableProfile, "total").String(), req.FirstYear, req.LastYear,
		func(y int) []float64 {
			total := make([]float64, calendar.HoursPerYear)
			for _, r := range rm.byType {
				for h := range total {
					total[h] += r.load(y, h)
				}
			}
			return total
		})
	return rm, nil
}

func loadRenewable(ctx context.Context, src DataSource, req Request, typ string) (*renewable, error) {
	capacity, err := loadScalar(ctx, src, req, req.filter(DatasetRenewableCapacity, typ), timeseries.LinearTrendFloored)
	if err != nil {
		return nil, fmt.Errorf("scenario: renewable capacity %s/%s: %w", req.Area, typ, err)
	}
	flh, err := loadScalar(ctx, src, req, req.filter(DatasetRenewableFullLoadHours, typ), timeseries.Flat)
	if err != nil {
		return nil, fmt.Errorf("scenario: full load hours %s/%s: %w", req.Area, typ, err)
	}
	util, err := loadScalar(ctx, src, req, req.filter(DatasetRenewableUtilisation, typ), timeseries.Flat)
	if errors.Is(err, ErrDataUnavailable) {
		util = timeseries.Constant(req.filter(DatasetRenewableUtilisation, typ).String(), req.FirstYear, req.LastYear, 1.0)
	} else if err != nil {
		return nil, fmt.Errorf("scenario: utilisation %s/%s: %w", req.Area, typ, err)
	}
	raw, err := loadProfile(ctx, src, req, req.filter(DatasetRenewableProfile, typ), timeseries.Flat)
	if err != nil {
		return nil, fmt.Errorf("scenario: renewable profile %s/%s: %w", req.Area, typ, err)
	}
	return &renewable{
		capacity:      capacity,
		fullLoadHours: flh,
		utilisation:   util,
		profile:       timeseries.Map(raw.Name(), raw, func(_ int, p []float64) []float64 { return normalise(p) }),
	}, nil
}

// normalise scales p so its values sum to 1. An all-zero profile stays zero.
func normalise(p []float64) []float64 {
	sum := 0.0
	for _, v := range p {
		sum += v
	}
	out := make([]float64, len(p))
	if sum == 0 {
		return out
	}
	for i, v := range p {
		out[i] = v / sum
	}
	return out
}

// Types lists the loaded renewable types in load order.
func (rm *RenewableManager) Types() []string { return rm.types }

// Capacity returns the installed capacity of typ in MW, 0 if unknown.
func (rm *RenewableManager) Capacity(typ string, year int) float64 {
	r, ok := rm.byType[typ]
	if !ok {
		return 0
	}
	return r.capacity.At(year)
}

// Load returns the infeed of typ in hourOfYear in MW, 0 if unknown.
func (rm *RenewableManager) Load(typ string, year, hourOfYear int) float64 {
	r, ok := rm.byType[typ]
	if !ok {
		return 0
	}
	return r.load(year, hourOfYear)
}

// TotalLoad returns the infeed summed over all types.
func (rm *RenewableManager) TotalLoad(year, hourOfYear int) float64 {
	return rm.total.At(year)[hourOfYear]
}

// TotalProfile returns the summed infeed of year. It must not be modified.
func (rm *RenewableManager) TotalProfile(year int) []float64 {
	return rm.total.At(year)
}
