package scenario

import (
	"context"
	"log/slog"

	"dayahead-sim/internal/timeseries"
)

// Request carries what every adapter needs to load its series.
type Request struct {
	ScenarioID string
	Area       string
	FirstYear  int
	LastYear   int
	Logger     *slog.Logger
}

func (r Request) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r Request) filter(dataset, key string) Filter {
	return Filter{Dataset: dataset, Area: r.Area, Key: key}
}

func loadScalar(ctx context.Context, src DataSource, req Request, f Filter, policy timeseries.Policy) (*timeseries.Dense[float64], error) {
	samples, err := src.FetchYearlySamples(ctx, req.ScenarioID, f)
	if err != nil {
		return nil, err
	}
	return freezeScalar(req, f, samples, policy)
}

func freezeScalar(req Request, f Filter, samples map[int]float64, policy timeseries.Policy) (*timeseries.Dense[float64], error) {
	store := timeseries.NewScalarStore(f.String(), req.logger())
	if err := store.IngestAll(samples); err != nil {
		return nil, err
	}
	return store.Freeze(req.FirstYear, req.LastYear, policy)
}

func loadProfile(ctx context.Context, src DataSource, req Request, f Filter, policy timeseries.Policy) (*timeseries.Dense[[]float64], error) {
	samples, err := src.FetchHourlyProfile(ctx, req.ScenarioID, f)
	if err != nil {
		return nil, err
	}
	store := timeseries.NewProfileStore(f.String(), req.logger())
	if err := store.IngestAll(samples); err != nil {
		return nil, err
	}
	return store.Freeze(req.FirstYear, req.LastYear, policy)
}
