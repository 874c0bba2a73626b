package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"dayahead-sim/internal/timeseries"
)

// AreaSpec names an area and the neighbours it exchanges scheduled flows with.
// Fuels lists the fuels burnt in the area; each one must have a price there.
// A nil Fuels falls back to Options.Fuels.
type AreaSpec struct {
	Code       string
	Neighbours []string
	Fuels      []string
}

// Options describe what Load fetches.
type Options struct {
	ScenarioID        string
	FirstYear         int
	LastYear          int
	Areas             []AreaSpec
	Links             []Link
	Fuels             []string
	RenewableTypes    []string
	CarbonMarketStart int
	// Workers bounds the load pool; 0 means GOMAXPROCS.
	Workers int
}

// loader collects per-task outcomes. Tasks never fail the pool: recoverable
// errors are logged and replaced by the dataset's fallback, fatal ones are
// recorded and reported after the barrier.
type loader struct {
	src    DataSource
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	fatal []error
}

func (l *loader) fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fatal = append(l.fatal, err)
}

func (l *loader) err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return errors.Join(l.fatal...)
}

// Load fetches and freezes every dataset of the scenario in two concurrent
// phases. Phase one loads the area-local datasets, one task per adapter;
// phase two loads interconnector capacities, which need every area.
func Load(ctx context.Context, src DataSource, opts Options, logger *slog.Logger) (*Scenario, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.LastYear < opts.FirstYear {
		return nil, fmt.Errorf("scenario: %w: [%d, %d]", timeseries.ErrInvalidRange, opts.FirstYear, opts.LastYear)
	}
	if len(opts.Areas) == 0 {
		return nil, errors.New("scenario: no areas configured")
	}
	if opts.CarbonMarketStart == 0 {
		opts.CarbonMarketStart = DefaultCarbonMarketStart
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	l := &loader{src: src, opts: opts, logger: logger.With(slog.String("component", "scenario"))}
	l.logger.Info("loading scenario",
		slog.String("scenario", opts.ScenarioID),
		slog.Int("first_year", opts.FirstYear),
		slog.Int("last_year", opts.LastYear),
		slog.Int("areas", len(opts.Areas)),
		slog.Int("workers", workers),
	)

	areas := make(map[string]*Area, len(opts.Areas))
	var g errgroup.Group
	g.SetLimit(workers)
	for _, spec := range opts.Areas {
		a := &Area{Code: spec.Code}
		areas[spec.Code] = a
		req := l.request(spec.Code)
		l.submitArea(ctx, &g, a, spec, req)
	}
	_ = g.Wait()
	if err := l.err(); err != nil {
		return nil, err
	}

	sc := newScenario(opts.ScenarioID, opts.FirstYear, opts.LastYear, areas)

	// Phase two starts only after every area exists.
	var g2 errgroup.Group
	g2.SetLimit(workers)
	g2.Go(func() error {
		ic, err := LoadInterconnectors(ctx, src, l.request(""), opts.Links, areas)
		if err != nil {
			l.fail(err)
			return nil
		}
		sc.Interconnectors = ic
		return nil
	})
	_ = g2.Wait()
	if err := l.err(); err != nil {
		return nil, err
	}

	l.logger.Info("scenario loaded", slog.String("scenario", opts.ScenarioID))
	return sc, nil
}

func (l *loader) request(area string) Request {
	return Request{
		ScenarioID: l.opts.ScenarioID,
		Area:       area,
		FirstYear:  l.opts.FirstYear,
		LastYear:   l.opts.LastYear,
		Logger:     l.logger,
	}
}

func (l *loader) submitArea(ctx context.Context, g *errgroup.Group, a *Area, spec AreaSpec, req Request) {
	g.Go(func() error {
		d, err := LoadDemand(ctx, l.src, req)
		if err != nil {
			l.fail(required(err))
			return nil
		}
		a.Demand = d
		return nil
	})

	g.Go(func() error {
		fuels := spec.Fuels
		if fuels == nil {
			fuels = l.opts.Fuels
		}
		fp, err := LoadFuelPrices(ctx, l.src, req, fuels)
		if err != nil {
			l.fail(required(err))
			return nil
		}
		a.Fuels = fp
		return nil
	})

	g.Go(func() error {
		c, err := LoadCarbonPrices(ctx, l.src, req, l.opts.CarbonMarketStart)
		switch {
		case errors.Is(err, ErrDataUnavailable):
			l.logger.Warn("carbon prices unavailable, assuming no carbon market",
				slog.String("area", spec.Code), slog.Any("error", err))
			c = NoCarbonMarket(req)
		case err != nil:
			l.fail(err)
			return nil
		}
		a.Carbon = c
		return nil
	})

	g.Go(func() error {
		f, err := LoadCrossBorderFlows(ctx, l.src, req, spec.Neighbours)
		if err != nil {
			l.recoverable(spec.Code, DatasetCrossBorderFlow, err)
			f, _ = LoadCrossBorderFlows(ctx, l.src, req, nil)
		}
		a.Flows = f
		return nil
	})

	g.Go(func() error {
		rm, err := LoadRenewables(ctx, l.src, req, l.opts.RenewableTypes)
		if err != nil {
			l.recoverable(spec.Code, DatasetRenewableProfile, err)
			rm, _ = LoadRenewables(ctx, l.src, req, nil)
		}
		a.Renewables = rm
		return nil
	})
}

// recoverable handles a failed optional dataset. Only missing data falls
// back; corrupt samples, source failures and builder misuse stay fatal.
func (l *loader) recoverable(area, dataset string, err error) {
	if !errors.Is(err, ErrDataUnavailable) {
		l.fail(err)
		return
	}
	l.logger.Warn("optional dataset unavailable, using fallback",
		slog.String("area", area), slog.String("dataset", dataset), slog.Any("error", err))
}

// required turns a missing required series into ErrRequiredSeriesEmpty.
func required(err error) error {
	if errors.Is(err, ErrDataUnavailable) {
		return fmt.Errorf("%w: %w", ErrRequiredSeriesEmpty, err)
	}
	return err
}
