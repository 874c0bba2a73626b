// Package simulation turns a run configuration into a finished market run:
// it opens the data source, loads the scenario, builds the agents of every
// area and drives the market engine.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"dayahead-sim/internal/agent"
	"dayahead-sim/internal/analysis"
	"dayahead-sim/internal/auction"
	"dayahead-sim/internal/config"
	"dayahead-sim/internal/market"
	"dayahead-sim/internal/model"
	"dayahead-sim/internal/scenario"
	"dayahead-sim/internal/source"
)

// Run is one finished simulation.
type Run struct {
	ID         string
	Name       string
	Config     *config.Config
	Scenario   *scenario.Scenario
	Result     *market.Result
	Stats      []analysis.PriceStats
	StartedAt  time.Time
	FinishedAt time.Time
}

// Simulate opens the configured source and runs cfg against it.
func Simulate(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Run, error) {
	h, err := source.Open(ctx, cfg.Source, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	run, err := Execute(ctx, cfg, h, logger)
	if err != nil {
		return nil, err
	}
	if h.Cache != nil {
		st := h.Cache.Stats()
		logger.Debug("sample cache", slog.Int64("hits", st.Hits), slog.Int64("misses", st.Misses), slog.Int64("errors", st.Errors))
	}
	return run, nil
}

// Execute loads the scenario from src and runs the market.
func Execute(ctx context.Context, cfg *config.Config, src scenario.DataSource, logger *slog.Logger) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	run := &Run{ID: uuid.NewString(), Name: cfg.Name, Config: cfg, StartedAt: time.Now()}
	logger = logger.With(slog.String("run", run.ID))

	sc, err := scenario.Load(ctx, src, cfg.ScenarioOptions(), logger)
	if err != nil {
		return nil, err
	}
	run.Scenario = sc

	agents, err := Agents(cfg, logger)
	if err != nil {
		return nil, err
	}
	eng, err := market.New(sc, agents, EngineOptions(cfg), logger)
	if err != nil {
		return nil, err
	}
	res, err := eng.Run(ctx)
	if err != nil {
		return nil, err
	}
	run.Result = res
	run.Stats = analysis.RankByStorageValue(PricesByArea(res))
	run.FinishedAt = time.Now()
	logger.Info("simulation finished",
		slog.Int("ledger_rows", len(res.Ledger)),
		slog.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
	)
	return run, nil
}

// Agents builds the bidders of every configured area: a demand agent unless
// the area opts out, one thermal agent holding the area's plants and one
// agent per storage unit.
func Agents(cfg *config.Config, logger *slog.Logger) (map[string][]agent.Agent, error) {
	out := make(map[string][]agent.Agent, len(cfg.Areas))
	plants := make(map[string][]*model.Thermal)
	for _, pc := range cfg.Plants {
		p, err := model.NewThermal(pc.Name, pc.ThermalParams)
		if err != nil {
			return nil, err
		}
		plants[pc.Area] = append(plants[pc.Area], p)
	}
	for _, a := range cfg.Areas {
		if !a.NoDemand {
			out[a.Code] = append(out[a.Code], agent.NewDemand(a.Code+"/demand"))
		}
		if ps := plants[a.Code]; len(ps) > 0 {
			out[a.Code] = append(out[a.Code], agent.NewThermal(a.Code+"/thermal", ps...))
		}
	}
	for _, sc := range cfg.Storage {
		unit, err := model.NewStorage(sc.Name, sc.StorageParams, sc.InitialSOC)
		if err != nil {
			return nil, err
		}
		out[sc.Area] = append(out[sc.Area], agent.NewStorage(unit, sc.CycleHours, logger))
	}
	return out, nil
}

// EngineOptions maps the simulation section onto market options.
func EngineOptions(cfg *config.Config) market.Options {
	opts := market.Options{
		FirstYear:   cfg.Simulation.FirstYear,
		LastYear:    cfg.Simulation.LastYear,
		DaysPerYear: cfg.Simulation.DaysPerYear,
		Limits:      cfg.Limits(),
		Groups:      cfg.Groups(),
		KeepUnits:   cfg.Simulation.KeepUnits,
	}
	if cfg.Simulation.BlockSelector == "none" {
		opts.Selector = auction.RejectAllBlocks
	}
	return opts
}

// PricesByArea collects the clearing prices of every area in ledger order.
func PricesByArea(res *market.Result) map[string][]float64 {
	out := make(map[string][]float64, len(res.Areas))
	for _, a := range res.Areas {
		out[a.Area] = res.Prices(a.Area)
	}
	return out
}

// WriteOutputs writes the ledger (and unit rows when kept) below
// out.Dir and returns the written paths.
func WriteOutputs(run *Run, out config.OutputConfig) ([]string, error) {
	if err := os.MkdirAll(out.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	ledger := filepath.Join(out.Dir, out.Ledger)
	if err := market.WriteLedgerCSV(ledger, run.Result.Ledger); err != nil {
		return nil, fmt.Errorf("write ledger: %w", err)
	}
	paths := []string{ledger}
	if len(run.Result.Units) > 0 {
		units := filepath.Join(out.Dir, out.Units)
		if err := market.WriteUnitsCSV(units, run.Result.Units); err != nil {
			return nil, fmt.Errorf("write units: %w", err)
		}
		paths = append(paths, units)
	}
	return paths, nil
}
