package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"dayahead-sim/internal/analysis"
	"dayahead-sim/internal/config"
	"dayahead-sim/internal/logging"
	"dayahead-sim/internal/scenario"
	"dayahead-sim/internal/simulation"
	"dayahead-sim/internal/source"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "simulate":
		err = cmdSimulate(ctx, os.Args[2:])
	case "series":
		err = cmdSeries(ctx, os.Args[2:])
	case "rank":
		err = cmdRank(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli simulate --config sim.yaml --out results/ledger.csv")
	fmt.Println("  cli series --config sim.yaml --area DE --dataset demand --year 2030")
	fmt.Println("  cli rank --config sim.yaml [--by spread]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - simulate clears every simulated day and writes one ledger row per area and hour")
	fmt.Println("  - series prints a reconstructed scenario series without running the market")
	fmt.Println("  - DAMS_* environment variables override config values")
}

func setup(cfgPath string) (*config.Config, *slog.Logger, error) {
	if cfgPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func cmdSimulate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML or TOML config")
	outPath := fs.String("out", "", "Ledger CSV path (default: output.dir/output.ledger)")
	days := fs.Int("days", 0, "Optional: simulate only the first N days of each year")
	_ = fs.Parse(args)

	cfg, logger, err := setup(*cfgPath)
	if err != nil {
		return err
	}
	if *days > 0 {
		cfg.Simulation.DaysPerYear = *days
	}
	if *outPath != "" {
		cfg.Output.Dir = filepath.Dir(*outPath)
		cfg.Output.Ledger = filepath.Base(*outPath)
	}

	run, err := simulation.Simulate(ctx, cfg, logger)
	if err != nil {
		return err
	}
	paths, err := simulation.WriteOutputs(run, cfg.Output)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s: %d ledger rows\n", run.ID, len(run.Result.Ledger))
	for _, p := range paths {
		fmt.Printf("Wrote %s\n", p)
	}
	fmt.Printf("%-6s %-8s %-10s %-10s %-10s %-14s %-8s\n", "area", "hours", "mean", "min", "max", "traded MWh", "skipped")
	for _, a := range run.Result.Areas {
		fmt.Printf("%-6s %-8d %-10.2f %-10.2f %-10.2f %-14.0f %-8d\n",
			a.Area, a.Hours, a.MeanPrice, a.MinPrice, a.MaxPrice, a.TradedMWh, a.SkippedDays)
		for _, u := range a.Units {
			fmt.Printf("  %-18s %-8s energy=%.0f MWh profit=%.2f\n", u.Unit, u.Kind, u.EnergyMWh, u.Profit)
		}
	}
	return nil
}

func cmdSeries(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("series", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML or TOML config")
	area := fs.String("area", "", "Area code")
	dataset := fs.String("dataset", scenario.DatasetDemand, "Dataset name")
	key := fs.String("key", "", "Fuel, neighbour or renewable type")
	year := fs.Int("year", 0, "Year (default: first scenario year)")
	hours := fs.Int("hours", 24, "Print the first N values")
	_ = fs.Parse(args)

	cfg, logger, err := setup(*cfgPath)
	if err != nil {
		return err
	}
	h, err := source.Open(ctx, cfg.Source, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	sc, err := scenario.Load(ctx, h, cfg.ScenarioOptions(), logger)
	if err != nil {
		return err
	}
	if *area == "" {
		*area = cfg.Areas[0].Code
	}
	if *year == 0 {
		*year = sc.FirstYear
	}
	values, err := seriesValues(sc, *area, *dataset, *key, *year)
	if err != nil {
		return err
	}

	sum, lo, hi := 0.0, math.Inf(1), math.Inf(-1)
	for _, v := range values {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	fmt.Printf("%s %s %s %d: count=%d sum=%.2f mean=%.2f min=%.2f max=%.2f\n",
		*area, *dataset, *key, *year, len(values), sum, sum/float64(len(values)), lo, hi)
	for i := 0; i < len(values) && i < *hours; i++ {
		fmt.Printf("%5d %12.3f\n", i, values[i])
	}
	return nil
}

// seriesValues reads one series after checking the year and area, so an
// out of range request fails with an error instead of a panic.
func seriesValues(sc *scenario.Scenario, area, dataset, key string, year int) ([]float64, error) {
	if !sc.CoversYear(year) {
		return nil, fmt.Errorf("year %d outside the scenario horizon [%d, %d]", year, sc.FirstYear, sc.LastYear)
	}
	if _, ok := sc.Area(area); !ok {
		return nil, fmt.Errorf("area %s not configured", area)
	}
	values, err := sc.Values(area, dataset, key, year)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s %s %d: no values", area, dataset, year)
	}
	return values, nil
}

func cmdRank(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML or TOML config")
	by := fs.String("by", "storage", "Ranking metric: storage or spread")
	_ = fs.Parse(args)

	cfg, logger, err := setup(*cfgPath)
	if err != nil {
		return err
	}
	run, err := simulation.Simulate(ctx, cfg, logger)
	if err != nil {
		return err
	}

	ranked := run.Stats
	switch *by {
	case "storage":
	case "spread":
		ranked = analysis.RankBySpread(simulation.PricesByArea(run.Result))
	default:
		return fmt.Errorf("unknown ranking %q", *by)
	}
	fmt.Printf("%-4s %-6s %-8s %-10s %-10s %-13s %-12s\n", "rank", "area", "count", "mean", "p95-p05", "min/max", "storage")
	for i, r := range ranked {
		fmt.Printf("%-4d %-6s %-8d %-10.2f %-10.2f %-6.1f/%-6.1f %-12.2f\n",
			i+1, r.Area, r.Count, r.Mean, r.SpreadP95P05, r.Min, r.Max, r.StorageValue)
	}
	return nil
}
