package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"dayahead-sim/internal/logging"
	"dayahead-sim/internal/simulation"
)

// Demo:
// - Build a synthetic three-area scenario in memory
// - Clear the first days of two years with thermal, demand and storage agents
// - Print the first hours of each area to show how the pieces fit together
func main() {
	days := flag.Int("days", 14, "Days simulated per year")
	n := flag.Int("n", 24, "Number of ledger hours printed per area")
	outDir := flag.String("out", "", "Optional directory for ledger and unit CSVs")
	flag.Parse()

	cfg, areas := simulation.DemoConfig()
	cfg.Simulation.DaysPerYear = *days
	logger := logging.Discard()

	src := simulation.Synthetic(cfg.ScenarioID, cfg.FirstYear, cfg.LastYear, areas)
	run, err := simulation.Execute(context.Background(), cfg, src, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	for _, a := range run.Result.Areas {
		fmt.Printf("\n%s: mean %.2f EUR/MWh (min %.2f, max %.2f), traded %.0f MWh\n",
			a.Area, a.MeanPrice, a.MinPrice, a.MaxPrice, a.TradedMWh)
		fmt.Printf("%-5s %-4s %-5s %-10s %-10s %-10s %-24s\n", "year", "day", "hour", "price", "supply", "demand", "marginal")
		printed := 0
		for _, r := range run.Result.Ledger {
			if r.Area != a.Area || printed >= *n {
				continue
			}
			fmt.Printf("%-5d %-4d %-5d %-10.2f %-10.0f %-10.0f %-24s\n",
				r.Year, r.Day, r.Hour, r.Price, r.Supply, r.Demand, r.MarginalBid)
			printed++
		}
		for _, u := range a.Units {
			fmt.Printf("  %-14s profit=%.2f energy=%.0f MWh\n", u.Unit, u.Profit, u.EnergyMWh)
		}
	}

	fmt.Println("\nStorage value ranking:")
	for i, s := range run.Stats {
		fmt.Printf("%d. %s  %.2f EUR (spread p95-p05 %.2f)\n", i+1, s.Area, s.StorageValue, s.SpreadP95P05)
	}

	if *outDir != "" {
		cfg.Output.Dir = *outDir
		paths, err := simulation.WriteOutputs(run, cfg.Output)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		for _, p := range paths {
			fmt.Printf("Wrote %s\n", p)
		}
	}
}
