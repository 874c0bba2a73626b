package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"dayahead-sim/internal/config"
	"dayahead-sim/internal/logging"
	"dayahead-sim/internal/scenario"
	"dayahead-sim/internal/simulation"
	"dayahead-sim/internal/source/file"
	"dayahead-sim/internal/source/postgres"
	"dayahead-sim/internal/source/sqlite"
)

// seed copies a scenario document (or the synthetic demo scenario) into a
// SQLite file or a Postgres database so simulations can read it from there.
func main() {
	var (
		scenarioPath = flag.String("scenario", "", "Scenario document (YAML or JSON)")
		synthetic    = flag.Bool("synthetic", false, "Seed the synthetic demo scenario instead of a document")
		dbPath       = flag.String("db", "", "SQLite database path")
		dsn          = flag.String("dsn", os.Getenv("DAMS_SOURCE_DSN"), "Postgres DSN")
		logLevel     = flag.String("log-level", "info", "Log level")
	)
	flag.Parse()

	logger, err := logging.New(config.LogConfig{Level: *logLevel}, os.Stderr)
	if err != nil {
		fail(err)
	}
	if (*dbPath == "") == (*dsn == "") {
		fail(fmt.Errorf("exactly one of --db or --dsn is required"))
	}

	var src *scenario.MemorySource
	switch {
	case *synthetic:
		cfg, areas := simulation.DemoConfig()
		src = simulation.Synthetic(cfg.ScenarioID, cfg.FirstYear, cfg.LastYear, areas)
	case *scenarioPath != "":
		src, err = file.Load(*scenarioPath)
		if err != nil {
			fail(err)
		}
	default:
		fail(fmt.Errorf("--scenario or --synthetic is required"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := importInto(ctx, src, *dbPath, *dsn, logger)
	if err != nil {
		fail(err)
	}
	logger.Info("seeded scenario samples", "rows", n)
}

func importInto(ctx context.Context, src *scenario.MemorySource, dbPath, dsn string, logger *slog.Logger) (int, error) {
	if dbPath != "" {
		db, err := sqlite.Open(dbPath, logger)
		if err != nil {
			return 0, err
		}
		defer db.Close()
		return db.Import(ctx, src)
	}
	db, err := postgres.Open(ctx, dsn, 4, logger)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return db.Import(ctx, src)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
