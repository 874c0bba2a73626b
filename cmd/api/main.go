package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dayahead-sim/internal/api"
	"dayahead-sim/internal/api/handlers"
	"dayahead-sim/internal/config"
	"dayahead-sim/internal/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("DAMS_CONFIG"), "Optional server config (YAML or TOML)")
	maxRuns := flag.Int("max-runs", 32, "Number of finished runs kept in memory")
	flag.Parse()

	cfg := config.FromEnv()
	if *cfgPath != "" {
		// Server configs need not name a scenario, so skip validation.
		c, err := config.LoadUnchecked(*cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = c
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handlers.NewSimulationHandler(nil, handlers.NewRunStore(*maxRuns), logger)
	router := api.NewRouter(cfg.Server, h, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting API server", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "err", err)
		}
	}
}
