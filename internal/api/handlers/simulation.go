package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"dayahead-sim/internal/analysis"
	"dayahead-sim/internal/api/models"
	"dayahead-sim/internal/config"
	"dayahead-sim/internal/market"
	"dayahead-sim/internal/scenario"
	"dayahead-sim/internal/simulation"
)

// Runner executes one configured simulation.
type Runner func(ctx context.Context, cfg *config.Config) (*simulation.Run, error)

// SimulationHandler handles simulation-related requests
type SimulationHandler struct {
	run    Runner
	store  *RunStore
	logger *slog.Logger
}

// NewSimulationHandler creates a simulation handler. A nil runner opens the
// data source named by each request's config.
func NewSimulationHandler(run Runner, store *RunStore, logger *slog.Logger) *SimulationHandler {
	logger = logger.With(slog.String("component", "api"))
	if run == nil {
		run = func(ctx context.Context, cfg *config.Config) (*simulation.Run, error) {
			return simulation.Simulate(ctx, cfg, logger)
		}
	}
	if store == nil {
		store = NewRunStore(0)
	}
	return &SimulationHandler{run: run, store: store, logger: logger}
}

// RunSimulation handles POST /api/v1/simulations
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var req models.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	cfg, err := parseConfig(req)
	if err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}
	if req.Options.DaysPerYear > 0 {
		cfg.Simulation.DaysPerYear = req.Options.DaysPerYear
	}
	if err := cfg.Validate(); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	run, err := h.run(c.Request.Context(), cfg)
	if err != nil {
		status, code := http.StatusInternalServerError, "SIMULATION_ERROR"
		switch {
		case errors.Is(err, scenario.ErrRequiredSeriesEmpty), errors.Is(err, scenario.ErrDataUnavailable):
			status, code = http.StatusUnprocessableEntity, "SCENARIO_INCOMPLETE"
		case errors.Is(err, context.Canceled):
			status, code = 499, "CANCELED"
		}
		h.logger.Error("simulation failed", slog.String("scenario", cfg.ScenarioID), slog.Any("error", err))
		abortError(c, status, code, err.Error())
		return
	}
	h.store.Put(run)
	c.JSON(http.StatusCreated, buildResponse(run, req.Options.IncludeLedger))
}

// ListSimulations handles GET /api/v1/simulations
func (h *SimulationHandler) ListSimulations(c *gin.Context) {
	runs := h.store.List()
	out := make([]models.SimulationInfo, 0, len(runs))
	for _, r := range runs {
		out = append(out, models.SimulationInfo{
			ID:         r.ID,
			Name:       r.Name,
			ScenarioID: r.Config.ScenarioID,
			FinishedAt: r.FinishedAt,
			LedgerRows: len(r.Result.Ledger),
		})
	}
	c.JSON(http.StatusOK, gin.H{"simulations": out})
}

// GetSimulation handles GET /api/v1/simulations/:id
func (h *SimulationHandler) GetSimulation(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, buildResponse(run, false))
}

// GetLedger handles GET /api/v1/simulations/:id/ledger
func (h *SimulationHandler) GetLedger(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	var q models.LedgerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	rows := filterLedger(run.Result.Ledger, q)

	switch q.Format {
	case "", "json":
		c.JSON(http.StatusOK, models.LedgerResponse{ID: run.ID, Count: len(rows), Ledger: toLedgerRows(rows)})
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.ID+"-ledger.csv"))
		c.Status(http.StatusOK)
		if err := market.EncodeLedgerCSV(c.Writer, rows); err != nil {
			h.logger.Error("ledger csv failed", slog.String("run", run.ID), slog.Any("error", err))
		}
	default:
		abortError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be json or csv")
	}
}

func (h *SimulationHandler) lookup(c *gin.Context) (*simulation.Run, bool) {
	id := c.Param("id")
	run, ok := h.store.Get(id)
	if !ok {
		abortError(c, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("simulation %s not found", id))
	}
	return run, ok
}

func parseConfig(req models.SimulationRequest) (*config.Config, error) {
	switch req.Format {
	case "", config.FormatJSON:
		return config.Parse(req.Config, config.FormatJSON)
	case config.FormatYAML, config.FormatTOML:
		var text string
		if err := json.Unmarshal(req.Config, &text); err != nil {
			return nil, fmt.Errorf("config must be a string for format %s", req.Format)
		}
		return config.Parse([]byte(text), req.Format)
	default:
		return nil, fmt.Errorf("unknown format %q", req.Format)
	}
}

func filterLedger(ledger []market.LedgerRow, q models.LedgerQuery) []market.LedgerRow {
	var out []market.LedgerRow
	for _, r := range ledger {
		if q.Area != "" && r.Area != q.Area {
			continue
		}
		if q.Year != 0 && r.Year != q.Year {
			continue
		}
		if q.Day != nil && r.Day != *q.Day {
			continue
		}
		out = append(out, r)
	}
	return out
}

func toLedgerRows(rows []market.LedgerRow) []models.LedgerRow {
	out := make([]models.LedgerRow, len(rows))
	for i, r := range rows {
		out[i] = models.LedgerRow{
			Area:           r.Area,
			Year:           r.Year,
			Day:            r.Day,
			Hour:           r.Hour,
			HourOfYear:     r.HourOfYear,
			Price:          r.Price,
			SupplyMW:       r.Supply,
			DemandMW:       r.Demand,
			MarginalBid:    r.MarginalBid,
			AcceptedBlocks: r.AcceptedBlocks,
			ImbalanceMW:    r.Imbalance,
			Imbalanced:     r.Imbalanced,
		}
	}
	return out
}

func buildResponse(run *simulation.Run, includeLedger bool) models.SimulationResponse {
	resp := models.SimulationResponse{
		ID:         run.ID,
		Name:       run.Name,
		Status:     "completed",
		ScenarioID: run.Config.ScenarioID,
		FirstYear:  run.Scenario.FirstYear,
		LastYear:   run.Scenario.LastYear,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Areas:      run.Result.Areas,
		Rankings:   toRankings(run.Stats, 0),
	}
	if includeLedger {
		resp.Ledger = toLedgerRows(run.Result.Ledger)
	}
	return resp
}

func toRankings(stats []analysis.PriceStats, limit int) []models.Ranking {
	if limit > 0 && limit < len(stats) {
		stats = stats[:limit]
	}
	out := make([]models.Ranking, len(stats))
	for i, s := range stats {
		out[i] = models.Ranking{
			Rank:         i + 1,
			Area:         s.Area,
			Count:        s.Count,
			MeanPrice:    s.Mean,
			MinPrice:     s.Min,
			MaxPrice:     s.Max,
			P05:          s.P05,
			P95:          s.P95,
			SpreadP95P05: s.SpreadP95P05,
			StorageValue: s.StorageValue,
		}
	}
	return out
}
