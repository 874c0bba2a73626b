package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dayahead-sim/internal/analysis"
	"dayahead-sim/internal/api/models"
	"dayahead-sim/internal/simulation"
)

// RankAreas handles GET /api/v1/simulations/:id/rank
func (h *SimulationHandler) RankAreas(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	var q models.RankQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	var stats []analysis.PriceStats
	switch q.By {
	case "", "storage":
		stats = run.Stats
	case "spread":
		stats = analysis.RankBySpread(simulation.PricesByArea(run.Result))
	default:
		abortError(c, http.StatusBadRequest, "INVALID_REQUEST", "by must be storage or spread")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rankings": toRankings(stats, q.Limit)})
}
