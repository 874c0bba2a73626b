package handlers

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"dayahead-sim/internal/api/models"
	"dayahead-sim/internal/scenario"
)

// GetSeries handles GET /api/v1/simulations/:id/series
func (h *SimulationHandler) GetSeries(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	var q models.SeriesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if !run.Scenario.CoversYear(q.Year) {
		abortError(c, http.StatusBadRequest, "INVALID_YEAR", "year outside the scenario horizon")
		return
	}
	if _, ok := run.Scenario.Area(q.Area); !ok {
		abortError(c, http.StatusNotFound, "UNKNOWN_AREA", "area "+q.Area+" not in scenario")
		return
	}
	values, err := run.Scenario.Values(q.Area, q.Dataset, q.Key, q.Year)
	if errors.Is(err, scenario.ErrDataUnavailable) {
		abortError(c, http.StatusNotFound, "SERIES_NOT_FOUND", err.Error())
		return
	}
	if err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_DATASET", err.Error())
		return
	}

	resp := models.SeriesResponse{
		Area:    q.Area,
		Dataset: q.Dataset,
		Key:     q.Key,
		Year:    q.Year,
		Count:   len(values),
		Min:     math.Inf(1),
		Max:     math.Inf(-1),
		Values:  values,
	}
	for _, v := range values {
		resp.Sum += v
		resp.Min = math.Min(resp.Min, v)
		resp.Max = math.Max(resp.Max, v)
	}
	c.JSON(http.StatusOK, resp)
}
