// Package api exposes simulations over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"dayahead-sim/internal/api/handlers"
	"dayahead-sim/internal/api/middleware"
	"dayahead-sim/internal/config"
)

// NewRouter wires middleware and routes around h.
func NewRouter(cfg config.ServerConfig, h *handlers.SimulationHandler, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.Logger(logger.With(slog.String("component", "http"))))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/datasets", handlers.ListDatasets)

		v1.POST("/simulations", h.RunSimulation)
		v1.GET("/simulations", h.ListSimulations)
		v1.GET("/simulations/:id", h.GetSimulation)
		v1.GET("/simulations/:id/ledger", h.GetLedger)
		v1.GET("/simulations/:id/series", h.GetSeries)
		v1.GET("/simulations/:id/rank", h.RankAreas)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
