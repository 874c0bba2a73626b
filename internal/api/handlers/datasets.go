package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dayahead-sim/internal/api/models"
	"dayahead-sim/internal/scenario"
)

var datasets = []models.DatasetInfo{
	{ID: scenario.DatasetDemand, Resolution: "hourly", Description: "Electricity demand in MW"},
	{ID: scenario.DatasetFuelPrice, Resolution: "yearly", KeyedBy: "fuel", Description: "Fuel price per MWh thermal"},
	{ID: scenario.DatasetCarbonPrice, Resolution: "yearly", Description: "Carbon price per t CO2, 0 before the market start"},
	{ID: scenario.DatasetCrossBorderFlow, Resolution: "hourly", KeyedBy: "neighbour area or net", Description: "Scheduled imports in MW"},
	{ID: scenario.DatasetRenewableCapacity, Resolution: "yearly", KeyedBy: "renewable type", Description: "Installed capacity in MW"},
	{ID: scenario.DatasetRenewableFullLoadHours, Resolution: "yearly", KeyedBy: "renewable type", Description: "Full load hours per year"},
	{ID: scenario.DatasetRenewableUtilisation, Resolution: "yearly", KeyedBy: "renewable type", Description: "Share of full load hours fed in, 1 when not given"},
	{ID: scenario.DatasetRenewableProfile, Resolution: "hourly", KeyedBy: "renewable type or total", Description: "Renewable infeed in MW"},
	{ID: scenario.DatasetInterconnectorCapacity, Resolution: "yearly", KeyedBy: "target area", Description: "Net transfer capacity from the area in MW"},
}

// ListDatasets handles GET /api/v1/datasets
func ListDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}
