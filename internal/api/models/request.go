package models

import "encoding/json"

// SimulationRequest represents the request body for running a simulation.
// Config is a JSON object, or a JSON string holding a YAML or TOML document
// when Format says so.
type SimulationRequest struct {
	Config  json.RawMessage   `json:"config" binding:"required"`
	Format  string            `json:"format,omitempty"` // "json" (default), "yaml", "toml"
	Options SimulationOptions `json:"options,omitempty"`
}

// SimulationOptions contains optional run parameters
type SimulationOptions struct {
	DaysPerYear   int  `json:"days_per_year,omitempty"` // overrides simulation.days_per_year
	IncludeLedger bool `json:"include_ledger,omitempty"`
}

// LedgerQuery filters GET /simulations/:id/ledger
type LedgerQuery struct {
	Area   string `form:"area"`
	Year   int    `form:"year"`
	Day    *int   `form:"day"`
	Format string `form:"format"` // "json" (default) or "csv"
}

// SeriesQuery selects one reconstructed series
type SeriesQuery struct {
	Area    string `form:"area" binding:"required"`
	Dataset string `form:"dataset" binding:"required"`
	Key     string `form:"key"`
	Year    int    `form:"year" binding:"required"`
}

// RankQuery picks the ranking metric
type RankQuery struct {
	By    string `form:"by"` // "storage" (default) or "spread"
	Limit int    `form:"limit"`
}
