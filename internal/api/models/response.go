package models

import (
	"time"

	"dayahead-sim/internal/market"
)

// SimulationResponse represents the response from a simulation run
type SimulationResponse struct {
	ID         string               `json:"id"`
	Name       string               `json:"name,omitempty"`
	Status     string               `json:"status"`
	ScenarioID string               `json:"scenario_id"`
	FirstYear  int                  `json:"first_year"`
	LastYear   int                  `json:"last_year"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Areas      []market.AreaSummary `json:"areas"`
	Rankings   []Ranking            `json:"rankings"`
	Ledger     []LedgerRow          `json:"ledger,omitempty"`
}

// SimulationInfo is one entry of the run listing
type SimulationInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	ScenarioID string    `json:"scenario_id"`
	FinishedAt time.Time `json:"finished_at"`
	LedgerRows int       `json:"ledger_rows"`
}

// LedgerRow represents one area-hour of the settlement ledger
type LedgerRow struct {
	Area           string  `json:"area"`
	Year           int     `json:"year"`
	Day            int     `json:"day"`
	Hour           int     `json:"hour"`
	HourOfYear     int     `json:"hour_of_year"`
	Price          float64 `json:"price"`
	SupplyMW       float64 `json:"supply_mw"`
	DemandMW       float64 `json:"demand_mw"`
	MarginalBid    string  `json:"marginal_bid,omitempty"`
	AcceptedBlocks int     `json:"accepted_blocks"`
	ImbalanceMW    float64 `json:"imbalance_mw"`
	Imbalanced     bool    `json:"imbalanced"`
}

// LedgerResponse wraps a filtered ledger
type LedgerResponse struct {
	ID     string      `json:"id"`
	Count  int         `json:"count"`
	Ledger []LedgerRow `json:"ledger"`
}

// Ranking represents one ranked area
type Ranking struct {
	Rank         int     `json:"rank"`
	Area         string  `json:"area"`
	Count        int     `json:"count"`
	MeanPrice    float64 `json:"mean_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	P05          float64 `json:"p05"`
	P95          float64 `json:"p95"`
	SpreadP95P05 float64 `json:"spread_p95_p05"`
	StorageValue float64 `json:"storage_value"`
}

// SeriesResponse carries one reconstructed series for one year
type SeriesResponse struct {
	Area    string    `json:"area"`
	Dataset string    `json:"dataset"`
	Key     string    `json:"key,omitempty"`
	Year    int       `json:"year"`
	Count   int       `json:"count"`
	Sum     float64   `json:"sum"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Values  []float64 `json:"values"`
}

// DatasetInfo describes a dataset the series endpoint can serve
type DatasetInfo struct {
	ID          string `json:"id"`
	Resolution  string `json:"resolution"` // "yearly" or "hourly"
	KeyedBy     string `json:"keyed_by,omitempty"`
	Description string `json:"description"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
