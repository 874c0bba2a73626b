package market

import (
	"dayahead-sim/internal/agent"
	"dayahead-sim/internal/model"
)

// LedgerRow is the settlement of one area in one hour.
// This is the primary artifact of a simulation run.
type LedgerRow struct {
	Area       string
	Year       int
	Day        int
	Hour       int
	HourOfYear int

	Price  float64
	Supply float64
	Demand float64

	MarginalBid    string
	AcceptedBlocks int

	Imbalance  float64
	Imbalanced bool
}

// UnitRow is one unit's accepted volume in one hour.
type UnitRow struct {
	Area string
	Year int
	Day  int
	Hour int

	Unit   string
	Kind   string
	Action model.Action
	MW     float64
	Price  float64
	PNL    float64
}

// AreaSummary totals one area over the run.
type AreaSummary struct {
	Area            string          `json:"area"`
	Hours           int             `json:"hours"`
	MeanPrice       float64         `json:"mean_price"`
	MinPrice        float64         `json:"min_price"`
	MaxPrice        float64         `json:"max_price"`
	TradedMWh       float64         `json:"traded_mwh"`
	ImbalancedHours int             `json:"imbalanced_hours"`
	SkippedDays     int             `json:"skipped_days"`
	Units           []agent.Summary `json:"units"`
}

type Result struct {
	Ledger []LedgerRow
	Units  []UnitRow
	Areas  []AreaSummary
}

// Prices returns the clearing prices of area in ledger order.
func (r *Result) Prices(area string) []float64 {
	var out []float64
	for _, row := range r.Ledger {
		if row.Area == area {
			out = append(out, row.Price)
		}
	}
	return out
}

// Area returns the summary of area.
func (r *Result) Area(code string) (AreaSummary, bool) {
	for _, a := range r.Areas {
		if a.Area == code {
			return a, true
		}
	}
	return AreaSummary{}, false
}
