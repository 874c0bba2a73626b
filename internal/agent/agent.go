// Package agent holds the bidding agents of a market area. Agents read the
// frozen scenario, put bids into the day's book and are told afterwards
// which volumes were accepted.
package agent

import (
	"dayahead-sim/internal/auction"
	"dayahead-sim/internal/bid"
	"dayahead-sim/internal/model"
	"dayahead-sim/internal/scenario"
)

// Context is what an agent sees of one simulated day.
type Context struct {
	Area *scenario.Area
	Year int
	Day  int
	Book *bid.Book
}

// Agent bids for one or more units and tracks what they were awarded.
// An agent belongs to one area and is driven by one goroutine.
type Agent interface {
	Name() string
	// Bid adds the day's bids to ctx.Book. An error is fatal for the run;
	// bids the book rejects are not errors.
	Bid(ctx Context) error
	// Settle applies the day's result to the agent's units.
	Settle(ctx Context, res *auction.DayResult) []Fill
	Summary() []Summary
}

// Fill is the accepted volume of one unit in one hour. MW is positive for
// energy delivered to the grid.
type Fill struct {
	Unit   string
	Kind   string
	Hour   int
	Action model.Action
	MW     float64
	Price  float64
	PNL    float64
}

// Summary totals one unit over the run.
type Summary struct {
	Unit         string  `json:"unit"`
	Kind         string  `json:"kind"`
	EnergyMWh    float64 `json:"energy_mwh"`
	Revenue      float64 `json:"revenue"`
	Cost         float64 `json:"cost"`
	Profit       float64 `json:"profit"`
	UnservedMWh  float64 `json:"unserved_mwh,omitempty"`
	FinalSOC     float64 `json:"final_soc,omitempty"`
	ClippedHours int     `json:"clipped_hours,omitempty"`
}

const (
	KindDemand  = "demand"
	KindThermal = "thermal"
	KindStorage = "storage"
)

func clampPrice(p float64, l bid.Limits) float64 {
	if p < l.Min {
		return l.Min
	}
	if p > l.Max {
		return l.Max
	}
	return p
}
