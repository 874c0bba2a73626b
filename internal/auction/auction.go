// Package auction clears day-ahead bids into hourly prices and accepted
// volumes.
//
// Each hour is cleared by walking the merit-ordered supply and demand
// curves. Block bids span several hours; which of them are accepted is
// decided for the whole day by a BlockSelector before the hourly walk, and
// accepted blocks enter every hour of their window as fixed volume.
package auction

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"dayahead-sim/internal/bid"
	"dayahead-sim/internal/calendar"
)

var (
	// ErrSettlementImbalance is logged when accepted supply and demand of an
	// hour differ. It never aborts a run.
	ErrSettlementImbalance = errors.New("settlement imbalance")
	// ErrInfeasibleBlocks means a block set cannot be balanced in every hour
	// of its windows.
	ErrInfeasibleBlocks = errors.New("infeasible block set")
)

// HourResult is the settlement of one hour.
type HourResult struct {
	Hour     int
	Price    float64
	Supply   float64
	Demand   float64
	Marginal bid.Bid
	// Imbalance is accepted supply minus accepted demand before it was
	// forced to zero.
	Imbalance float64
}

// Imbalanced reports whether the hour needed forced balancing.
func (r HourResult) Imbalanced() bool { return r.Imbalance != 0 }

// MarginalID is the id of the price-setting bid, empty if none.
func (r HourResult) MarginalID() string {
	if r.Marginal == nil {
		return ""
	}
	return r.Marginal.ID()
}

// ClearHour settles the hourly bids of one hour together with the block bids
// already accepted for it, and writes the accepted volume into every hourly
// bid.
func ClearHour(hour int, hourly []*bid.HourlyBid, fixed []*bid.BlockBid, limits bid.Limits, logger *slog.Logger) HourResult {
	if logger == nil {
		logger = slog.Default()
	}
	c := buildCurves(hourly, fixed, limits)
	out := c.walk()

	res := HourResult{Hour: hour, Price: out.price}
	if out.marginal != nil {
		res.Marginal = out.marginal.bid
	}
	for _, side := range [][]*step{c.supply, c.demand} {
		for _, s := range side {
			if s.fixed {
				continue
			}
			if err := s.bid.SetAcceptedVolume(s.matched); err != nil {
				logger.Error("accepted volume rejected", slog.String("bid", s.bid.ID()), slog.Any("error", err))
			}
		}
	}

	for _, hb := range hourly {
		res.add(hb)
	}
	for _, bb := range fixed {
		res.add(bb)
	}
	if diff := res.Supply - res.Demand; math.Abs(diff) > bid.Epsilon {
		logger.Error("settlement imbalance, forcing balance",
			slog.Int("hour", hour),
			slog.Float64("supply", res.Supply),
			slog.Float64("demand", res.Demand),
			slog.Float64("imbalance", diff),
			slog.Any("error", ErrSettlementImbalance),
		)
		res.Imbalance = diff
		res.Supply = math.Min(res.Supply, res.Demand)
		res.Demand = res.Supply
	}
	return res
}

func (r *HourResult) add(b bid.Bid) {
	if b.Type() == bid.Sell {
		r.Supply += b.AcceptedVolume()
	} else {
		r.Demand += b.AcceptedVolume()
	}
}

// CheckBlockContract verifies that volume is a legal acceptance of b: zero
// or its full volume.
func CheckBlockContract(b *bid.BlockBid, volume float64) error {
	if math.Abs(volume) <= bid.Epsilon || math.Abs(volume-b.Volume()) <= bid.Epsilon {
		return nil
	}
	return fmt.Errorf("auction: block %s matched %.3f of %.3f MW: %w", b.ID(), volume, b.Volume(), bid.ErrPartialBlock)
}

// DayAuction is the bid set of one area for one day together with the
// block acceptance chosen for it.
type DayAuction struct {
	Area string
	Year int
	Day  int
	Bids *bid.DaySet

	limits   bid.Limits
	logger   *slog.Logger
	accepted []*bid.BlockBid
}

func NewDayAuction(area string, year, day int, bids *bid.DaySet, limits bid.Limits, logger *slog.Logger) *DayAuction {
	if logger == nil {
		logger = slog.Default()
	}
	return &DayAuction{
		Area:   area,
		Year:   year,
		Day:    day,
		Bids:   bids,
		limits: limits,
		logger: logger.With(slog.String("area", area), slog.Int("year", year), slog.Int("day", day)),
	}
}

// IsFeasible reports whether blocks, fixed into their windows, are matched
// in full in every hour of the day. It does not modify any bid.
func (d *DayAuction) IsFeasible(blocks []*bid.BlockBid) bool {
	for h := range calendar.HoursPerDay {
		c := buildCurves(d.Bids.Hour(h), covering(blocks, h), d.limits)
		c.walk()
		if !c.fixedMatched() {
			return false
		}
	}
	return true
}

// Prices returns the hourly clearing prices the day would have with blocks
// accepted. It does not modify any bid.
func (d *DayAuction) Prices(blocks []*bid.BlockBid) [calendar.HoursPerDay]float64 {
	var prices [calendar.HoursPerDay]float64
	for h := range calendar.HoursPerDay {
		prices[h] = buildCurves(d.Bids.Hour(h), covering(blocks, h), d.limits).walk().price
	}
	return prices
}

// ApplyAccepted accepts every block in blocks for its full volume and
// rejects the day's other blocks.
func (d *DayAuction) ApplyAccepted(blocks []*bid.BlockBid) error {
	in := make(map[*bid.BlockBid]bool, len(blocks))
	for _, bb := range blocks {
		in[bb] = true
	}
	own := 0
	for _, bb := range d.Bids.Blocks {
		v := 0.0
		if in[bb] {
			v = bb.Volume()
			own++
		}
		if err := bb.SetAcceptedVolume(v); err != nil {
			return fmt.Errorf("auction: %s day %d: %w", d.Area, d.Day, err)
		}
	}
	if own != len(in) {
		return fmt.Errorf("auction: %s day %d: %d accepted blocks are not part of the day's bids", d.Area, d.Day, len(in)-own)
	}
	d.accepted = blocks
	return nil
}

// Accepted returns the applied block set.
func (d *DayAuction) Accepted() []*bid.BlockBid { return d.accepted }

// Clear settles all hours of the day with the applied block set.
func (d *DayAuction) Clear() *DayResult {
	res := &DayResult{Area: d.Area, Year: d.Year, Day: d.Day, Blocks: d.accepted}
	for h := range calendar.HoursPerDay {
		res.Hours[h] = ClearHour(h, d.Bids.Hour(h), covering(d.accepted, h), d.limits, d.logger)
	}
	return res
}

// DayResult is the settlement of one area for one day.
type DayResult struct {
	Area   string
	Year   int
	Day    int
	Hours  [calendar.HoursPerDay]HourResult
	Blocks []*bid.BlockBid
}

// Prices returns the 24 clearing prices.
func (r *DayResult) Prices() []float64 {
	out := make([]float64, len(r.Hours))
	for h, hr := range r.Hours {
		out[h] = hr.Price
	}
	return out
}

// ClearDay selects the day's block bids with sel, falls back to rejecting
// all blocks if the selection is infeasible, and clears every hour. A nil
// sel uses GreedySelector.
func ClearDay(d *DayAuction, sel BlockSelector) (*DayResult, error) {
	if sel == nil {
		sel = GreedySelector{}
	}
	chosen, err := sel.Select(d)
	if err != nil {
		d.logger.Error("block selection failed, rejecting all blocks", slog.Any("error", err))
		chosen = nil
	}
	if len(chosen) > 0 && !d.IsFeasible(chosen) {
		d.logger.Error("block selection rejected, rejecting all blocks",
			slog.Int("blocks", len(chosen)), slog.Any("error", ErrInfeasibleBlocks))
		chosen = nil
	}
	if err := d.ApplyAccepted(chosen); err != nil {
		return nil, err
	}
	return d.Clear(), nil
}

func covering(blocks []*bid.BlockBid, h int) []*bid.BlockBid {
	var out []*bid.BlockBid
	for _, bb := range blocks {
		if bb.Covers(h) {
			out = append(out, bb)
		}
	}
	return out
}
