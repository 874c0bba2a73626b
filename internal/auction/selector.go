package auction

import (
	"slices"

	"dayahead-sim/internal/bid"
)

// BlockSelector decides which block bids of a day are accepted. The
// returned set must be feasible for d.
type BlockSelector interface {
	Select(d *DayAuction) ([]*bid.BlockBid, error)
}

// SelectorFunc adapts a function to BlockSelector.
type SelectorFunc func(d *DayAuction) ([]*bid.BlockBid, error)

func (f SelectorFunc) Select(d *DayAuction) ([]*bid.BlockBid, error) { return f(d) }

// RejectAllBlocks accepts no block bids.
var RejectAllBlocks = SelectorFunc(func(*DayAuction) ([]*bid.BlockBid, error) { return nil, nil })

// GreedySelector visits sell blocks cheapest first, then ask blocks dearest
// first, and keeps a block when the set stays feasible and the block is in
// the money at the resulting average price over its window.
type GreedySelector struct{}

func (GreedySelector) Select(d *DayAuction) ([]*bid.BlockBid, error) {
	var sells, asks []*bid.BlockBid
	for _, bb := range d.Bids.Blocks {
		if bb.Type() == bid.Sell {
			sells = append(sells, bb)
		} else {
			asks = append(asks, bb)
		}
	}
	bid.Sort(sells)
	bid.SortDescending(asks)

	var chosen []*bid.BlockBid
	for _, bb := range append(sells, asks...) {
		try := append(slices.Clone(chosen), bb)
		if !d.IsFeasible(try) {
			continue
		}
		prices := d.Prices(try)
		if !inTheMoney(bb, prices[:]) {
			continue
		}
		chosen = try
	}
	return chosen, nil
}

func inTheMoney(bb *bid.BlockBid, prices []float64) bool {
	sum := 0.0
	for h := bb.Start(); h <= bb.End(); h++ {
		sum += prices[h]
	}
	avg := sum / float64(bb.Length())
	if bb.Type() == bid.Sell {
		return avg >= bb.Price()-PriceTolerance
	}
	return avg <= bb.Price()+PriceTolerance
}
