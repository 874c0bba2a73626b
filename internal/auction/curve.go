package auction

import (
	"math"

	"dayahead-sim/internal/bid"
)

// PriceTolerance decides whether a bid sits at the clearing price.
const PriceTolerance = 0.001

// step is one bid on a supply or demand curve. Fixed steps are accepted
// block bids: they are ranked at the price limits, so they take any price,
// and must be matched in full. price is the ranking price; the clearing
// price is always read from the bid.
type step struct {
	bid     bid.Bid
	price   float64
	volume  float64
	fixed   bool
	matched float64
}

// curves is the merit order of one hour.
type curves struct {
	supply []*step
	demand []*step
}

// buildCurves orders the hour's bids. Fixed blocks head both curves at the
// price limits so they are matched before any price-sensitive bid.
func buildCurves(hourly []*bid.HourlyBid, fixed []*bid.BlockBid, limits bid.Limits) *curves {
	var sells, asks []*bid.HourlyBid
	for _, hb := range hourly {
		if hb.Type() == bid.Sell {
			sells = append(sells, hb)
		} else {
			asks = append(asks, hb)
		}
	}
	bid.Sort(sells)
	bid.SortDescending(asks)

	c := &curves{}
	for _, bb := range fixed {
		if bb.Type() == bid.Sell {
			c.supply = append(c.supply, &step{bid: bb, price: limits.Min, volume: bb.Volume(), fixed: true})
		} else {
			c.demand = append(c.demand, &step{bid: bb, price: limits.Max, volume: bb.Volume(), fixed: true})
		}
	}
	for _, hb := range sells {
		c.supply = append(c.supply, &step{bid: hb, price: hb.Price(), volume: hb.Volume()})
	}
	for _, hb := range asks {
		c.demand = append(c.demand, &step{bid: hb, price: hb.Price(), volume: hb.Volume()})
	}
	return c
}

// outcome is the result of walking the curves, before it is written back
// into the bids.
type outcome struct {
	price    float64
	marginal *step
	supply   float64
	demand   float64
}

// walk matches cumulative supply against cumulative demand while the
// cheapest remaining offer is not dearer than the highest remaining ask.
func (c *curves) walk() outcome {
	var (
		i, j       int
		lastS      *step
		lastD      *step
		out        outcome
		sRem, dRem float64
	)
	if len(c.supply) > 0 {
		sRem = c.supply[0].volume
	}
	if len(c.demand) > 0 {
		dRem = c.demand[0].volume
	}
	for i < len(c.supply) && j < len(c.demand) {
		s, d := c.supply[i], c.demand[j]
		if s.price > d.price {
			break
		}
		q := math.Min(sRem, dRem)
		s.matched += q
		d.matched += q
		out.supply += q
		out.demand += q
		sRem -= q
		dRem -= q
		lastS, lastD = s, d
		if sRem <= bid.Epsilon {
			i++
			if i < len(c.supply) {
				sRem = c.supply[i].volume
			}
		}
		if dRem <= bid.Epsilon {
			j++
			if j < len(c.demand) {
				dRem = c.demand[j].volume
			}
		}
	}

	switch {
	case lastS == nil:
		// Nothing trades: the price is the cheapest offer, else the best ask.
		if len(c.supply) > 0 {
			out.price = c.supply[0].bid.Price()
		} else if len(c.demand) > 0 {
			out.price = c.demand[0].bid.Price()
		}
	case partial(lastS) || !partial(lastD):
		out.price = lastS.bid.Price()
		out.marginal = marginalOn(c.supply, out.price)
	default:
		// Supply ran out or stopped crossing: the last ask sets the price.
		out.price = lastD.bid.Price()
		out.marginal = marginalOn(c.demand, out.price)
	}
	return out
}

func partial(s *step) bool {
	return s.matched < s.volume-bid.Epsilon
}

// marginalOn returns the last matched price-sensitive step priced at the
// clearing price.
func marginalOn(side []*step, price float64) *step {
	var m *step
	for _, s := range side {
		if s.matched <= bid.Epsilon {
			break
		}
		if !s.fixed && math.Abs(s.bid.Price()-price) <= PriceTolerance {
			m = s
		}
	}
	return m
}

// fixedMatched reports whether every fixed step was matched in full.
func (c *curves) fixedMatched() bool {
	for _, side := range [][]*step{c.supply, c.demand} {
		for _, s := range side {
			if s.fixed && math.Abs(s.matched-s.volume) > bid.Epsilon {
				return false
			}
		}
	}
	return true
}
