package bid

import (
	"cmp"
	"math"
	"slices"
)

// Compare is the merit-order total order: price ascending, then ASK before
// SELL, then sign of volume, then larger volume first, then construction
// sequence.
func Compare(a, b Bid) int {
	if c := cmp.Compare(a.Price(), b.Price()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Type(), b.Type()); c != 0 {
		return c
	}
	if c := cmp.Compare(sign(a.Volume()), sign(b.Volume())); c != 0 {
		return c
	}
	if c := cmp.Compare(math.Abs(b.Volume()), math.Abs(a.Volume())); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq(), b.Seq())
}

// Sort orders bids by Compare.
func Sort[B Bid](bids []B) {
	slices.SortFunc(bids, func(a, b B) int { return Compare(a, b) })
}

// SortDescending orders bids by price descending, keeping the rest of the
// total order for equal prices. It builds a demand curve.
func SortDescending[B Bid](bids []B) {
	slices.SortFunc(bids, func(a, b B) int {
		if c := cmp.Compare(b.Price(), a.Price()); c != 0 {
			return c
		}
		return Compare(a, b)
	})
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
