package auction

import (
	"context"
	"fmt"
)

// Coupler clears the day auctions of areas joined by interconnectors. The
// results are returned in the order of days.
type Coupler interface {
	ClearCoupled(ctx context.Context, days []*DayAuction) ([]*DayResult, error)
}

// IsolatedCoupler clears every area on its own, without cross-border
// exchange. It is the default for areas without a coupling solver.
type IsolatedCoupler struct {
	Selector BlockSelector
}

func (c IsolatedCoupler) ClearCoupled(ctx context.Context, days []*DayAuction) ([]*DayResult, error) {
	out := make([]*DayResult, 0, len(days))
	for _, d := range days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := ClearDay(d, c.Selector)
		if err != nil {
			return nil, fmt.Errorf("auction: clear %s: %w", d.Area, err)
		}
		out = append(out, res)
	}
	return out, nil
}
