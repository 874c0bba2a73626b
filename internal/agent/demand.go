package agent

import (
	"dayahead-sim/internal/auction"
	"dayahead-sim/internal/bid"
	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/model"
)

// Demand bids the area's residual demand inelastically at the price cap.
type Demand struct {
	name string

	residual [calendar.HoursPerDay]float64
	bids     [calendar.HoursPerDay]*bid.HourlyBid

	served   float64
	unserved float64
	cost     float64
}

func NewDemand(name string) *Demand { return &Demand{name: name} }

func (d *Demand) Name() string { return d.name }

func (d *Demand) Bid(ctx Context) error {
	limit := ctx.Book.Limits().Max
	for h := range calendar.HoursPerDay {
		d.bids[h] = nil
		r := ctx.Area.ResidualDemand(ctx.Year, calendar.HourOfYear(ctx.Day, h))
		d.residual[h] = r
		if r <= 0 {
			continue
		}
		if b, err := ctx.Book.Hourly(d.name, bid.Ask, h, limit, r); err == nil {
			d.bids[h] = b
		}
	}
	return nil
}

func (d *Demand) Settle(_ Context, res *auction.DayResult) []Fill {
	fills := make([]Fill, 0, calendar.HoursPerDay)
	for h, b := range d.bids {
		if b == nil {
			d.unserved += d.residual[h]
			continue
		}
		v := b.AcceptedVolume()
		price := res.Hours[h].Price
		d.served += v
		d.unserved += d.residual[h] - v
		d.cost += v * price
		fills = append(fills, Fill{
			Unit:   d.name,
			Kind:   KindDemand,
			Hour:   h,
			Action: model.ActionConsuming,
			MW:     -v,
			Price:  price,
			PNL:    -v * price,
		})
	}
	return fills
}

func (d *Demand) Summary() []Summary {
	return []Summary{{
		Unit:        d.name,
		Kind:        KindDemand,
		EnergyMWh:   d.served,
		Cost:        d.cost,
		Profit:      -d.cost,
		UnservedMWh: d.unserved,
	}}
}
