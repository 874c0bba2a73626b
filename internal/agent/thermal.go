package agent

import (
	"fmt"

	"dayahead-sim/internal/auction"
	"dayahead-sim/internal/bid"
	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/model"
)

// Thermal offers the capacity of fuel-fired plants at marginal cost. A plant
// with a must-run volume offers it as a block over the whole day and the
// rest hour by hour.
type Thermal struct {
	name   string
	plants []*model.Thermal
	day    []plantDay
}

type plantDay struct {
	fuel   float64
	carbon float64
	block  *bid.BlockBid
	hourly [calendar.HoursPerDay]*bid.HourlyBid
}

func NewThermal(name string, plants ...*model.Thermal) *Thermal {
	return &Thermal{name: name, plants: plants, day: make([]plantDay, len(plants))}
}

func (t *Thermal) Name() string { return t.name }

func (t *Thermal) Bid(ctx Context) error {
	carbon := ctx.Area.Carbon.Price(ctx.Year)
	for i, p := range t.plants {
		fuel, ok := ctx.Area.Fuels.Price(p.Params.Fuel, ctx.Year)
		if !ok {
			return fmt.Errorf("agent %s: plant %s: no %s price in %s", t.name, p.Name, p.Params.Fuel, ctx.Area.Code)
		}
		pd := plantDay{fuel: fuel, carbon: carbon}
		cost := clampPrice(p.MarginalCost(fuel, carbon), ctx.Book.Limits())
		flexible := p.AvailableMW()
		if p.Params.BlockMinMW > 0 {
			pd.block, _ = ctx.Book.Block(p.Name, bid.Sell, 0, calendar.HoursPerDay, cost, p.Params.BlockMinMW)
			flexible -= p.Params.BlockMinMW
		}
		if flexible > bid.Epsilon {
			for h := range calendar.HoursPerDay {
				pd.hourly[h], _ = ctx.Book.Hourly(p.Name, bid.Sell, h, cost, flexible)
			}
		}
		t.day[i] = pd
	}
	return nil
}

func (t *Thermal) Settle(_ Context, res *auction.DayResult) []Fill {
	var fills []Fill
	for i, p := range t.plants {
		pd := t.day[i]
		cost := p.MarginalCost(pd.fuel, pd.carbon)
		for h := range calendar.HoursPerDay {
			mw := 0.0
			if hb := pd.hourly[h]; hb != nil {
				mw += hb.AcceptedVolume()
			}
			if pd.block != nil && pd.block.Covers(h) {
				mw += pd.block.AcceptedVolume()
			}
			price := res.Hours[h].Price
			p.Record(mw, price, pd.fuel, pd.carbon)
			action := model.ActionIdle
			if mw > 0 {
				action = model.ActionGenerating
			}
			fills = append(fills, Fill{
				Unit:   p.Name,
				Kind:   KindThermal,
				Hour:   h,
				Action: action,
				MW:     mw,
				Price:  price,
				PNL:    mw * (price - cost),
			})
		}
	}
	return fills
}

func (t *Thermal) Summary() []Summary {
	out := make([]Summary, 0, len(t.plants))
	for _, p := range t.plants {
		out = append(out, Summary{
			Unit:      p.Name,
			Kind:      KindThermal,
			EnergyMWh: p.GeneratedMWh,
			Revenue:   p.Revenue,
			Cost:      p.FuelCost + p.CarbonCost,
			Profit:    p.Profit(),
		})
	}
	return out
}
