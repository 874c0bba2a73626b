package agent

import (
	"cmp"
	"log/slog"
	"slices"

	"dayahead-sim/internal/auction"
	"dayahead-sim/internal/bid"
	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/model"
)

// Storage arbitrages one storage unit within the day. It charges in the
// CycleHours hours of lowest residual demand and discharges in the
// CycleHours hours of highest, pricing both legs from the previous day's
// clearing prices. Without a previous day it stays out of the market.
type Storage struct {
	unit       *model.Storage
	cycleHours int
	logger     *slog.Logger

	lastPrices []float64
	charge     [calendar.HoursPerDay]*bid.HourlyBid
	discharge  [calendar.HoursPerDay]*bid.HourlyBid

	energy  float64
	revenue float64
	cost    float64
	clipped int
}

func NewStorage(unit *model.Storage, cycleHours int, logger *slog.Logger) *Storage {
	if cycleHours <= 0 {
		cycleHours = 4
	}
	if cycleHours > calendar.HoursPerDay/2 {
		cycleHours = calendar.HoursPerDay / 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Storage{
		unit:       unit,
		cycleHours: cycleHours,
		logger:     logger.With(slog.String("unit", unit.Name)),
	}
}

func (s *Storage) Name() string { return s.unit.Name }

func (s *Storage) Bid(ctx Context) error {
	s.charge = [calendar.HoursPerDay]*bid.HourlyBid{}
	s.discharge = [calendar.HoursPerDay]*bid.HourlyBid{}
	if s.lastPrices == nil {
		return nil
	}

	chargeSet, dischargeSet := s.rankHours(ctx)
	low := meanAt(s.lastPrices, chargeSet)
	high := meanAt(s.lastPrices, dischargeSet)

	p := s.unit.Params
	rte := p.RoundTripEfficiency()
	deg := p.DegradationCostPerMWh
	// Profit of selling one MWh after buying 1/rte MWh to store it.
	if high-low/rte-deg*(1+1/rte) <= 0 {
		return nil
	}
	limits := ctx.Book.Limits()
	askPrice := clampPrice(high*rte-2*deg, limits)
	sellPrice := clampPrice(low/rte+2*deg, limits)

	inCharge := hourSet(chargeSet)
	inDischarge := hourSet(dischargeSet)
	plan := s.unit.Clone()
	for h := range calendar.HoursPerDay {
		switch {
		case inCharge[h]:
			v := plan.MaxChargeMWh(1)
			if v <= bid.Epsilon {
				continue
			}
			if b, err := ctx.Book.Hourly(s.unit.Name, bid.Ask, h, askPrice, v); err == nil {
				s.charge[h] = b
				_, _ = plan.ApplyDispatch(askPrice, model.Dispatch{PowerMW: -v}, 1)
			}
		case inDischarge[h]:
			v := plan.MaxDischargeMWh(1)
			if v <= bid.Epsilon {
				continue
			}
			if b, err := ctx.Book.Hourly(s.unit.Name, bid.Sell, h, sellPrice, v); err == nil {
				s.discharge[h] = b
				_, _ = plan.ApplyDispatch(sellPrice, model.Dispatch{PowerMW: v}, 1)
			}
		}
	}
	return nil
}

// rankHours orders the day's hours by residual demand, ties by hour.
func (s *Storage) rankHours(ctx Context) (low, high []int) {
	type hourLoad struct {
		hour int
		load float64
	}
	hours := make([]hourLoad, calendar.HoursPerDay)
	for h := range hours {
		hours[h] = hourLoad{h, ctx.Area.ResidualDemand(ctx.Year, calendar.HourOfYear(ctx.Day, h))}
	}
	slices.SortFunc(hours, func(a, b hourLoad) int {
		if c := cmp.Compare(a.load, b.load); c != 0 {
			return c
		}
		return cmp.Compare(a.hour, b.hour)
	})
	for i := range s.cycleHours {
		low = append(low, hours[i].hour)
		high = append(high, hours[len(hours)-1-i].hour)
	}
	return low, high
}

func (s *Storage) Settle(_ Context, res *auction.DayResult) []Fill {
	fills := make([]Fill, 0, calendar.HoursPerDay)
	for h := range calendar.HoursPerDay {
		var req model.Dispatch
		if b := s.charge[h]; b != nil {
			req.PowerMW -= b.AcceptedVolume()
		}
		if b := s.discharge[h]; b != nil {
			req.PowerMW += b.AcceptedVolume()
		}
		price := res.Hours[h].Price
		out, err := s.unit.ApplyDispatch(price, req, 1)
		if err != nil {
			s.logger.Error("apply dispatch", slog.Int("hour", h), slog.Any("error", err))
			continue
		}
		if out.Clipped(req) {
			s.clipped++
			s.logger.Debug("dispatch clipped",
				slog.Int("hour", h), slog.Float64("requested_mw", req.PowerMW), slog.Float64("power_mw", out.PowerMW))
		}
		s.energy += out.EnergyToGridMWh
		s.revenue += price * out.EnergyToGridMWh
		s.cost += price*out.EnergyFromGridMWh + s.unit.Params.DegradationCostPerMWh*out.ThroughputMWh
		fills = append(fills, Fill{
			Unit:   s.unit.Name,
			Kind:   KindStorage,
			Hour:   h,
			Action: model.ActionFromPowerMW(out.PowerMW),
			MW:     out.PowerMW,
			Price:  price,
			PNL:    out.PNL,
		})
	}
	s.lastPrices = res.Prices()
	return fills
}

func (s *Storage) Summary() []Summary {
	return []Summary{{
		Unit:         s.unit.Name,
		Kind:         KindStorage,
		EnergyMWh:    s.energy,
		Revenue:      s.revenue,
		Cost:         s.cost,
		Profit:       s.revenue - s.cost,
		FinalSOC:     s.unit.State.SOC,
		ClippedHours: s.clipped,
	}}
}

func meanAt(v []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += v[i]
	}
	return sum / float64(len(idx))
}

func hourSet(hours []int) [calendar.HoursPerDay]bool {
	var set [calendar.HoursPerDay]bool
	for _, h := range hours {
		set[h] = true
	}
	return set
}
