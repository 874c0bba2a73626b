// Package market drives a simulation run: it walks the simulated days of
// every area, collects the agents' bids, clears them and feeds the result
// back to the agents.
package market

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"

	"dayahead-sim/internal/agent"
	"dayahead-sim/internal/auction"
	"dayahead-sim/internal/bid"
	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/scenario"
)

type Options struct {
	// FirstYear and LastYear bound the simulated years; 0 means the
	// scenario horizon.
	FirstYear int
	LastYear  int
	// DaysPerYear limits the simulated days of each year; 0 means all.
	DaysPerYear int
	Limits      bid.Limits
	// Groups maps an area to its coupling group. Areas of one group clear
	// jointly; an area missing from the map forms its own group.
	Groups map[string]string
	// Selector picks block bids; nil means auction.GreedySelector.
	Selector auction.BlockSelector
	// Coupler builds the clearing of one group; nil means
	// auction.IsolatedCoupler.
	Coupler func(group string) auction.Coupler
	// KeepUnits records a UnitRow per unit and hour.
	KeepUnits bool
}

type Engine struct {
	sc     *scenario.Scenario
	agents map[string][]agent.Agent
	opts   Options
	logger *slog.Logger
}

// New checks opts against the scenario. agents maps an area code to the
// agents bidding in it.
func New(sc *scenario.Scenario, agents map[string][]agent.Agent, opts Options, logger *slog.Logger) (*Engine, error) {
	if sc == nil {
		return nil, errors.New("scenario is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FirstYear == 0 {
		opts.FirstYear = sc.FirstYear
	}
	if opts.LastYear == 0 {
		opts.LastYear = sc.LastYear
	}
	if opts.LastYear < opts.FirstYear || !sc.CoversYear(opts.FirstYear) || !sc.CoversYear(opts.LastYear) {
		return nil, fmt.Errorf("years [%d, %d] not inside scenario horizon [%d, %d]",
			opts.FirstYear, opts.LastYear, sc.FirstYear, sc.LastYear)
	}
	if opts.DaysPerYear == 0 {
		opts.DaysPerYear = calendar.DaysPerYear
	}
	if opts.DaysPerYear < 0 || opts.DaysPerYear > calendar.DaysPerYear {
		return nil, fmt.Errorf("days per year %d not in [1, %d]", opts.DaysPerYear, calendar.DaysPerYear)
	}
	if opts.Limits == (bid.Limits{}) {
		opts.Limits = bid.DefaultLimits
	}
	if opts.Limits.Min >= opts.Limits.Max {
		return nil, fmt.Errorf("price limits [%.2f, %.2f] are empty", opts.Limits.Min, opts.Limits.Max)
	}
	for code := range agents {
		if _, ok := sc.Area(code); !ok {
			return nil, fmt.Errorf("agents for unknown area %q", code)
		}
	}
	return &Engine{
		sc:     sc,
		agents: agents,
		opts:   opts,
		logger: logger.With(slog.String("component", "market")),
	}, nil
}

// Run simulates every configured day. Days of one group run strictly in
// order since agents carry state from day to day; groups run in parallel.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	groups := e.groups()
	e.logger.Info("simulation starting",
		slog.Int("groups", len(groups)),
		slog.Int("first_year", e.opts.FirstYear),
		slog.Int("last_year", e.opts.LastYear),
		slog.Int("days_per_year", e.opts.DaysPerYear),
	)

	parts := make([]*Result, len(groups))
	skipped := make([]map[string]int, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, grp := range groups {
		g.Go(func() error {
			res, skip, err := e.runGroup(gctx, grp.name, grp.members)
			if err != nil {
				return fmt.Errorf("group %s: %w", grp.name, err)
			}
			parts[i], skipped[i] = res, skip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Result{}
	skip := make(map[string]int)
	for i, p := range parts {
		out.Ledger = append(out.Ledger, p.Ledger...)
		out.Units = append(out.Units, p.Units...)
		for a, n := range skipped[i] {
			skip[a] += n
		}
	}
	slices.SortStableFunc(out.Ledger, func(a, b LedgerRow) int {
		return cmp.Or(cmp.Compare(a.Area, b.Area), cmp.Compare(a.Year, b.Year), cmp.Compare(a.Day, b.Day), cmp.Compare(a.Hour, b.Hour))
	})
	out.Areas = e.summarize(out.Ledger, skip)
	e.logger.Info("simulation finished", slog.Int("rows", len(out.Ledger)))
	return out, nil
}

type group struct {
	name    string
	members []string
}

func (e *Engine) groups() []group {
	byName := make(map[string][]string)
	for _, a := range e.sc.Areas() {
		name := a.Code
		if g, ok := e.opts.Groups[a.Code]; ok && g != "" {
			name = g
		}
		byName[name] = append(byName[name], a.Code)
	}
	out := make([]group, 0, len(byName))
	for name, members := range byName {
		sort.Strings(members)
		out = append(out, group{name: name, members: members})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (e *Engine) coupler(group string) auction.Coupler {
	if e.opts.Coupler != nil {
		if c := e.opts.Coupler(group); c != nil {
			return c
		}
	}
	return auction.IsolatedCoupler{Selector: e.opts.Selector}
}

func (e *Engine) runGroup(ctx context.Context, name string, members []string) (*Result, map[string]int, error) {
	logger := e.logger.With(slog.String("group", name))
	factory := bid.NewFactory(e.opts.Limits)
	coupler := e.coupler(name)
	out := &Result{}
	skipped := make(map[string]int)

	for year := e.opts.FirstYear; year <= e.opts.LastYear; year++ {
		for day := range e.opts.DaysPerYear {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			auctions := make([]*auction.DayAuction, 0, len(members))
			contexts := make(map[string]agent.Context, len(members))
			for _, code := range members {
				area, _ := e.sc.Area(code)
				actx := agent.Context{Area: area, Year: year, Day: day, Book: factory.NewBook(code, logger)}
				for _, a := range e.agents[code] {
					if err := a.Bid(actx); err != nil {
						return nil, nil, fmt.Errorf("%s %d day %d: %w", code, year, day, err)
					}
				}
				ds, err := actx.Book.DaySet()
				if err != nil {
					// Settlement errors stay inside the day.
					logger.Warn("area skipped for day", slog.String("area", code),
						slog.Int("year", year), slog.Int("day", day), slog.Any("error", err))
					skipped[code]++
					continue
				}
				auctions = append(auctions, auction.NewDayAuction(code, year, day, ds, e.opts.Limits, logger))
				contexts[code] = actx
			}
			if len(auctions) == 0 {
				continue
			}

			results, err := coupler.ClearCoupled(ctx, auctions)
			if err != nil {
				return nil, nil, fmt.Errorf("%d day %d: %w", year, day, err)
			}
			for _, res := range results {
				e.record(out, contexts[res.Area], res)
			}
		}
		logger.Info("year simulated", slog.Int("year", year))
	}
	return out, skipped, nil
}

func (e *Engine) record(out *Result, actx agent.Context, res *auction.DayResult) {
	for _, a := range e.agents[res.Area] {
		fills := a.Settle(actx, res)
		if !e.opts.KeepUnits {
			continue
		}
		for _, f := range fills {
			out.Units = append(out.Units, UnitRow{
				Area:   res.Area,
				Year:   res.Year,
				Day:    res.Day,
				Hour:   f.Hour,
				Unit:   f.Unit,
				Kind:   f.Kind,
				Action: f.Action,
				MW:     f.MW,
				Price:  f.Price,
				PNL:    f.PNL,
			})
		}
	}
	for h, hr := range res.Hours {
		blocks := 0
		for _, bb := range res.Blocks {
			if bb.Covers(h) {
				blocks++
			}
		}
		out.Ledger = append(out.Ledger, LedgerRow{
			Area:           res.Area,
			Year:           res.Year,
			Day:            res.Day,
			Hour:           h,
			HourOfYear:     calendar.HourOfYear(res.Day, h),
			Price:          hr.Price,
			Supply:         hr.Supply,
			Demand:         hr.Demand,
			MarginalBid:    hr.MarginalID(),
			AcceptedBlocks: blocks,
			Imbalance:      hr.Imbalance,
			Imbalanced:     hr.Imbalanced(),
		})
	}
}

func (e *Engine) summarize(ledger []LedgerRow, skipped map[string]int) []AreaSummary {
	byArea := make(map[string]*AreaSummary)
	var order []string
	for _, r := range ledger {
		s, ok := byArea[r.Area]
		if !ok {
			s = &AreaSummary{Area: r.Area, MinPrice: math.Inf(1), MaxPrice: math.Inf(-1)}
			byArea[r.Area] = s
			order = append(order, r.Area)
		}
		s.Hours++
		s.MeanPrice += r.Price
		s.MinPrice = math.Min(s.MinPrice, r.Price)
		s.MaxPrice = math.Max(s.MaxPrice, r.Price)
		s.TradedMWh += r.Supply
		if r.Imbalanced {
			s.ImbalancedHours++
		}
	}
	for _, a := range e.sc.Areas() {
		if _, ok := byArea[a.Code]; !ok && (skipped[a.Code] > 0 || len(e.agents[a.Code]) > 0) {
			byArea[a.Code] = &AreaSummary{Area: a.Code}
			order = append(order, a.Code)
		}
	}
	sort.Strings(order)

	out := make([]AreaSummary, 0, len(order))
	for _, code := range order {
		s := byArea[code]
		if s.Hours > 0 {
			s.MeanPrice /= float64(s.Hours)
		}
		s.SkippedDays = skipped[code]
		for _, a := range e.agents[code] {
			s.Units = append(s.Units, a.Summary()...)
		}
		out = append(out, *s)
	}
	return out
}
