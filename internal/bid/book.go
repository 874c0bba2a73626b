package bid

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"dayahead-sim/internal/calendar"
)

// Factory builds validated bids for one simulation run. It owns the
// sequence counter that makes the total order deterministic, so runs in the
// same process do not influence each other.
type Factory struct {
	limits Limits
	seq    atomic.Uint64
}

func NewFactory(limits Limits) *Factory {
	return &Factory{limits: limits}
}

func (f *Factory) Limits() Limits { return f.limits }

// NewHourlyBid returns a bid for hour of day h or a *RejectError.
func (f *Factory) NewHourlyBid(owner, area string, typ Type, h int, price, volume float64) (*HourlyBid, error) {
	if err := validate(typ, price, volume, f.limits); err != nil {
		return nil, err
	}
	if !validHour(h) {
		return nil, reject(ReasonInvalidHour, "%d", h)
	}
	return &HourlyBid{base: f.base(owner, area, typ, price, volume), hour: h}, nil
}

// NewBlockBid returns a bid over [start, start+length-1] or a *RejectError.
func (f *Factory) NewBlockBid(owner, area string, typ Type, start, length int, price, volume float64) (*BlockBid, error) {
	if err := validate(typ, price, volume, f.limits); err != nil {
		return nil, err
	}
	if err := validWindow(start, length); err != nil {
		return nil, err
	}
	return &BlockBid{base: f.base(owner, area, typ, price, volume), start: start, length: length}, nil
}

func (f *Factory) base(owner, area string, typ Type, price, volume float64) base {
	return base{seq: f.seq.Add(1), owner: owner, area: area, typ: typ, price: price, volume: volume}
}

// Book collects the bids of one area for one day. Invalid bids are logged
// and dropped.
type Book struct {
	factory *Factory
	area    string
	logger  *slog.Logger

	hourly  []*HourlyBid
	blocks  []*BlockBid
	dropped int
}

func (f *Factory) NewBook(area string, logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.Default()
	}
	return &Book{factory: f, area: area, logger: logger}
}

// Area is the market area the book collects bids for.
func (b *Book) Area() string { return b.area }

// Limits are the price limits of the book's factory.
func (b *Book) Limits() Limits { return b.factory.limits }

// Hourly adds an hourly bid. The returned error is informational: an
// invalid bid is already dropped.
func (b *Book) Hourly(owner string, typ Type, h int, price, volume float64) (*HourlyBid, error) {
	hb, err := b.factory.NewHourlyBid(owner, b.area, typ, h, price, volume)
	if err != nil {
		b.drop(owner, err)
		return nil, err
	}
	b.hourly = append(b.hourly, hb)
	return hb, nil
}

// Block adds a block bid.
func (b *Book) Block(owner string, typ Type, start, length int, price, volume float64) (*BlockBid, error) {
	bb, err := b.factory.NewBlockBid(owner, b.area, typ, start, length, price, volume)
	if err != nil {
		b.drop(owner, err)
		return nil, err
	}
	b.blocks = append(b.blocks, bb)
	return bb, nil
}

func (b *Book) drop(owner string, err error) {
	b.dropped++
	b.logger.Warn("bid dropped", slog.String("area", b.area), slog.String("owner", owner), slog.Any("error", err))
}

// Dropped is the number of rejected bids.
func (b *Book) Dropped() int { return b.dropped }

// DaySet closes the book. It fails with ErrNoValidBids if nothing valid was
// added.
func (b *Book) DaySet() (*DaySet, error) {
	if len(b.hourly) == 0 && len(b.blocks) == 0 {
		return nil, fmt.Errorf("bid: area %s: %w (%d dropped)", b.area, ErrNoValidBids, b.dropped)
	}
	ds := &DaySet{Area: b.area, Blocks: b.blocks}
	for _, hb := range b.hourly {
		ds.hours[hb.hour] = append(ds.hours[hb.hour], hb)
	}
	return ds, nil
}

// DaySet is the valid bid set of one area for one day.
type DaySet struct {
	Area   string
	Blocks []*BlockBid

	hours [calendar.HoursPerDay][]*HourlyBid
}

// Hour returns the hourly bids of hour of day h.
func (d *DaySet) Hour(h int) []*HourlyBid { return d.hours[h] }

// BlocksCovering returns the block bids whose window contains h.
func (d *DaySet) BlocksCovering(h int) []*BlockBid {
	var out []*BlockBid
	for _, bb := range d.Blocks {
		if bb.Covers(h) {
			out = append(out, bb)
		}
	}
	return out
}

// All returns every bid of the day, hourly bids first.
func (d *DaySet) All() []Bid {
	var out []Bid
	for _, hs := range d.hours {
		for _, hb := range hs {
			out = append(out, hb)
		}
	}
	for _, bb := range d.Blocks {
		out = append(out, bb)
	}
	return out
}

// Len is the number of bids in the set.
func (d *DaySet) Len() int {
	n := len(d.Blocks)
	for _, hs := range d.hours {
		n += len(hs)
	}
	return n
}
