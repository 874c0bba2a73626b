// Package bid holds the day-ahead bid types, their validity rules and the
// merit-order total order used by settlement.
package bid

import (
	"fmt"
	"math"

	"dayahead-sim/internal/calendar"
)

// Type is the direction of a bid.
type Type int

const (
	// Ask is a demand bid: buy up to Volume at Price or lower.
	Ask Type = iota
	// Sell is a supply bid: sell up to Volume at Price or higher.
	Sell
)

func (t Type) String() string {
	switch t {
	case Ask:
		return "ASK"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Limits are the global price bounds of the market in EUR/MWh.
type Limits struct {
	Min float64
	Max float64
}

// DefaultLimits are the harmonised day-ahead price limits.
var DefaultLimits = Limits{Min: -500, Max: 3000}

// Contains reports whether p lies inside the limits.
func (l Limits) Contains(p float64) bool {
	return p >= l.Min && p <= l.Max
}

// Bid is the capability set shared by hourly and block bids.
type Bid interface {
	ID() string
	Seq() uint64
	Owner() string
	Area() string
	Type() Type
	Price() float64
	Volume() float64
	AcceptedVolume() float64
	Accepted() bool
	// Covers reports whether the bid is valid in hour of day h.
	Covers(h int) bool
	SetAcceptedVolume(v float64) error
}

type base struct {
	seq      uint64
	owner    string
	area     string
	typ      Type
	price    float64
	volume   float64
	accepted float64
	flag     bool
}

func (b *base) ID() string              { return fmt.Sprintf("%s#%d", b.owner, b.seq) }
func (b *base) Seq() uint64             { return b.seq }
func (b *base) Owner() string           { return b.owner }
func (b *base) Area() string            { return b.area }
func (b *base) Type() Type              { return b.typ }
func (b *base) Price() float64          { return b.price }
func (b *base) Volume() float64         { return b.volume }
func (b *base) AcceptedVolume() float64 { return b.accepted }
func (b *base) Accepted() bool          { return b.flag }

func (b *base) set(v float64) {
	b.accepted = v
	b.flag = v != 0
}

func validate(typ Type, price, volume float64, limits Limits) error {
	if typ != Ask && typ != Sell {
		return reject(ReasonUnknownType, "%d", int(typ))
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || math.IsNaN(volume) || math.IsInf(volume, 0) {
		return reject(ReasonNotFinite, "price %v volume %v", price, volume)
	}
	if !limits.Contains(price) {
		return reject(ReasonPriceOutOfRange, "%.2f not in [%.2f, %.2f]", price, limits.Min, limits.Max)
	}
	if volume == 0 {
		return reject(ReasonZeroVolume, "")
	}
	// Direction is carried by Type, not by the sign of the volume.
	if volume < 0 {
		return reject(ReasonNegativeVolume, "%.3f", volume)
	}
	return nil
}

// HourlyBid is valid in exactly one hour of the day and may be accepted
// partially.
type HourlyBid struct {
	base
	hour int
}

// Hour is the hour of day the bid is valid in.
func (b *HourlyBid) Hour() int { return b.hour }

func (b *HourlyBid) Covers(h int) bool { return h == b.hour }

// SetAcceptedVolume records the cleared volume, clamped to [0, Volume].
func (b *HourlyBid) SetAcceptedVolume(v float64) error {
	if v < 0 || v > b.volume+Epsilon {
		return fmt.Errorf("bid %s: accepted volume %.3f outside [0, %.3f]", b.ID(), v, b.volume)
	}
	b.set(math.Min(v, b.volume))
	return nil
}

func (b *HourlyBid) String() string {
	return fmt.Sprintf("%s %s %.3fMW@%.2f h%02d", b.ID(), b.typ, b.volume, b.price, b.hour)
}

// BlockBid covers a contiguous window of hours and is accepted for its full
// volume in every hour of the window or not at all.
type BlockBid struct {
	base
	start  int
	length int
}

// Start is the first hour of day of the window.
func (b *BlockBid) Start() int { return b.start }

// Length is the number of hours in the window.
func (b *BlockBid) Length() int { return b.length }

// End is the last hour of day of the window.
func (b *BlockBid) End() int { return b.start + b.length - 1 }

func (b *BlockBid) Covers(h int) bool { return h >= b.start && h <= b.End() }

// SetAcceptedVolume accepts 0 or the full volume. Any other value returns
// ErrPartialBlock and leaves the bid unchanged.
func (b *BlockBid) SetAcceptedVolume(v float64) error {
	switch {
	case math.Abs(v) <= Epsilon:
		b.set(0)
	case math.Abs(v-b.volume) <= Epsilon:
		b.set(b.volume)
	default:
		return fmt.Errorf("bid %s: %w: %.3f of %.3f MW", b.ID(), ErrPartialBlock, v, b.volume)
	}
	return nil
}

func (b *BlockBid) String() string {
	return fmt.Sprintf("%s %s %.3fMW@%.2f h%02d-h%02d", b.ID(), b.typ, b.volume, b.price, b.start, b.End())
}

// Epsilon is the volume tolerance in MW.
const Epsilon = 1e-6

func validHour(h int) bool { return h >= 0 && h < calendar.HoursPerDay }

func validWindow(start, length int) error {
	if length < 2 {
		return reject(ReasonInvalidWindow, "length %d < 2", length)
	}
	if start < 0 || start > calendar.HoursPerDay-2 {
		return reject(ReasonInvalidWindow, "start hour %d not in [0, %d]", start, calendar.HoursPerDay-2)
	}
	if start+length > calendar.HoursPerDay {
		return reject(ReasonInvalidWindow, "window %d+%d exceeds the day", start, length)
	}
	return nil
}
