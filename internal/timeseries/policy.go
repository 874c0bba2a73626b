package timeseries

import (
	"fmt"
	"strings"
)

// Policy selects how a store extends its samples past the last sampled year.
// Years before the first sample always repeat the first sample.
type Policy int

const (
	// Flat repeats the boundary sample.
	Flat Policy = iota
	// LinearTrendFloored extends the line through the last two samples and
	// never returns less than the last sample. Used for capacities that are
	// assumed to be non-decreasing.
	LinearTrendFloored
)

func (p Policy) String() string {
	switch p {
	case Flat:
		return "flat"
	case LinearTrendFloored:
		return "linear_trend_floored"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts the names produced by String.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flat":
		return Flat, nil
	case "linear_trend_floored", "trend":
		return LinearTrendFloored, nil
	default:
		return Flat, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}
