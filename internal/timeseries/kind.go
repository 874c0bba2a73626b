package timeseries

import (
	"fmt"
	"math"

	"dayahead-sim/internal/calendar"
)

// Kind supplies the arithmetic a Store needs for its sample type. Scalar and
// Profile are the two kinds in use; a profile is treated as one value, so a
// year is always interpolated from whole neighbouring profiles.
type Kind[T any] interface {
	// Lerp returns a + (b-a)*num/den.
	Lerp(a, b T, num, den float64) T
	// AtLeast returns v raised to floor where it falls below it.
	AtLeast(v, floor T) T
	// Check rejects values that must not enter a dense series.
	Check(v T) error
	// Clone returns a copy the store can own.
	Clone(v T) T
}

// Scalar is the Kind of yearly float samples.
type Scalar struct{}

func (Scalar) Lerp(a, b float64, num, den float64) float64 {
	return a + (b-a)*num/den
}

func (Scalar) AtLeast(v, floor float64) float64 {
	if v < floor {
		return floor
	}
	return v
}

func (Scalar) Check(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrCorruptSample, v)
	}
	return nil
}

func (Scalar) Clone(v float64) float64 { return v }

// Profile is the Kind of hourly profiles with calendar.HoursPerYear values.
type Profile struct{}

func (Profile) Lerp(a, b []float64, num, den float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + (b[i]-a[i])*num/den
	}
	return out
}

func (Profile) AtLeast(v, floor []float64) []float64 {
	for i := range v {
		if v[i] < floor[i] {
			v[i] = floor[i]
		}
	}
	return v
}

func (Profile) Check(v []float64) error {
	if len(v) != calendar.HoursPerYear {
		return fmt.Errorf("%w: got %d values, want %d", ErrProfileLength, len(v), calendar.HoursPerYear)
	}
	for h, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: hour %d is %v", ErrCorruptSample, h, x)
		}
	}
	return nil
}

func (Profile) Clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
