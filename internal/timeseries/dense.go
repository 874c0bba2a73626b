package timeseries

import "fmt"

// Dense is a frozen, gap-free series with one value per year in
// [FirstYear, LastYear]. It is immutable and safe to share between
// goroutines without locking. Values returned by At must not be modified.
type Dense[T any] struct {
	name   string
	first  int
	values []T
}

// At returns the value for year. Reading a year outside the built range is
// a programmer error and panics.
func (d *Dense[T]) At(year int) T {
	i := year - d.first
	if i < 0 || i >= len(d.values) {
		panic(fmt.Sprintf("timeseries: %s: year %d outside [%d, %d]", d.name, year, d.first, d.LastYear()))
	}
	return d.values[i]
}

func (d *Dense[T]) Name() string   { return d.name }
func (d *Dense[T]) FirstYear() int { return d.first }
func (d *Dense[T]) LastYear() int  { return d.first + len(d.values) - 1 }
func (d *Dense[T]) Len() int       { return len(d.values) }

// Covers reports whether year can be read with At.
func (d *Dense[T]) Covers(year int) bool {
	return year >= d.first && year <= d.LastYear()
}

// Constant builds a dense series that holds v for every year. Used for
// documented defaults such as a zero carbon price.
func Constant[T any](name string, first, last int, v T) *Dense[T] {
	if last < first {
		last = first
	}
	values := make([]T, last-first+1)
	for i := range values {
		values[i] = v
	}
	return &Dense[T]{name: name, first: first, values: values}
}

// Generate builds a dense series by calling fn once per year in
// [first, last]. Adapters use it for series derived from frozen inputs.
func Generate[T any](name string, first, last int, fn func(year int) T) *Dense[T] {
	if last < first {
		last = first
	}
	values := make([]T, 0, last-first+1)
	for y := first; y <= last; y++ {
		values = append(values, fn(y))
	}
	return &Dense[T]{name: name, first: first, values: values}
}

// Map derives a dense series from d over the same years.
func Map[T, U any](name string, d *Dense[T], fn func(year int, v T) U) *Dense[U] {
	return Generate(name, d.FirstYear(), d.LastYear(), func(y int) U {
		return fn(y, d.At(y))
	})
}
