// Package calendar maps simulation time onto composite integer keys.
//
// A simulated year always has 365 days of 24 hours; leap days are not modelled.
package calendar

import "fmt"

const (
	HoursPerDay  = 24
	DaysPerYear  = 365
	HoursPerYear = HoursPerDay * DaysPerYear // 8760
)

// Key is a composite (year, hourOfYear) index. It orders the same way
// simulated time does.
type Key int64

// KeyOf returns the key for hourOfYear in year.
func KeyOf(year, hourOfYear int) Key {
	return Key(int64(year)*HoursPerYear + int64(hourOfYear))
}

// KeyOfDay returns the key of hour-of-day h on day (0-based) of year.
func KeyOfDay(year, day, h int) Key {
	return KeyOf(year, HourOfYear(day, h))
}

// Year returns the year component of k.
func (k Key) Year() int {
	y := int64(k) / HoursPerYear
	if int64(k) < 0 && int64(k)%HoursPerYear != 0 {
		y--
	}
	return int(y)
}

// HourOfYear returns the hour-of-year component of k in [0, HoursPerYear).
func (k Key) HourOfYear() int {
	h := int64(k) % HoursPerYear
	if h < 0 {
		h += HoursPerYear
	}
	return int(h)
}

// Day returns the 0-based day of year of k.
func (k Key) Day() int { return k.HourOfYear() / HoursPerDay }

// HourOfDay returns the hour of day of k in [0, 24).
func (k Key) HourOfDay() int { return k.HourOfYear() % HoursPerDay }

func (k Key) String() string {
	return fmt.Sprintf("%d/%04d", k.Year(), k.HourOfYear())
}

// HourOfYear converts (day, hourOfDay) into an hour of year.
func HourOfYear(day, hourOfDay int) int {
	return day*HoursPerDay + hourOfDay
}

// DayStart returns the first hour-of-year of day.
func DayStart(day int) int { return day * HoursPerDay }

// ValidHourOfYear reports whether h addresses an hour inside a simulated year.
func ValidHourOfYear(h int) bool { return h >= 0 && h < HoursPerYear }

// ValidDay reports whether d addresses a day inside a simulated year.
func ValidDay(d int) bool { return d >= 0 && d < DaysPerYear }
