// Package codec serialises scenario samples for byte-oriented backends
// (database blobs, cache values).
package codec

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"dayahead-sim/internal/calendar"
)

var ErrProfileLength = errors.New("codec: profile length")

// EncodeProfile packs one hourly profile.
func EncodeProfile(p []float64) ([]byte, error) {
	if len(p) != calendar.HoursPerYear {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrProfileLength, len(p), calendar.HoursPerYear)
	}
	return msgpack.Marshal(p)
}

// DecodeProfile is the inverse of EncodeProfile.
func DecodeProfile(b []byte) ([]float64, error) {
	var p []float64
	if err := msgpack.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("codec: decode profile: %w", err)
	}
	if len(p) != calendar.HoursPerYear {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrProfileLength, len(p), calendar.HoursPerYear)
	}
	return p, nil
}

// Encode packs any sample map for caching.
func Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode unpacks into v.
func Decode(b []byte, v any) error {
	return msgpack.Unmarshal(b, v)
}
