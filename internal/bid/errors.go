package bid

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBid matches every RejectError.
	ErrInvalidBid = errors.New("invalid bid")
	// ErrNoValidBids means a day's bid set is empty after filtering.
	ErrNoValidBids = errors.New("no valid bids")
	// ErrPartialBlock means a block bid was given a volume other than 0 or
	// its full volume.
	ErrPartialBlock = errors.New("partial block acceptance")
)

// Reason classifies why a bid was rejected.
type Reason string

const (
	ReasonPriceOutOfRange Reason = "price_out_of_range"
	ReasonNotFinite       Reason = "not_finite"
	ReasonZeroVolume      Reason = "zero_volume"
	ReasonNegativeVolume  Reason = "negative_volume"
	ReasonInvalidHour     Reason = "invalid_hour"
	ReasonInvalidWindow   Reason = "invalid_block_window"
	ReasonUnknownType     Reason = "unknown_type"
)

// RejectError is returned by the bid constructors instead of a bid.
type RejectError struct {
	Reason Reason
	Detail string
}

func (e *RejectError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invalid bid: %s", e.Reason)
	}
	return fmt.Sprintf("invalid bid: %s: %s", e.Reason, e.Detail)
}

func (e *RejectError) Is(target error) bool { return target == ErrInvalidBid }

func reject(r Reason, format string, args ...any) error {
	return &RejectError{Reason: r, Detail: fmt.Sprintf(format, args...)}
}
