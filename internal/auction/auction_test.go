package auction

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"dayahead-sim/internal/bid"
	"dayahead-sim/internal/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	if buf == nil {
		buf = &bytes.Buffer{}
	}
	return slog.New(slog.NewTextHandler(buf, nil))
}

func hourly(t *testing.T, f *bid.Factory, owner string, typ bid.Type, price, vol float64) *bid.HourlyBid {
	t.Helper()
	b, err := f.NewHourlyBid(owner, "DE", typ, 0, price, vol)
	require.NoError(t, err)
	return b
}

func TestClearHourSettlementScenario(t *testing.T) {
	f := bid.NewFactory(bid.DefaultLimits)
	demand := hourly(t, f, "load", bid.Ask, 100, 25)
	cheap := hourly(t, f, "hydro", bid.Sell, 20, 10)
	dear := hourly(t, f, "gas", bid.Sell, 30, 20)

	res := ClearHour(0, []*bid.HourlyBid{dear, demand, cheap}, nil, bid.DefaultLimits, testLogger(nil))

	assert.Equal(t, 30.0, res.Price)
	assert.Equal(t, 10.0, cheap.AcceptedVolume())
	assert.Equal(t, 15.0, dear.AcceptedVolume())
	assert.Equal(t, 25.0, demand.AcceptedVolume())
	assert.Same(t, dear, res.Marginal)
	assert.Equal(t, dear.ID(), res.MarginalID())
	assert.Equal(t, 25.0, res.Supply)
	assert.Equal(t, res.Supply, res.Demand)
	assert.False(t, res.Imbalanced())
	assert.True(t, cheap.Accepted())
}

func TestClearHour(t *testing.T) {
	f := bid.NewFactory(bid.DefaultLimits)

	t.Run("short supply priced by demand", func(t *testing.T) {
		load := hourly(t, f, "load", bid.Ask, 100, 40)
		s1 := hourly(t, f, "a", bid.Sell, 20, 10)
		s2 := hourly(t, f, "b", bid.Sell, 30, 20)
		res := ClearHour(0, []*bid.HourlyBid{load, s1, s2}, nil, bid.DefaultLimits, testLogger(nil))
		assert.Equal(t, 100.0, res.Price)
		assert.Same(t, load, res.Marginal)
		assert.Equal(t, 30.0, load.AcceptedVolume())
		assert.Equal(t, 30.0, res.Supply)
	})

	t.Run("worse bids rejected", func(t *testing.T) {
		load := hourly(t, f, "load", bid.Ask, 50, 10)
		s1 := hourly(t, f, "a", bid.Sell, 20, 10)
		s2 := hourly(t, f, "b", bid.Sell, 60, 20)
		res := ClearHour(0, []*bid.HourlyBid{load, s1, s2}, nil, bid.DefaultLimits, testLogger(nil))
		assert.Equal(t, 20.0, res.Price)
		assert.Same(t, s1, res.Marginal)
		assert.Zero(t, s2.AcceptedVolume())
		assert.False(t, s2.Accepted())
	})

	t.Run("no crossing", func(t *testing.T) {
		load := hourly(t, f, "load", bid.Ask, 10, 10)
		s := hourly(t, f, "a", bid.Sell, 20, 10)
		res := ClearHour(0, []*bid.HourlyBid{load, s}, nil, bid.DefaultLimits, testLogger(nil))
		assert.Equal(t, 20.0, res.Price)
		assert.Nil(t, res.Marginal)
		assert.Zero(t, res.Supply)
		assert.Empty(t, res.MarginalID())
	})

	t.Run("empty hour", func(t *testing.T) {
		res := ClearHour(5, nil, nil, bid.DefaultLimits, nil)
		assert.Equal(t, 5, res.Hour)
		assert.Zero(t, res.Price)
	})

	t.Run("equal price follows total order", func(t *testing.T) {
		load := hourly(t, f, "load", bid.Ask, 100, 25)
		small := hourly(t, f, "a", bid.Sell, 30, 10)
		large := hourly(t, f, "b", bid.Sell, 30, 20)
		res := ClearHour(0, []*bid.HourlyBid{load, small, large}, nil, bid.DefaultLimits, testLogger(nil))
		assert.Equal(t, 30.0, res.Price)
		assert.Equal(t, 20.0, large.AcceptedVolume())
		assert.Equal(t, 5.0, small.AcceptedVolume())
		assert.Same(t, small, res.Marginal)
	})
}

// day builds a DaySet with the same hourly bids in every hour.
func day(t *testing.T, f *bid.Factory, demand, supplyPrice, supplyVol float64, blocks func(*bid.Book)) *bid.DaySet {
	t.Helper()
	book := f.NewBook("DE", testLogger(nil))
	for h := range calendar.HoursPerDay {
		_, err := book.Hourly("load", bid.Ask, h, bid.DefaultLimits.Max, demand)
		require.NoError(t, err)
		if supplyVol > 0 {
			_, err = book.Hourly("gas", bid.Sell, h, supplyPrice, supplyVol)
			require.NoError(t, err)
		}
	}
	if blocks != nil {
		blocks(book)
	}
	ds, err := book.DaySet()
	require.NoError(t, err)
	return ds
}

func TestCheckBlockContract(t *testing.T) {
	f := bid.NewFactory(bid.DefaultLimits)
	bb, err := f.NewBlockBid("coal", "DE", bid.Sell, 0, 24, 30, 10)
	require.NoError(t, err)

	assert.NoError(t, CheckBlockContract(bb, 0))
	assert.NoError(t, CheckBlockContract(bb, 10))
	assert.ErrorIs(t, CheckBlockContract(bb, 4), bid.ErrPartialBlock)
}

func TestIsFeasible(t *testing.T) {
	f := bid.NewFactory(bid.DefaultLimits)
	var fits, tooBig *bid.BlockBid
	ds := day(t, f, 20, 50, 100, func(b *bid.Book) {
		fits, _ = b.Block("coal", bid.Sell, 0, 24, 30, 10)
		tooBig, _ = b.Block("nuclear", bid.Sell, 8, 4, 10, 30)
	})
	d := NewDayAuction("DE", 2030, 0, ds, bid.DefaultLimits, testLogger(nil))

	assert.True(t, d.IsFeasible(nil))
	assert.True(t, d.IsFeasible([]*bid.BlockBid{fits}))
	assert.False(t, d.IsFeasible([]*bid.BlockBid{tooBig}))
	assert.False(t, d.IsFeasible([]*bid.BlockBid{fits, tooBig}))

	// the check is a dry run
	assert.False(t, fits.Accepted())
	for h := range calendar.HoursPerDay {
		for _, hb := range ds.Hour(h) {
			assert.Zero(t, hb.AcceptedVolume())
		}
	}
}

func TestBlocksMustBeMatchedInFull(t *testing.T) {
	f := bid.NewFactory(bid.DefaultLimits)
	var a, b *bid.BlockBid
	ds := day(t, f, 10, 0, 0, func(bk *bid.Book) {
		a, _ = bk.Block("coal", bid.Sell, 0, 24, 20, 10)
		b, _ = bk.Block("lignite", bid.Sell, 0, 24, 20, 10)
	})
	d := NewDayAuction("DE", 2030, 0, ds, bid.DefaultLimits, testLogger(nil))

	assert.True(t, d.IsFeasible([]*bid.BlockBid{a}))
	assert.True(t, d.IsFeasible([]*bid.BlockBid{b}))
	assert.False(t, d.IsFeasible([]*bid.BlockBid{a, b}), "second block left unmatched")

	res, err := ClearDay(d, nil)
	require.NoError(t, err)
	assert.Equal(t, []*bid.BlockBid{a}, res.Blocks)
	assert.Equal(t, 10.0, a.AcceptedVolume())
	assert.Zero(t, b.AcceptedVolume())
	for h, hr := range res.Hours {
		assert.False(t, hr.Imbalanced(), "hour %d", h)
		assert.Equal(t, 10.0, hr.Supply, "hour %d", h)
		assert.Equal(t, 20.0, hr.Price, "hour %d", h)
	}
}

func TestApplyAcceptedRejectsForeignBlocks(t *testing.T) {
	f := bid.NewFactory(bid.DefaultLimits)
	ds := day(t, f, 20, 50, 100, nil)
	foreign, err := f.NewBlockBid("x", "FR", bid.Sell, 0, 2, 10, 1)
	require.NoError(t, err)

	d := NewDayAuction("DE", 2030, 0, ds, bid.DefaultLimits, testLogger(nil))
	assert.Error(t, d.ApplyAccepted([]*bid.BlockBid{foreign}))
}

func TestClearDayGreedy(t *testing.T) {
	f := bid.NewFactory(bid.DefaultLimits)
	var cheap, dear *bid.BlockBid
	ds := day(t, f, 30, 50, 100, func(b *bid.Book) {
		cheap, _ = b.Block("coal", bid.Sell, 0, 24, 20, 10)
		dear, _ = b.Block("oil", bid.Sell, 6, 4, 80, 5)
	})
	d := NewDayAuction("DE", 2030, 10, ds, bid.DefaultLimits, testLogger(nil))

	res, err := ClearDay(d, nil)
	require.NoError(t, err)
	assert.True(t, cheap.Accepted())
	assert.Equal(t, 10.0, cheap.AcceptedVolume())
	assert.False(t, dear.Accepted())
	assert.Equal(t, []*bid.BlockBid{cheap}, res.Blocks)

	for h, hr := range res.Hours {
		assert.Equal(t, 50.0, hr.Price, "hour %d", h)
		assert.Equal(t, 30.0, hr.Supply, "hour %d", h)
		assert.Equal(t, 30.0, hr.Demand, "hour %d", h)
		assert.False(t, hr.Imbalanced())
		gas := ds.Hour(h)[1]
		assert.Equal(t, 20.0, gas.AcceptedVolume())
		assert.Same(t, gas, hr.Marginal)
	}
	assert.Len(t, res.Prices(), calendar.HoursPerDay)
}

func TestClearDayFallsBackOnInfeasibleSelection(t *testing.T) {
	var buf bytes.Buffer
	f := bid.NewFactory(bid.DefaultLimits)
	var tooBig *bid.BlockBid
	ds := day(t, f, 20, 50, 100, func(b *bid.Book) {
		tooBig, _ = b.Block("nuclear", bid.Sell, 0, 24, 10, 30)
	})
	d := NewDayAuction("DE", 2030, 0, ds, bid.DefaultLimits, testLogger(&buf))

	sel := SelectorFunc(func(*DayAuction) ([]*bid.BlockBid, error) { return []*bid.BlockBid{tooBig}, nil })
	res, err := ClearDay(d, sel)
	require.NoError(t, err)
	assert.False(t, tooBig.Accepted())
	assert.Empty(t, res.Blocks)
	assert.Equal(t, 20.0, res.Hours[0].Supply)
	assert.Contains(t, buf.String(), "block selection rejected")
}

func TestForcedImbalanceIsLogged(t *testing.T) {
	var buf bytes.Buffer
	f := bid.NewFactory(bid.DefaultLimits)
	var tooBig *bid.BlockBid
	ds := day(t, f, 20, 50, 0, func(b *bid.Book) {
		tooBig, _ = b.Block("nuclear", bid.Sell, 0, 2, 10, 30)
	})
	d := NewDayAuction("DE", 2030, 0, ds, bid.DefaultLimits, testLogger(&buf))

	// bypass the selector to force an unbalanced block into the day
	require.NoError(t, d.ApplyAccepted([]*bid.BlockBid{tooBig}))
	res := d.Clear()

	assert.True(t, res.Hours[0].Imbalanced())
	assert.InDelta(t, 10.0, res.Hours[0].Imbalance, 1e-9)
	assert.Equal(t, res.Hours[0].Supply, res.Hours[0].Demand)
	assert.False(t, res.Hours[2].Imbalanced())
	assert.Contains(t, buf.String(), "settlement imbalance")
}

func TestRejectAllBlocks(t *testing.T) {
	f := bid.NewFactory(bid.DefaultLimits)
	var cheap *bid.BlockBid
	ds := day(t, f, 30, 50, 100, func(b *bid.Book) {
		cheap, _ = b.Block("coal", bid.Sell, 0, 24, 20, 10)
	})
	res, err := ClearDay(NewDayAuction("DE", 2030, 0, ds, bid.DefaultLimits, testLogger(nil)), RejectAllBlocks)
	require.NoError(t, err)
	assert.False(t, cheap.Accepted())
	assert.Equal(t, 30.0, res.Hours[3].Supply)
}

func TestIsolatedCoupler(t *testing.T) {
	f := bid.NewFactory(bid.DefaultLimits)
	days := []*DayAuction{
		NewDayAuction("DE", 2030, 0, day(t, f, 20, 50, 100, nil), bid.DefaultLimits, testLogger(nil)),
		NewDayAuction("FR", 2030, 0, day(t, f, 20, 70, 100, nil), bid.DefaultLimits, testLogger(nil)),
	}

	res, err := IsolatedCoupler{}.ClearCoupled(context.Background(), days)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "DE", res[0].Area)
	assert.Equal(t, 50.0, res[0].Hours[0].Price)
	assert.Equal(t, 70.0, res[1].Hours[0].Price)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = IsolatedCoupler{}.ClearCoupled(ctx, days)
	assert.ErrorIs(t, err, context.Canceled)
}
