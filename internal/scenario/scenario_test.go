package scenario

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"

	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/timeseries"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sid = "base"

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func flat(v float64) []float64 {
	p := make([]float64, calendar.HoursPerYear)
	for i := range p {
		p[i] = v
	}
	return p
}

// daily returns a profile whose value is base + hour of day.
func daily(base float64) []float64 {
	p := make([]float64, calendar.HoursPerYear)
	for i := range p {
		p[i] = base + float64(i%calendar.HoursPerDay)
	}
	return p
}

func seed() *MemorySource {
	m := NewMemorySource()
	for _, area := range []string{"DE", "FR"} {
		m.PutProfile(sid, Filter{Dataset: DatasetDemand, Area: area}, 2020, daily(1000))
		m.PutProfile(sid, Filter{Dataset: DatasetDemand, Area: area}, 2030, daily(2000))
		m.PutYearly(sid, Filter{Dataset: DatasetFuelPrice, Area: area, Key: "gas"}, 2020, 20)
		m.PutYearly(sid, Filter{Dataset: DatasetFuelPrice, Area: area, Key: "gas"}, 2030, 40)
	}
	m.PutYearly(sid, Filter{Dataset: DatasetCarbonPrice, Area: "DE"}, 2000, 99)
	m.PutYearly(sid, Filter{Dataset: DatasetCarbonPrice, Area: "DE"}, 2010, 10)
	m.PutYearly(sid, Filter{Dataset: DatasetCarbonPrice, Area: "DE"}, 2020, 30)

	m.PutProfile(sid, Filter{Dataset: DatasetCrossBorderFlow, Area: "DE", Key: "FR"}, 2020, flat(100))

	m.PutYearly(sid, Filter{Dataset: DatasetRenewableCapacity, Area: "DE", Key: "wind"}, 2020, 1000)
	m.PutYearly(sid, Filter{Dataset: DatasetRenewableCapacity, Area: "DE", Key: "wind"}, 2025, 1500)
	m.PutYearly(sid, Filter{Dataset: DatasetRenewableFullLoadHours, Area: "DE", Key: "wind"}, 2020, 2000)
	m.PutProfile(sid, Filter{Dataset: DatasetRenewableProfile, Area: "DE", Key: "wind"}, 2020, flat(1))

	m.PutYearly(sid, Filter{Dataset: DatasetInterconnectorCapacity, Area: "DE", Key: "FR"}, 2020, 3000)
	m.PutYearly(sid, Filter{Dataset: DatasetInterconnectorCapacity, Area: "DE", Key: "FR"}, 2025, 4000)
	return m
}

func options() Options {
	return Options{
		ScenarioID: sid,
		FirstYear:  2000,
		LastYear:   2035,
		Areas: []AreaSpec{
			{Code: "DE", Neighbours: []string{"FR", "PL"}},
			{Code: "FR", Neighbours: []string{"DE"}},
		},
		Links:          []Link{{From: "DE", To: "FR"}, {From: "FR", To: "DE"}, {From: "DE", To: "XX"}},
		Fuels:          []string{"gas"},
		RenewableTypes: []string{"wind", "solar"},
		Workers:        2,
	}
}

func load(t *testing.T) *Scenario {
	t.Helper()
	sc, err := Load(context.Background(), seed(), options(), quiet())
	require.NoError(t, err)
	return sc
}

func TestLoadBuildsEveryArea(t *testing.T) {
	sc := load(t)
	areas := sc.Areas()
	require.Len(t, areas, 2)
	assert.Equal(t, "DE", areas[0].Code)
	assert.Equal(t, "FR", areas[1].Code)
	for _, a := range areas {
		assert.NotNil(t, a.Demand)
		assert.NotNil(t, a.Fuels)
		assert.NotNil(t, a.Carbon)
		assert.NotNil(t, a.Flows)
		assert.NotNil(t, a.Renewables)
	}
	assert.True(t, sc.CoversYear(2035))
	assert.False(t, sc.CoversYear(2036))
}

func TestDemandAccessors(t *testing.T) {
	de, _ := load(t).Area("DE")
	d := de.Demand

	assert.Equal(t, 1005.0, d.Hourly(2020, 5))
	assert.InDelta(t, 1505.0, d.Hourly(2025, 5), 1e-9)
	assert.Equal(t, 2005.0, d.Hourly(2035, 5))
	assert.Equal(t, 1005.0, d.Hourly(2000, 5))

	day := d.DailyRange(2020, 3)
	require.Len(t, day, calendar.HoursPerDay)
	assert.Equal(t, 1000.0, day[0])
	assert.Equal(t, 1023.0, day[23])

	// 365 days of sum(base + 0..23)
	assert.InDelta(t, float64(calendar.DaysPerYear)*(24*1000+276), d.YearlySum(2020), 1e-6)
}

func TestFuelPrices(t *testing.T) {
	de, _ := load(t).Area("DE")
	p, ok := de.Fuels.Price("gas", 2025)
	require.True(t, ok)
	assert.InDelta(t, 30.0, p, 1e-9)
	p, _ = de.Fuels.Price("gas", 2035)
	assert.Equal(t, 40.0, p)
	_, ok = de.Fuels.Price("coal", 2025)
	assert.False(t, ok)
	assert.Equal(t, []string{"gas"}, de.Fuels.Fuels())
}

func TestCarbonZeroBeforeMarketStart(t *testing.T) {
	sc := load(t)
	de, _ := sc.Area("DE")
	assert.Equal(t, 0.0, de.Carbon.Price(2000))
	assert.Equal(t, 0.0, de.Carbon.Price(2004))
	// the pre-start sample is ignored, so 2005..2010 repeats the first valid one
	assert.Equal(t, 10.0, de.Carbon.Price(2005))
	assert.InDelta(t, 20.0, de.Carbon.Price(2015), 1e-9)
	assert.Equal(t, 30.0, de.Carbon.Price(2035))

	fr, _ := sc.Area("FR")
	assert.Equal(t, 0.0, fr.Carbon.Price(2030))
}

func TestCrossBorderFlows(t *testing.T) {
	de, _ := load(t).Area("DE")
	assert.Equal(t, 100.0, de.Flows.Hourly("FR", 2030, 10))
	assert.Equal(t, 0.0, de.Flows.Hourly("PL", 2030, 10))
	assert.Equal(t, 100.0, de.Flows.NetImport(2030, 10))
}

func TestRenewableManager(t *testing.T) {
	de, _ := load(t).Area("DE")
	rm := de.Renewables
	assert.Equal(t, []string{"wind"}, rm.Types())

	assert.Equal(t, 1000.0, rm.Capacity("wind", 2010))
	assert.InDelta(t, 2000.0, rm.Capacity("wind", 2030), 1e-9)
	assert.Equal(t, 0.0, rm.Capacity("solar", 2030))

	// 1000 MW * 2000 h * 1.0 spread evenly over the year
	want := 1000.0 * 2000 / calendar.HoursPerYear
	assert.InDelta(t, want, rm.Load("wind", 2020, 100), 1e-9)
	assert.InDelta(t, want, rm.TotalLoad(2020, 100), 1e-9)
}

func TestResidualDemand(t *testing.T) {
	de, _ := load(t).Area("DE")
	wind := 1000.0 * 2000 / calendar.HoursPerYear
	assert.InDelta(t, 1000.0-wind-100, de.ResidualDemand(2020, 0), 1e-9)
}

func TestInterconnectors(t *testing.T) {
	sc := load(t)
	require.NotNil(t, sc.Interconnectors)
	assert.Equal(t, []Link{{From: "DE", To: "FR"}}, sc.Interconnectors.Links())
	assert.InDelta(t, 6000.0, sc.Interconnectors.Capacity("DE", "FR", 2035), 1e-9)
	assert.Equal(t, 3000.0, sc.Interconnectors.Capacity("DE", "FR", 2000))
	assert.Equal(t, 0.0, sc.Interconnectors.Capacity("FR", "DE", 2030))
}

func TestMissingDemandIsFatal(t *testing.T) {
	opts := options()
	opts.Areas = append(opts.Areas, AreaSpec{Code: "PL"})
	_, err := Load(context.Background(), seed(), opts, quiet())
	assert.ErrorIs(t, err, ErrRequiredSeriesEmpty)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestMissingFuelIsFatal(t *testing.T) {
	opts := options()
	opts.Fuels = []string{"gas", "lignite"}
	_, err := Load(context.Background(), seed(), opts, quiet())
	assert.ErrorIs(t, err, ErrRequiredSeriesEmpty)
}

func TestFuelsAreRequiredPerArea(t *testing.T) {
	src := seed()
	src.PutYearly(sid, Filter{Dataset: DatasetFuelPrice, Area: "DE", Key: "lignite"}, 2020, 5)

	opts := options()
	opts.Fuels = nil
	opts.Areas[0].Fuels = []string{"gas", "lignite"}
	opts.Areas[1].Fuels = []string{"gas"}
	sc, err := Load(context.Background(), src, opts, quiet())
	require.NoError(t, err)

	de, _ := sc.Area("DE")
	fr, _ := sc.Area("FR")
	assert.Equal(t, []string{"gas", "lignite"}, de.Fuels.Fuels())
	assert.Equal(t, []string{"gas"}, fr.Fuels.Fuels())
	_, ok := fr.Fuels.Price("lignite", 2020)
	assert.False(t, ok)

	opts.Areas[1].Fuels = []string{"gas", "lignite"}
	_, err = Load(context.Background(), src, opts, quiet())
	assert.ErrorIs(t, err, ErrRequiredSeriesEmpty)
}

func TestCorruptOptionalSeriesIsFatal(t *testing.T) {
	t.Run("carbon", func(t *testing.T) {
		src := seed()
		src.PutYearly(sid, Filter{Dataset: DatasetCarbonPrice, Area: "DE"}, 2015, math.NaN())
		sc, err := Load(context.Background(), src, options(), quiet())
		assert.ErrorIs(t, err, timeseries.ErrCorruptSample)
		assert.Nil(t, sc)
	})

	t.Run("flows", func(t *testing.T) {
		src := seed()
		bad := flat(100)
		bad[3] = math.NaN()
		src.PutProfile(sid, Filter{Dataset: DatasetCrossBorderFlow, Area: "DE", Key: "FR"}, 2025, bad)
		_, err := Load(context.Background(), src, options(), quiet())
		assert.ErrorIs(t, err, timeseries.ErrCorruptSample)
	})
}

func TestMissingCarbonMeansNoMarket(t *testing.T) {
	fr, _ := load(t).Area("FR")
	assert.Equal(t, 0.0, fr.Carbon.Price(2020))
	assert.Equal(t, 0.0, fr.Carbon.Price(2035))
}

func TestCorruptRequiredSeriesIsFatal(t *testing.T) {
	src := seed()
	bad := daily(1)
	bad[7] = math.Inf(1)
	src.PutProfile(sid, Filter{Dataset: DatasetDemand, Area: "FR"}, 2025, bad)
	_, err := Load(context.Background(), src, options(), quiet())
	assert.ErrorIs(t, err, timeseries.ErrCorruptSample)
}

func TestLoadRejectsBadOptions(t *testing.T) {
	opts := options()
	opts.FirstYear, opts.LastYear = 2030, 2020
	_, err := Load(context.Background(), seed(), opts, quiet())
	assert.ErrorIs(t, err, timeseries.ErrInvalidRange)

	opts = options()
	opts.Areas = nil
	_, err = Load(context.Background(), seed(), opts, quiet())
	assert.Error(t, err)
}

func TestAreaValues(t *testing.T) {
	de, _ := load(t).Area("DE")

	v, err := de.Values(DatasetDemand, "", 2020)
	require.NoError(t, err)
	assert.Len(t, v, calendar.HoursPerYear)
	v[0] = -1
	assert.Equal(t, 1000.0, de.Demand.Hourly(2020, 0))

	v, err = de.Values(DatasetFuelPrice, "gas", 2030)
	require.NoError(t, err)
	assert.Equal(t, []float64{40}, v)

	_, err = de.Values(DatasetFuelPrice, "coal", 2030)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	v, err = de.Values(DatasetRenewableFullLoadHours, "wind", 2030)
	require.NoError(t, err)
	assert.Equal(t, []float64{2000}, v)

	v, err = de.Values(DatasetRenewableUtilisation, "wind", 2030)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, v)

	_, err = de.Values(DatasetRenewableUtilisation, "solar", 2030)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = de.Values("weather", "", 2030)
	assert.ErrorContains(t, err, DatasetInterconnectorCapacity)
}

func TestScenarioValues(t *testing.T) {
	sc := load(t)

	v, err := sc.Values("DE", DatasetInterconnectorCapacity, "FR", 2020)
	require.NoError(t, err)
	assert.Equal(t, []float64{3000}, v)

	_, err = sc.Values("FR", DatasetInterconnectorCapacity, "DE", 2020)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	v, err = sc.Values("DE", DatasetDemand, "", 2020)
	require.NoError(t, err)
	assert.Len(t, v, calendar.HoursPerYear)

	_, err = sc.Values("DE", DatasetDemand, "", 2036)
	assert.Error(t, err)

	_, err = sc.Values("XX", DatasetDemand, "", 2020)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
