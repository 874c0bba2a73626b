package simulation

import (
	"hash/fnv"
	"math"
	"math/rand/v2"

	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/config"
	"dayahead-sim/internal/model"
	"dayahead-sim/internal/scenario"
)

// SyntheticArea sizes one area of a synthetic scenario.
type SyntheticArea struct {
	Code       string
	PeakMW     float64
	WindMW     float64
	SolarMW    float64
	GasPrice   float64
	Neighbours []string
}

// Synthetic fills a MemorySource with a reproducible scenario: demand with
// daily and weekly shape growing 1% a year, wind and solar profiles,
// fuel and carbon price paths, scheduled flows and interconnectors between
// neighbours. Sample years are first and last; everything in between is
// left to reconstruction.
func Synthetic(id string, first, last int, areas []SyntheticArea) *scenario.MemorySource {
	src := scenario.NewMemorySource()
	years := []int{first, last}
	for _, a := range areas {
		rng := rand.New(rand.NewPCG(seedOf(a.Code), 2030))
		for _, y := range years {
			growth := math.Pow(1.01, float64(y-first))
			src.PutProfile(id, scenario.Filter{Dataset: scenario.DatasetDemand, Area: a.Code}, y, demandProfile(a.PeakMW*growth))
		}
		src.PutYearly(id, scenario.Filter{Dataset: scenario.DatasetFuelPrice, Area: a.Code, Key: "gas"}, first, a.GasPrice)
		src.PutYearly(id, scenario.Filter{Dataset: scenario.DatasetFuelPrice, Area: a.Code, Key: "gas"}, last, a.GasPrice*1.2)
		src.PutYearly(id, scenario.Filter{Dataset: scenario.DatasetFuelPrice, Area: a.Code, Key: "coal"}, first, 10)
		src.PutYearly(id, scenario.Filter{Dataset: scenario.DatasetCarbonPrice, Area: a.Code}, first, 60)
		src.PutYearly(id, scenario.Filter{Dataset: scenario.DatasetCarbonPrice, Area: a.Code}, last, 120)

		renewable(src, id, a.Code, "wind", first, last, a.WindMW, 2200, windProfile(rng))
		renewable(src, id, a.Code, "solar", first, last, a.SolarMW, 1000, solarProfile())

		for _, n := range a.Neighbours {
			link := scenario.Filter{Dataset: scenario.DatasetInterconnectorCapacity, Area: a.Code, Key: n}
			src.PutYearly(id, link, first, 0.05*a.PeakMW)
			src.PutYearly(id, link, last, 0.08*a.PeakMW)
			flow := make([]float64, calendar.HoursPerYear)
			for h := range flow {
				flow[h] = 0.02 * a.PeakMW * math.Sin(2*math.Pi*float64(h%calendar.HoursPerDay)/calendar.HoursPerDay)
			}
			src.PutProfile(id, scenario.Filter{Dataset: scenario.DatasetCrossBorderFlow, Area: a.Code, Key: n}, first, flow)
		}
	}
	return src
}

func renewable(src *scenario.MemorySource, id, area, typ string, first, last int, capacity, flh float64, profile []float64) {
	if capacity <= 0 {
		return
	}
	src.PutYearly(id, scenario.Filter{Dataset: scenario.DatasetRenewableCapacity, Area: area, Key: typ}, first, capacity)
	src.PutYearly(id, scenario.Filter{Dataset: scenario.DatasetRenewableCapacity, Area: area, Key: typ}, last, capacity*1.5)
	src.PutYearly(id, scenario.Filter{Dataset: scenario.DatasetRenewableFullLoadHours, Area: area, Key: typ}, first, flh)
	src.PutProfile(id, scenario.Filter{Dataset: scenario.DatasetRenewableProfile, Area: area, Key: typ}, first, profile)
}

func seedOf(code string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(code))
	return h.Sum64()
}

func demandProfile(peak float64) []float64 {
	p := make([]float64, calendar.HoursPerYear)
	for h := range p {
		hod := float64(h % calendar.HoursPerDay)
		day := h / calendar.HoursPerDay
		daily := 0.75 + 0.25*math.Sin(math.Pi*(hod-6)/12)
		if hod < 6 {
			daily = 0.6
		}
		weekly := 1.0
		if day%7 >= 5 {
			weekly = 0.85
		}
		seasonal := 1 + 0.1*math.Cos(2*math.Pi*float64(day)/calendar.DaysPerYear)
		p[h] = peak * daily * weekly * seasonal
	}
	return p
}

func solarProfile() []float64 {
	p := make([]float64, calendar.HoursPerYear)
	for h := range p {
		hod := float64(h % calendar.HoursPerDay)
		if hod >= 6 && hod <= 18 {
			p[h] = math.Sin(math.Pi * (hod - 6) / 12)
		}
	}
	return p
}

// windProfile is a mean-reverting random walk in [0, 1].
func windProfile(rng *rand.Rand) []float64 {
	p := make([]float64, calendar.HoursPerYear)
	v := 0.4
	for h := range p {
		v += 0.1*(0.4-v) + 0.08*rng.NormFloat64()
		v = math.Max(0, math.Min(1, v))
		p[h] = v
	}
	return p
}

// DemoConfig is the three-area run used by the demo command.
func DemoConfig() (*config.Config, []SyntheticArea) {
	c := config.Defaults()
	c.Name = "demo"
	c.ScenarioID = "synthetic"
	c.FirstYear, c.LastYear = 2025, 2030
	c.Simulation.FirstYear, c.Simulation.LastYear = 2025, 2026
	c.Simulation.DaysPerYear = 14
	c.Simulation.KeepUnits = true
	c.Source = config.SourceConfig{Kind: config.SourceFile, Path: "synthetic"}
	c.Areas = []config.AreaConfig{
		{Code: "DE", CouplingGroup: "cwe", Neighbours: []string{"FR"}},
		{Code: "FR", CouplingGroup: "cwe", Neighbours: []string{"DE"}},
		{Code: "PL"},
	}
	c.Links = []scenario.Link{{From: "DE", To: "FR"}, {From: "FR", To: "DE"}}
	c.RenewableTypes = []string{"wind", "solar"}
	for _, a := range []string{"DE", "FR", "PL"} {
		c.Plants = append(c.Plants,
			config.PlantConfig{Name: a + "/ccgt", Area: a, ThermalParams: model.ThermalParams{
				Fuel: "gas", CapacityMW: 50000, Efficiency: 0.55, EmissionFactor: 0.2, BlockMinMW: 2000, Availability: 0.95,
			}},
			config.PlantConfig{Name: a + "/coal", Area: a, ThermalParams: model.ThermalParams{
				Fuel: "coal", CapacityMW: 30000, Efficiency: 0.4, EmissionFactor: 0.34, Availability: 0.9,
			}},
		)
	}
	c.Storage = []config.StorageConfig{{
		Name: "DE/battery", Area: "DE", CycleHours: 4, InitialSOC: 0.5,
		StorageParams: model.StorageParams{
			EnergyCapacityMWh: 4000, PowerCapacityMW: 1000,
			ChargeEfficiency: 0.93, DischargeEfficiency: 0.93,
			MinSOC: 0.05, MaxSOC: 0.95, DegradationCostPerMWh: 2,
		},
	}}
	areas := []SyntheticArea{
		{Code: "DE", PeakMW: 70000, WindMW: 60000, SolarMW: 50000, GasPrice: 30, Neighbours: []string{"FR"}},
		{Code: "FR", PeakMW: 60000, WindMW: 20000, SolarMW: 15000, GasPrice: 32, Neighbours: []string{"DE"}},
		{Code: "PL", PeakMW: 25000, WindMW: 8000, SolarMW: 5000, GasPrice: 35},
	}
	return &c, areas
}
