package model

import (
	"errors"
	"fmt"
)

// ThermalParams describes a fuel-fired plant.
// Units:
// - CapacityMW: net electrical MW
// - Efficiency: electrical output per thermal input, 0..1
// - EmissionFactor: t CO2 per MWh thermal input
// - BlockMinMW: must-run volume offered as a day block, 0 for none
// - Availability: share of capacity available, 0..1
type ThermalParams struct {
	Fuel           string  `yaml:"fuel" toml:"fuel" json:"fuel"`
	CapacityMW     float64 `yaml:"capacity_mw" toml:"capacity_mw" json:"capacity_mw"`
	Efficiency     float64 `yaml:"efficiency" toml:"efficiency" json:"efficiency"`
	EmissionFactor float64 `yaml:"emission_factor" toml:"emission_factor" json:"emission_factor"`
	BlockMinMW     float64 `yaml:"block_min_mw" toml:"block_min_mw" json:"block_min_mw"`
	Availability   float64 `yaml:"availability" toml:"availability" json:"availability"`
}

// Thermal is one plant with its running totals.
type Thermal struct {
	Name   string
	Params ThermalParams

	GeneratedMWh float64
	Revenue      float64
	FuelCost     float64
	CarbonCost   float64
}

func NewThermal(name string, params ThermalParams) (*Thermal, error) {
	if params.Availability == 0 {
		params.Availability = 1
	}
	t := &Thermal{Name: name, Params: params}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("thermal %s: %w", name, err)
	}
	return t, nil
}

func (t *Thermal) Validate() error {
	p := t.Params
	if p.Fuel == "" {
		return errors.New("Fuel must be set")
	}
	if p.CapacityMW <= 0 {
		return errors.New("CapacityMW must be > 0")
	}
	if p.Efficiency <= 0 || p.Efficiency > 1 {
		return errors.New("Efficiency must be in (0, 1]")
	}
	if p.EmissionFactor < 0 {
		return errors.New("EmissionFactor must be >= 0")
	}
	if p.Availability < 0 || p.Availability > 1 {
		return errors.New("Availability must be in [0, 1]")
	}
	if p.BlockMinMW < 0 || p.BlockMinMW > p.CapacityMW*p.Availability {
		return errors.New("BlockMinMW must be in [0, available capacity]")
	}
	return nil
}

// AvailableMW is the capacity the plant can offer in any hour.
func (t *Thermal) AvailableMW() float64 {
	return t.Params.CapacityMW * t.Params.Availability
}

// MarginalCost is the cost of one MWh electric in EUR given the fuel price
// in EUR/MWh thermal and the carbon price in EUR/t.
func (t *Thermal) MarginalCost(fuelPrice, carbonPrice float64) float64 {
	return fuelPrice/t.Params.Efficiency + carbonPrice*t.Params.EmissionFactor/t.Params.Efficiency
}

// Record books one hour of accepted generation.
func (t *Thermal) Record(mwh, price, fuelPrice, carbonPrice float64) {
	if mwh <= 0 {
		return
	}
	t.GeneratedMWh += mwh
	t.Revenue += mwh * price
	t.FuelCost += mwh * fuelPrice / t.Params.Efficiency
	t.CarbonCost += mwh * carbonPrice * t.Params.EmissionFactor / t.Params.Efficiency
}

// Profit is revenue minus fuel and carbon cost.
func (t *Thermal) Profit() float64 {
	return t.Revenue - t.FuelCost - t.CarbonCost
}
