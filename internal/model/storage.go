package model

import (
	"errors"
	"fmt"
	"math"
)

// StorageParams defines the physical and economic parameters of a storage
// unit.
// Units:
// - EnergyCapacityMWh: MWh
// - PowerCapacityMW: MW, same for charge and discharge
// - Efficiencies: 0..1
// - SOC: fraction 0..1
// - DegradationCostPerMWh: EUR/MWh throughput (charge + discharge)
type StorageParams struct {
	EnergyCapacityMWh     float64 `yaml:"energy_capacity_mwh" toml:"energy_capacity_mwh" json:"energy_capacity_mwh"`
	PowerCapacityMW       float64 `yaml:"power_capacity_mw" toml:"power_capacity_mw" json:"power_capacity_mw"`
	ChargeEfficiency      float64 `yaml:"charge_efficiency" toml:"charge_efficiency" json:"charge_efficiency"`
	DischargeEfficiency   float64 `yaml:"discharge_efficiency" toml:"discharge_efficiency" json:"discharge_efficiency"`
	MinSOC                float64 `yaml:"min_soc" toml:"min_soc" json:"min_soc"`
	MaxSOC                float64 `yaml:"max_soc" toml:"max_soc" json:"max_soc"`
	DegradationCostPerMWh float64 `yaml:"degradation_cost_per_mwh" toml:"degradation_cost_per_mwh" json:"degradation_cost_per_mwh"`
}

// RoundTripEfficiency is the share of charged energy that is sold again.
func (p StorageParams) RoundTripEfficiency() float64 {
	return p.ChargeEfficiency * p.DischargeEfficiency
}

// StorageState captures mutable state.
type StorageState struct {
	// SOC is the state of charge as a fraction [0,1].
	SOC float64
}

// Storage bundles params and state of one storage unit. It is owned by a
// single agent and not safe for concurrent use.
type Storage struct {
	Name   string
	Params StorageParams
	State  StorageState
}

func NewStorage(name string, params StorageParams, initialSOC float64) (*Storage, error) {
	s := &Storage{
		Name:   name,
		Params: params,
		State:  StorageState{SOC: initialSOC},
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("storage %s: %w", name, err)
	}
	return s, nil
}

func (s *Storage) Validate() error {
	p := s.Params
	if p.EnergyCapacityMWh <= 0 {
		return errors.New("EnergyCapacityMWh must be > 0")
	}
	if p.PowerCapacityMW <= 0 {
		return errors.New("PowerCapacityMW must be > 0")
	}
	if p.ChargeEfficiency <= 0 || p.ChargeEfficiency > 1 {
		return errors.New("ChargeEfficiency must be in (0, 1]")
	}
	if p.DischargeEfficiency <= 0 || p.DischargeEfficiency > 1 {
		return errors.New("DischargeEfficiency must be in (0, 1]")
	}
	if p.MinSOC < 0 || p.MaxSOC > 1 || p.MinSOC > p.MaxSOC {
		return errors.New("MinSOC/MaxSOC must satisfy 0<=MinSOC<=MaxSOC<=1")
	}
	if s.State.SOC < p.MinSOC || s.State.SOC > p.MaxSOC {
		return errors.New("initial SOC must be within [MinSOC, MaxSOC]")
	}
	if p.DegradationCostPerMWh < 0 {
		return errors.New("DegradationCostPerMWh must be >= 0")
	}
	return nil
}

// Clone returns an independent copy, used to plan a day without touching the
// real state.
func (s *Storage) Clone() *Storage {
	c := *s
	return &c
}

// Dispatch is a power setpoint for one hour.
// Convention: positive MW = discharge to grid, negative MW = charge from grid.
type Dispatch struct {
	PowerMW float64
}

// IntervalResult captures what happened in one hour.
type IntervalResult struct {
	PowerMW           float64 // realized power, may be clipped
	EnergyToGridMWh   float64
	EnergyFromGridMWh float64
	ThroughputMWh     float64
	SOCStart          float64
	SOCEnd            float64
	PNL               float64 // EUR, incl. degradation
}

// Clipped reports whether the realized power differs from requested.
func (r IntervalResult) Clipped(requested Dispatch) bool {
	return math.Abs(r.PowerMW-requested.PowerMW) > 1e-9
}

// ClipDispatch enforces the power limit, without applying SOC constraints.
func (s *Storage) ClipDispatch(d Dispatch) Dispatch {
	p := math.Max(-s.Params.PowerCapacityMW, math.Min(s.Params.PowerCapacityMW, d.PowerMW))
	return Dispatch{PowerMW: p}
}

// ApplyDispatch moves energy for one interval at the given clearing price,
// clipping the request to the power limit and the SOC bounds.
func (s *Storage) ApplyDispatch(price float64, d Dispatch, durationHours float64) (IntervalResult, error) {
	if durationHours <= 0 {
		return IntervalResult{}, errors.New("durationHours must be > 0")
	}

	p := s.ClipDispatch(d).PowerMW
	res := IntervalResult{SOCStart: s.State.SOC}

	switch {
	case p < 0:
		fromGrid := math.Min(-p*durationHours, s.MaxChargeMWh(durationHours))
		stored := fromGrid * s.Params.ChargeEfficiency
		s.State.SOC = clamp01((s.State.SOC*s.Params.EnergyCapacityMWh + stored) / s.Params.EnergyCapacityMWh)
		res.PowerMW = -fromGrid / durationHours
		res.EnergyFromGridMWh = fromGrid
		res.ThroughputMWh = fromGrid
	case p > 0:
		toGrid := math.Min(p*durationHours, s.MaxDischargeMWh(durationHours))
		withdrawn := toGrid / s.Params.DischargeEfficiency
		s.State.SOC = clamp01((s.State.SOC*s.Params.EnergyCapacityMWh - withdrawn) / s.Params.EnergyCapacityMWh)
		res.PowerMW = toGrid / durationHours
		res.EnergyToGridMWh = toGrid
		res.ThroughputMWh = toGrid
	}

	res.SOCEnd = s.State.SOC
	res.PNL = s.IntervalPnL(price, res.EnergyFromGridMWh, res.EnergyToGridMWh)
	return res, nil
}

// IntervalPnL is revenue minus purchase and degradation cost for the given
// grid-side energies.
func (s *Storage) IntervalPnL(price, energyFromGridMWh, energyToGridMWh float64) float64 {
	revenue := price * energyToGridMWh
	cost := price * energyFromGridMWh
	degradation := s.Params.DegradationCostPerMWh * (energyFromGridMWh + energyToGridMWh)
	return revenue - cost - degradation
}

// MaxChargeMWh is the grid energy the unit can absorb before hitting MaxSOC
// or its power limit.
func (s *Storage) MaxChargeMWh(durationHours float64) float64 {
	storable := (s.Params.MaxSOC - s.State.SOC) * s.Params.EnergyCapacityMWh
	if storable <= 0 {
		return 0
	}
	return math.Max(0, math.Min(storable/s.Params.ChargeEfficiency, s.Params.PowerCapacityMW*durationHours))
}

// MaxDischargeMWh is the grid energy the unit can deliver before hitting
// MinSOC or its power limit.
func (s *Storage) MaxDischargeMWh(durationHours float64) float64 {
	withdrawable := (s.State.SOC - s.Params.MinSOC) * s.Params.EnergyCapacityMWh
	if withdrawable <= 0 {
		return 0
	}
	return math.Max(0, math.Min(withdrawable*s.Params.DischargeEfficiency, s.Params.PowerCapacityMW*durationHours))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
