package model

// Action is the operating mode of a unit in one hour.
// Keep these values stable; they are written to CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
	ActionGenerating  Action = "GENERATING"
	ActionConsuming   Action = "CONSUMING"
)

// ActionFromPowerMW maps a storage setpoint to its mode.
func ActionFromPowerMW(powerMW float64) Action {
	switch {
	case powerMW < 0:
		return ActionCharging
	case powerMW > 0:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
