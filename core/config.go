package core

import "github.com/lixenwraith/wheelsim/vmath"

// AxleConfig is shared by the two wheels of an axle
type AxleConfig struct {
	SpringRate  float64 `mapstructure:"spring_rate"`  // N/m
	DamperRate  float64 `mapstructure:"damper_rate"`  // N·s/m
	RestLength  float64 `mapstructure:"rest_length"`  // m
	MaxTravel   float64 `mapstructure:"max_travel"`   // m
	AntiRoll    float64 `mapstructure:"anti_roll"`    // N/m of left/right compression difference
	ProbeMargin float64 `mapstructure:"probe_margin"` // extra probe length, m
}

// CombinedSlipConfig controls lateral grip loss under longitudinal slip
type CombinedSlipConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Threshold      float64 `mapstructure:"threshold"`        // |s| below which no penalty applies
	LockupSlip     float64 `mapstructure:"lockup_slip"`      // |s| at full lockup
	MinLateralGrip float64 `mapstructure:"min_lateral_grip"` // μy multiplier at full lockup
	Strength       float64 `mapstructure:"strength"`         // 0..1 blend
}

// TireCurveSet holds the friction lookups and scaling shared by all tires
type TireCurveSet struct {
	FrontLongitudinal vmath.Curve // μ vs |slip ratio|
	FrontLateral      vmath.Curve // μ vs |slip angle| (rad)
	RearLongitudinal  vmath.Curve
	RearLateral       vmath.Curve

	GlobalScale     float64
	LoadSensitivity float64
	ReferenceLoad   float64 // N
	MinMu, MaxMu    float64

	Combined CombinedSlipConfig
}

// Longitudinal returns the longitudinal curve for an axle
func (t *TireCurveSet) Longitudinal(a Axle) vmath.Curve {
	if a == AxleFront {
		return t.FrontLongitudinal
	}
	return t.RearLongitudinal
}

// Lateral returns the lateral curve for an axle
func (t *TireCurveSet) Lateral(a Axle) vmath.Curve {
	if a == AxleFront {
		return t.FrontLateral
	}
	return t.RearLateral
}

// EngineModel describes the engine torque source
type EngineModel struct {
	TorqueCurve       vmath.Curve // N·m vs RPM
	IdleRPM           float64
	RedlineRPM        float64
	TorqueScale       float64
	EngineBrake       float64 // fraction of curve torque applied as engine braking
	EngineBrakeMinRPM float64
}

// GearboxConfig describes the transmission
type GearboxConfig struct {
	Ratios     []float64 `mapstructure:"ratios"`  // forward gears, first gear first
	Reverse    float64   `mapstructure:"reverse"` // negative ratio
	FinalDrive float64   `mapstructure:"final_drive"`
	Efficiency float64   `mapstructure:"efficiency"` // 0..1

	Automatic     bool    `mapstructure:"automatic"`
	UpshiftRPM    float64 `mapstructure:"upshift_rpm"`
	DownshiftRPM  float64 `mapstructure:"downshift_rpm"`
	ShiftCooldown float64 `mapstructure:"shift_cooldown"` // seconds between automatic shifts
}

// Ratio returns the ratio for a gear index: -1 reverse, 0 neutral, 1..N forward
// Out-of-range gears are neutral
func (g *GearboxConfig) Ratio(gear int) float64 {
	switch {
	case gear < 0:
		return g.Reverse
	case gear == 0 || gear > len(g.Ratios):
		return 0
	default:
		return g.Ratios[gear-1]
	}
}

// TopGear returns the highest forward gear index
func (g *GearboxConfig) TopGear() int { return len(g.Ratios) }

// BrakeConfig describes service brake and handbrake capacity
type BrakeConfig struct {
	MaxTorque          float64 `mapstructure:"max_torque"`           // total service torque, N·m
	FrontBias          float64 `mapstructure:"front_bias"`           // 0..1
	MaxHandbrakeTorque float64 `mapstructure:"max_handbrake_torque"` // total handbrake torque, N·m
	HandbrakeRearOnly  bool    `mapstructure:"handbrake_rear_only"`
}

// DragConfig describes chassis-level resistive forces
type DragConfig struct {
	Aero    float64 `mapstructure:"aero"`    // N/(m/s)²
	Rolling float64 `mapstructure:"rolling"` // N/(m/s)
}

// SteeringConfig maps the steer input to wheel angles
type SteeringConfig struct {
	Lock float64 `mapstructure:"lock"` // max wheel angle, rad
}

// TractionAssistConfig limits drive force to available friction
type TractionAssistConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	Strength float64 `mapstructure:"strength"` // 0..1 blend toward full limiting
}
