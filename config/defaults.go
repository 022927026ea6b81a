package config

import (
	"slices"

	"github.com/lixenwraith/wheelsim/core"
	"github.com/lixenwraith/wheelsim/host"
	"github.com/lixenwraith/wheelsim/parameter"
	"github.com/lixenwraith/wheelsim/physics"
)

// Default returns the rear-drive coupe built from the parameter package
func Default() *Config {
	halfTrack := parameter.TrackWidth / 2
	halfBase := parameter.Wheelbase / 2
	wheel := func(name, axle, side string, x, z float64) WheelEntry {
		return WheelEntry{
			Name:     name,
			Position: [3]float64{x, parameter.MountHeight, z},
			Radius:   parameter.WheelRadius,
			Inertia:  parameter.WheelInertia,
			Axle:     axle,
			Side:     side,
			Powered:  axle == "rear",
			Steers:   axle == "front",
		}
	}
	axle := func(antiRoll float64) core.AxleConfig {
		return core.AxleConfig{
			SpringRate:  parameter.SpringRate,
			DamperRate:  parameter.DamperRate,
			RestLength:  parameter.RestLength,
			MaxTravel:   parameter.MaxTravel,
			AntiRoll:    antiRoll,
			ProbeMargin: parameter.ProbeMargin,
		}
	}

	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Sim: SimConfig{
			TickRate: parameter.TickRate,
		},
		Body: host.DefaultBodyConfig(),
		Vehicle: VehicleConfig{
			Wheels: []WheelEntry{
				wheel("front_left", "front", "left", -halfTrack, halfBase),
				wheel("front_right", "front", "right", halfTrack, halfBase),
				wheel("rear_left", "rear", "left", -halfTrack, -halfBase),
				wheel("rear_right", "rear", "right", halfTrack, -halfBase),
			},
			Front: axle(parameter.AntiRollFront),
			Rear:  axle(parameter.AntiRollRear),
			Tires: TireConfig{
				FrontLongitudinal: clonePairs(parameter.TireLongitudinalCurve),
				FrontLateral:      clonePairs(parameter.TireLateralCurve),
				RearLongitudinal:  clonePairs(parameter.TireLongitudinalCurve),
				RearLateral:       clonePairs(parameter.TireLateralCurve),
				GlobalScale:       parameter.TireGlobalScale,
				LoadSensitivity:   parameter.TireLoadSensitivity,
				ReferenceLoad:     parameter.TireReferenceLoad,
				MinMu:             parameter.TireMinMu,
				MaxMu:             parameter.TireMaxMu,
				Combined: core.CombinedSlipConfig{
					Enabled:        parameter.CombinedSlipEnabled,
					Threshold:      parameter.CombinedSlipThreshold,
					LockupSlip:     parameter.CombinedSlipLockup,
					MinLateralGrip: parameter.CombinedSlipMinLateralGrip,
					Strength:       parameter.CombinedSlipStrength,
				},
			},
			Engine: EngineConfig{
				TorqueCurve:       clonePairs(parameter.EngineTorqueCurve),
				IdleRPM:           parameter.EngineIdleRPM,
				RedlineRPM:        parameter.EngineRedlineRPM,
				TorqueScale:       parameter.EngineTorqueScale,
				EngineBrake:       parameter.EngineBrakeFraction,
				EngineBrakeMinRPM: parameter.EngineBrakeMinRPM,
			},
			Gearbox: core.GearboxConfig{
				Ratios:        slices.Clone(parameter.GearRatios),
				Reverse:       parameter.GearReverse,
				FinalDrive:    parameter.GearFinalDrive,
				Efficiency:    parameter.GearEfficiency,
				Automatic:     parameter.GearAutomatic,
				UpshiftRPM:    parameter.GearUpshiftRPM,
				DownshiftRPM:  parameter.GearDownshiftRPM,
				ShiftCooldown: parameter.GearShiftCooldown,
			},
			Brakes: core.BrakeConfig{
				MaxTorque:          parameter.BrakeMaxTorque,
				FrontBias:          parameter.BrakeFrontBias,
				MaxHandbrakeTorque: parameter.HandbrakeMaxTorque,
				HandbrakeRearOnly:  parameter.HandbrakeRearOnly,
			},
			Drag: core.DragConfig{
				Aero:    parameter.DragAero,
				Rolling: parameter.DragRolling,
			},
			Steering: core.SteeringConfig{Lock: parameter.SteerLock},
			Assist: core.TractionAssistConfig{
				Enabled:  parameter.TractionAssistEnabled,
				Strength: parameter.TractionAssistStrength,
			},
		},
		Tuning: physics.DefaultTuning(),
		Telemetry: TelemetryConfig{
			Every:     1,
			Memory:    parameter.TelemetryMemoryFrames,
			BatchSize: parameter.TelemetryBatchSize,
			Influx: InfluxConfig{
				Org:    parameter.TelemetryOrg,
				Bucket: parameter.TelemetryBucket,
			},
		},
		Audio: AudioConfig{
			Volume: parameter.EngineToneVolume,
		},
	}
}

// SpawnHeight returns the configured spawn height, or the chassis height at which the
// springs carry the body weight evenly when none is set
func (c *Config) SpawnHeight() float64 {
	if c.Sim.SpawnHeight > 0 {
		return c.Sim.SpawnHeight
	}
	wheels := c.Vehicle.Wheels
	if len(wheels) == 0 {
		return c.Sim.GroundLevel
	}
	perWheel := c.Body.Mass * c.Body.Gravity / float64(len(wheels))

	var sum float64
	for _, e := range wheels {
		axle := c.Vehicle.Rear
		if e.Axle == "front" {
			axle = c.Vehicle.Front
		}
		rest := axle.RestLength
		if e.Suspension != nil && e.Suspension.RestLength > 0 {
			rest = e.Suspension.RestLength
		}
		var comp float64
		if axle.SpringRate > 0 {
			comp = min(perWheel/axle.SpringRate, axle.MaxTravel)
		}
		sum += e.Radius + rest - comp - e.Position[1]
	}
	return c.Sim.GroundLevel + sum/float64(len(wheels))
}

func clonePairs(src [][]float64) [][]float64 {
	out := make([][]float64, len(src))
	for i, p := range src {
		out[i] = slices.Clone(p)
	}
	return out
}
