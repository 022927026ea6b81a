package core

import "github.com/lixenwraith/wheelsim/vmath"

// Input is the driver command set by an external controller before each tick
type Input struct {
	Throttle  float64 // 0..1
	Brake     float64 // 0..1
	Handbrake float64 // 0..1
	Steer     float64 // -1..1, positive steers right
}

// Clamped returns the input with every axis bounded to its range
// NaN collapses to zero
func (in Input) Clamped() Input {
	return Input{
		Throttle:  clampAxis(in.Throttle, 0, 1),
		Brake:     clampAxis(in.Brake, 0, 1),
		Handbrake: clampAxis(in.Handbrake, 0, 1),
		Steer:     clampAxis(in.Steer, -1, 1),
	}
}

func clampAxis(v, min, max float64) float64 {
	if v != v {
		return 0
	}
	return vmath.Clamp(v, min, max)
}
