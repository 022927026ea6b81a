package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestInput_Clamped(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want Input
	}{
		{"in range", Input{Throttle: 0.5, Brake: 0.2, Handbrake: 1, Steer: -0.3}, Input{Throttle: 0.5, Brake: 0.2, Handbrake: 1, Steer: -0.3}},
		{"over", Input{Throttle: 2, Brake: 5, Handbrake: 1.5, Steer: 3}, Input{Throttle: 1, Brake: 1, Handbrake: 1, Steer: 1}},
		{"under", Input{Throttle: -1, Brake: -0.1, Handbrake: -2, Steer: -4}, Input{Steer: -1}},
		{"nan", Input{Throttle: math.NaN(), Steer: math.NaN()}, Input{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Clamped())
		})
	}
}

func TestGearboxConfig_Ratio(t *testing.T) {
	g := &GearboxConfig{Ratios: []float64{3.5, 2.0}, Reverse: -3.2}

	assert.Equal(t, -3.2, g.Ratio(-1))
	assert.Zero(t, g.Ratio(0))
	assert.Equal(t, 3.5, g.Ratio(1))
	assert.Equal(t, 2.0, g.Ratio(2))
	assert.Zero(t, g.Ratio(3))
	assert.Equal(t, 2, g.TopGear())
}

func TestWheel_ClearContactKeepsRotation(t *testing.T) {
	w := Wheel{WheelConfig: WheelConfig{Radius: 0.3}}
	w.Grounded = true
	w.Load = 4000
	w.Force = mgl64.Vec3{1, 2, 3}
	w.Omega = 12
	w.OmegaValid = true
	w.Vx = 3

	w.ClearContact()

	assert.False(t, w.Grounded)
	assert.Zero(t, w.Load)
	assert.Equal(t, mgl64.Vec3{}, w.Force)
	assert.Equal(t, 12.0, w.Omega)
	assert.True(t, w.OmegaValid)
	assert.InDelta(t, 10, w.GroundSpeedOmega(), 1e-12)
	assert.False(t, w.Valid())
}

func TestAxleSide_String(t *testing.T) {
	assert.NotEqual(t, AxleFront.String(), AxleRear.String())
	assert.NotEqual(t, SideLeft.String(), SideRight.String())
}
