package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lixenwraith/wheelsim/parameter"
)

func TestControls_PedalRampAndRelease(t *testing.T) {
	var c controls
	now := time.Unix(0, 0)
	c.press(axisThrottle, now)

	in := c.update(now, 0.1)
	assert.InDelta(t, parameter.PedalRise*0.1, in.Throttle, 1e-9)

	// Repeats keep the key held until the hold window passes
	for range 10 {
		now = now.Add(50 * time.Millisecond)
		c.press(axisThrottle, now)
		in = c.update(now, 0.05)
	}
	assert.Equal(t, 1.0, in.Throttle)

	now = now.Add(parameter.KeyHold)
	in = c.update(now, 0.1)
	assert.InDelta(t, 1-parameter.PedalFall*0.1, in.Throttle, 1e-9)
}

func TestControls_SteerCentres(t *testing.T) {
	var c controls
	now := time.Unix(0, 0)

	c.press(axisLeft, now)
	in := c.update(now, 0.2)
	assert.InDelta(t, -parameter.SteerRise*0.2, in.Steer, 1e-9)

	// Both directions cancel and steering returns to centre
	c.press(axisRight, now)
	in = c.update(now, 1)
	assert.Zero(t, in.Steer)
}

func TestControls_HandbrakeAndRelease(t *testing.T) {
	var c controls
	now := time.Unix(0, 0)
	c.press(axisHandbrake, now)
	c.press(axisBrake, now)

	in := c.update(now, 1)
	assert.Equal(t, 1.0, in.Handbrake)
	assert.Equal(t, 1.0, in.Brake)

	c.release()
	in = c.update(now, 0.01)
	assert.Zero(t, in.Handbrake)
	assert.InDelta(t, 0, in.Brake, 1e-12)
}
