package main

import (
	"time"

	"github.com/lixenwraith/wheelsim/core"
	"github.com/lixenwraith/wheelsim/parameter"
	"github.com/lixenwraith/wheelsim/vmath"
)

type axis int

const (
	axisThrottle axis = iota
	axisBrake
	axisLeft
	axisRight
	axisHandbrake
	axisCount
)

// controls turns key repeat events into smoothed driver input
type controls struct {
	lastPress [axisCount]time.Time
	input     core.Input
}

func (c *controls) press(a axis, now time.Time) {
	c.lastPress[a] = now
}

func (c *controls) held(a axis, now time.Time) bool {
	t := c.lastPress[a]
	return !t.IsZero() && now.Sub(t) < parameter.KeyHold
}

// release drops every held key, used on reset and pause
func (c *controls) release() {
	c.lastPress = [axisCount]time.Time{}
	c.input = core.Input{}
}

// update advances the smoothed axes by dt seconds and returns the input to apply
func (c *controls) update(now time.Time, dt float64) core.Input {
	pedal := func(v float64, on bool) float64 {
		if on {
			return vmath.MoveToward(v, 1, parameter.PedalRise*dt)
		}
		return vmath.MoveToward(v, 0, parameter.PedalFall*dt)
	}
	c.input.Throttle = pedal(c.input.Throttle, c.held(axisThrottle, now))
	c.input.Brake = pedal(c.input.Brake, c.held(axisBrake, now))

	// Handbrake is binary
	c.input.Handbrake = 0
	if c.held(axisHandbrake, now) {
		c.input.Handbrake = 1
	}

	target := 0.0
	if c.held(axisLeft, now) {
		target--
	}
	if c.held(axisRight, now) {
		target++
	}
	rate := parameter.SteerRise
	if target == 0 || target*c.input.Steer < 0 {
		rate = parameter.SteerCentre
	}
	c.input.Steer = vmath.MoveToward(c.input.Steer, target, rate*dt)

	return c.input
}
