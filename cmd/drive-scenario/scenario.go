package main

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/lixenwraith/wheelsim/core"
	"github.com/lixenwraith/wheelsim/parameter"
)

// scenario is a scripted driver: a spawn speed and an input per simulated second
type scenario struct {
	name  string
	speed float64 // m/s, used when the config does not set one
	input func(t float64) core.Input
}

var scenarios = map[string]scenario{
	"accelerate": {
		name:  "accelerate",
		input: func(float64) core.Input { return core.Input{Throttle: 1} },
	},
	"brake": {
		name:  "brake",
		speed: 20,
		input: func(float64) core.Input { return core.Input{Brake: 1} },
	},
	"handbrake": {
		name:  "handbrake",
		speed: 15,
		input: func(t float64) core.Input {
			// Turn in first, then pull the handbrake
			in := core.Input{Steer: 0.4}
			if t >= 0.5 {
				in.Handbrake = 1
			}
			return in
		},
	},
	"rest": {
		name:  "rest",
		input: func(float64) core.Input { return core.Input{} },
	},
	"slalom": {
		name:  "slalom",
		speed: 12,
		input: func(t float64) core.Input {
			return core.Input{
				Throttle: 0.35,
				Steer:    0.6 * math.Sin(2*math.Pi*t/parameter.SlalomPeriod),
			}
		},
	},
}

func scenarioNames() []string {
	names := lo.Keys(scenarios)
	slices.Sort(names)
	return names
}

func lookupScenario(name string) (scenario, error) {
	s, ok := scenarios[name]
	if !ok {
		return scenario{}, fmt.Errorf("unknown scenario %q, want one of %v", name, scenarioNames())
	}
	return s, nil
}

// byTick adapts the scenario to the simulation's per-tick input callback
func (s scenario) byTick(dt float64) func(tick uint64) core.Input {
	return func(tick uint64) core.Input {
		return s.input(float64(tick) * dt)
	}
}
