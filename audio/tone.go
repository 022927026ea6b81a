package audio

import (
	"math"
	"sync/atomic"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/wheelsim/parameter"
	"github.com/lixenwraith/wheelsim/vmath"
)

// FiringFrequency maps engine RPM to the fundamental of a four-stroke engine
func FiringFrequency(rpm float64) float64 {
	return math.Max(rpm, 0) / 60 * parameter.EngineToneCylinders / 2
}

// SquealLevel maps a slip ratio to squeal amplitude in [0, 1]
func SquealLevel(slip float64) float64 {
	return vmath.InverseLerp(parameter.SquealSlipStart, parameter.SquealSlipFull, math.Abs(slip))
}

// EngineTone synthesizes an engine note and tire squeal
// Targets are set from any goroutine; Stream runs on the speaker goroutine
type EngineTone struct {
	sr beep.SampleRate

	targetFreq atomic.Uint64 // float64 bits
	squeal     atomic.Uint64 // float64 bits

	freq        float64
	phase       float64
	squealPhase float64
	wobble      float64
	level       float64 // smoothed squeal amplitude
}

// NewEngineTone creates a silent tone at the given sample rate
func NewEngineTone(sr beep.SampleRate) *EngineTone {
	return &EngineTone{sr: sr}
}

// Set updates the target engine speed and squeal slip
func (e *EngineTone) Set(rpm, slip float64) {
	if !vmath.Finite(rpm) {
		rpm = 0
	}
	if !vmath.Finite(slip) {
		slip = 0
	}
	e.targetFreq.Store(math.Float64bits(FiringFrequency(rpm)))
	e.squeal.Store(math.Float64bits(SquealLevel(slip)))
}

// Frequency returns the current, slew-limited fundamental
func (e *EngineTone) Frequency() float64 { return e.freq }

func (e *EngineTone) Stream(samples [][2]float64) (n int, ok bool) {
	target := math.Float64frombits(e.targetFreq.Load())
	squeal := math.Float64frombits(e.squeal.Load())

	rate := float64(e.sr)
	maxStep := parameter.EngineToneSlew / rate
	// 20 ms squeal attack and release
	levelBlend := vmath.ExpBlend(50, 1/rate)

	for i := range samples {
		e.freq = vmath.MoveToward(e.freq, target, maxStep)
		e.level += (squeal - e.level) * levelBlend

		// Fundamental plus two harmonics for a rougher note
		engine := 0.0
		if e.freq > 0 {
			engine = 0.6*math.Sin(2*math.Pi*e.phase) +
				0.25*math.Sin(4*math.Pi*e.phase) +
				0.15*math.Sin(6*math.Pi*e.phase)
		}
		e.phase += e.freq / rate
		e.phase -= math.Floor(e.phase)

		// Squeal wavers a few Hz around its base pitch
		e.wobble += 7 / rate
		e.wobble -= math.Floor(e.wobble)
		sf := parameter.SquealFrequency * (1 + 0.03*math.Sin(2*math.Pi*e.wobble))
		tire := e.level * math.Sin(2*math.Pi*e.squealPhase)
		e.squealPhase += sf / rate
		e.squealPhase -= math.Floor(e.squealPhase)

		sample := parameter.EngineToneVolume*engine + parameter.SquealVolume*tire
		samples[i][0] = sample
		samples[i][1] = sample
	}
	return len(samples), true
}

func (e *EngineTone) Err() error { return nil }
