// Package audio renders vehicle state as an engine note and tire squeal
package audio

import (
	"math"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/wheelsim/parameter"
	"github.com/lixenwraith/wheelsim/physics"
)

const sampleRate = beep.SampleRate(parameter.AudioSampleRate)

// Player owns the speaker and the engine tone stream
type Player struct {
	mu          sync.Mutex
	tone        *EngineTone
	volume      *effects.Volume
	ctrl        *beep.Ctrl
	mixer       *beep.Mixer
	initialized bool
}

// NewPlayer builds the stream graph at volume in [0, 1]; nothing plays until Start
func NewPlayer(volume float64) *Player {
	tone := NewEngineTone(sampleRate)
	vol := &effects.Volume{
		Streamer: tone,
		Base:     2,
		Volume:   gain(volume),
		Silent:   volume <= 0,
	}
	ctrl := &beep.Ctrl{Streamer: vol}
	mixer := &beep.Mixer{}
	mixer.Add(ctrl)

	return &Player{
		tone:   tone,
		volume: vol,
		ctrl:   ctrl,
		mixer:  mixer,
	}
}

// gain converts a linear volume to the base-2 exponent effects.Volume expects
func gain(v float64) float64 {
	if v <= 0 {
		return -10
	}
	return math.Log2(math.Min(v, 1) / parameter.EngineToneVolume)
}

// Start initializes the speaker and begins playback
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(parameter.AudioBufferDuration)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Stop silences playback and releases the speaker
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	p.initialized = false
}

// ToggleMute flips the pause state, returns true if now audible
func (p *Player) ToggleMute() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		speaker.Lock()
		defer speaker.Unlock()
	}
	p.ctrl.Paused = !p.ctrl.Paused
	return !p.ctrl.Paused
}

// Observe retargets the tone from a snapshot: RPM drives pitch, the largest grounded slip drives squeal
func (p *Player) Observe(s physics.Snapshot) {
	slip := 0.0
	for i := range s.Wheels {
		w := &s.Wheels[i]
		if !w.Grounded {
			continue
		}
		slip = math.Max(slip, math.Abs(w.SlipRatio))
		slip = math.Max(slip, math.Abs(w.SlipAngle)*parameter.SquealSlipFull/parameter.SquealAngleFull)
	}
	p.tone.Set(s.RPM, slip)
}

// Tone exposes the underlying streamer
func (p *Player) Tone() *EngineTone { return p.tone }

// Streamer returns the full output graph, used to render without a speaker
func (p *Player) Streamer() beep.Streamer { return p.mixer }
