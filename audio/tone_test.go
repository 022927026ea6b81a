package audio

import (
	"math"
	"testing"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/wheelsim/parameter"
	"github.com/lixenwraith/wheelsim/physics"
)

func render(s beep.Streamer, n int) [][2]float64 {
	buf := make([][2]float64, n)
	s.Stream(buf)
	return buf
}

func peak(buf [][2]float64) float64 {
	p := 0.0
	for _, s := range buf {
		p = math.Max(p, math.Abs(s[0]))
	}
	return p
}

// TestFiringFrequency verifies the RPM to pitch mapping of a four cylinder engine
func TestFiringFrequency(t *testing.T) {
	tests := []struct {
		rpm  float64
		want float64
	}{
		{0, 0},
		{-500, 0},
		{900, 30},
		{6000, 200},
	}
	for _, tt := range tests {
		if got := FiringFrequency(tt.rpm); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("FiringFrequency(%v) = %v, want %v", tt.rpm, got, tt.want)
		}
	}
}

// TestSquealLevel verifies the slip band mapping
func TestSquealLevel(t *testing.T) {
	if got := SquealLevel(0.1); got != 0 {
		t.Errorf("below band: got %v", got)
	}
	if got := SquealLevel(-1); got != 1 {
		t.Errorf("locked wheel: got %v", got)
	}
	mid := (parameter.SquealSlipStart + parameter.SquealSlipFull) / 2
	if got := SquealLevel(mid); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("mid band: got %v", got)
	}
}

// TestEngineTone_Silent verifies an idle-less, grip-holding tone outputs nothing
func TestEngineTone_Silent(t *testing.T) {
	tone := NewEngineTone(beep.SampleRate(parameter.AudioSampleRate))
	buf := render(tone, 1024)
	if p := peak(buf); p != 0 {
		t.Errorf("expected silence, peak %v", p)
	}
}

// TestEngineTone_Slew verifies the pitch glides toward the target at a bounded rate
func TestEngineTone_Slew(t *testing.T) {
	sr := beep.SampleRate(parameter.AudioSampleRate)
	tone := NewEngineTone(sr)
	tone.Set(6000, 0)

	render(tone, 441) // 10 ms
	want := parameter.EngineToneSlew * 441 / float64(sr)
	if got := tone.Frequency(); math.Abs(got-want) > 1e-6 {
		t.Errorf("after 10 ms: frequency %v, want %v", got, want)
	}

	render(tone, sr.N(parameter.AudioBufferDuration)*5)
	if got := tone.Frequency(); math.Abs(got-200) > 1e-9 {
		t.Errorf("settled frequency %v, want 200", got)
	}

	buf := render(tone, 2048)
	if p := peak(buf); p <= 0 || p > parameter.EngineToneVolume+1e-9 {
		t.Errorf("engine peak %v out of range", p)
	}
}

// TestEngineTone_NonFinite verifies NaN input is treated as silence
func TestEngineTone_NonFinite(t *testing.T) {
	tone := NewEngineTone(beep.SampleRate(parameter.AudioSampleRate))
	tone.Set(math.NaN(), math.Inf(1))
	buf := render(tone, 512)
	for i, s := range buf {
		if math.IsNaN(s[0]) || math.IsNaN(s[1]) {
			t.Fatalf("sample %d is NaN", i)
		}
	}
	if p := peak(buf); p != 0 {
		t.Errorf("expected silence, peak %v", p)
	}
}

// TestPlayer_ObserveSqueal verifies a locked grounded wheel produces squeal with the engine off
func TestPlayer_ObserveSqueal(t *testing.T) {
	p := NewPlayer(parameter.EngineToneVolume)

	var s physics.Snapshot
	s.Wheels[2] = physics.WheelTelemetry{Grounded: true, SlipRatio: -1}
	s.Wheels[3] = physics.WheelTelemetry{Grounded: false, SlipRatio: -1}
	p.Observe(s)

	buf := render(p.Streamer(), 4096)
	if pk := peak(buf); pk < parameter.SquealVolume*0.5 {
		t.Errorf("squeal peak %v too quiet", pk)
	}
}

// TestPlayer_Mute verifies a muted player renders silence
func TestPlayer_Mute(t *testing.T) {
	p := NewPlayer(parameter.EngineToneVolume)
	p.Observe(physics.Snapshot{RPM: 3000})

	if audible := p.ToggleMute(); audible {
		t.Fatal("first toggle should mute")
	}
	buf := render(p.Streamer(), 1024)
	if pk := peak(buf); pk != 0 {
		t.Errorf("muted peak %v", pk)
	}
	if audible := p.ToggleMute(); !audible {
		t.Error("second toggle should unmute")
	}
}
