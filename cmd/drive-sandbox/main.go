// Command drive-sandbox drives the vehicle interactively in a terminal
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/lixenwraith/wheelsim/audio"
	"github.com/lixenwraith/wheelsim/config"
	"github.com/lixenwraith/wheelsim/core"
	"github.com/lixenwraith/wheelsim/engine"
	"github.com/lixenwraith/wheelsim/logging"
	"github.com/lixenwraith/wheelsim/parameter"
	"github.com/lixenwraith/wheelsim/physics"
	"github.com/lixenwraith/wheelsim/telemetry"
)

var (
	configFlag = flag.StringP("config", "c", "", "config file, or preset name: "+strings.Join(config.Presets(), ", "))
	soundFlag  = flag.BoolP("sound", "s", false, "play engine and tire audio")
	debugFlag  = flag.BoolP("debug", "d", false, "write a debug log to logs/drive-sandbox.log")
)

var (
	styleText  = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleTitle = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleDim   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleWarn  = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	styleBar   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleHot   = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

// Sandbox owns the terminal, the scheduled simulation and optional audio
type Sandbox struct {
	screen    tcell.Screen
	log       zerolog.Logger
	sim       *engine.Simulation
	scheduler *engine.ClockScheduler
	recorder  *telemetry.Recorder
	history   *telemetry.MemorySink
	player    *audio.Player
	controls  controls

	// Track of recent chassis positions for the minimap
	trail []mgl64.Vec3
}

func NewSandbox(cfg *config.Config, log zerolog.Logger, sound bool) (*Sandbox, error) {
	history := telemetry.NewMemorySink(cfg.Telemetry.Memory)
	recorder := telemetry.NewRecorder(cfg.Telemetry.Every, log, history)

	sim, err := engine.NewFromConfig(cfg, recorder, log)
	if err != nil {
		return nil, err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	core.SetCrashHook(screen.Fini)

	sb := &Sandbox{
		screen:   screen,
		log:      log,
		sim:      sim,
		recorder: recorder,
		history:  history,
	}

	interval := time.Duration(float64(time.Second) * cfg.Sim.Dt())
	sb.scheduler, _ = engine.NewClockScheduler(sim, nil, interval, log)

	if sound {
		sb.player = audio.NewPlayer(cfg.Audio.Volume)
		if err := sb.player.Start(); err != nil {
			// Non-fatal, the sandbox runs without sound
			log.Warn().Err(err).Msg("audio initialization failed")
			sb.player = nil
		}
	}
	return sb, nil
}

func (sb *Sandbox) handleKey(ev *tcell.EventKey, now time.Time) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		sb.controls.press(axisThrottle, now)
	case tcell.KeyDown:
		sb.controls.press(axisBrake, now)
	case tcell.KeyLeft:
		sb.controls.press(axisLeft, now)
	case tcell.KeyRight:
		sb.controls.press(axisRight, now)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'W':
			sb.controls.press(axisThrottle, now)
		case 's', 'S':
			sb.controls.press(axisBrake, now)
		case 'a', 'A':
			sb.controls.press(axisLeft, now)
		case 'd', 'D':
			sb.controls.press(axisRight, now)
		case ' ':
			sb.controls.press(axisHandbrake, now)
		case 'e', 'E':
			sb.scheduler.Do(func() { sb.sim.Vehicle().ShiftUp() })
		case 'q', 'Q':
			sb.scheduler.Do(func() { sb.sim.Vehicle().ShiftDown() })
		case 'r', 'R':
			sb.controls.release()
			sb.scheduler.Do(sb.sim.Reset)
			sb.trail = sb.trail[:0]
			sb.log.Info().Msg("vehicle reset")
		case 'p', 'P':
			if sb.scheduler.IsPaused() {
				sb.scheduler.Resume()
			} else {
				sb.controls.release()
				sb.scheduler.Pause()
			}
		case '.':
			if sb.scheduler.IsPaused() {
				sb.scheduler.StepOnce()
			}
		case 'm', 'M':
			if sb.player != nil {
				sb.player.ToggleMute()
			}
		}
	}
	return true
}

func (sb *Sandbox) run() {
	sb.scheduler.Start()
	defer sb.scheduler.Stop()

	ticker := time.NewTicker(parameter.FrameUpdateInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := sb.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	last := time.Now()
	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !sb.handleKey(ev, time.Now()) {
					return
				}
			case *tcell.EventResize:
				sb.screen.Sync()
			}

		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			var (
				snap physics.Snapshot
				pos  mgl64.Vec3
				rot  mgl64.Quat
			)
			in := sb.controls.update(now, dt)
			sb.scheduler.Do(func() {
				sb.sim.SetInput(in)
				snap = sb.sim.Last()
				pos = sb.sim.Body().Position()
				rot = sb.sim.Body().Rotation()
			})
			if sb.player != nil {
				sb.player.Observe(snap)
			}
			sb.pushTrail(pos)
			sb.draw(snap, pos, rot)
		}
	}
}

func (sb *Sandbox) pushTrail(p mgl64.Vec3) {
	const maxTrail = 400
	if n := len(sb.trail); n > 0 && sb.trail[n-1].Sub(p).Len() < 0.5 {
		return
	}
	sb.trail = append(sb.trail, p)
	if len(sb.trail) > maxTrail {
		sb.trail = sb.trail[len(sb.trail)-maxTrail:]
	}
}

func (sb *Sandbox) print(x, y int, style tcell.Style, format string, args ...any) int {
	for _, r := range fmt.Sprintf(format, args...) {
		sb.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

// bar draws v in [0, 1] as a fixed-width gauge
func (sb *Sandbox) bar(x, y, width int, v float64, style tcell.Style) int {
	filled := int(math.Round(math.Max(0, math.Min(v, 1)) * float64(width)))
	sb.screen.SetContent(x, y, '[', nil, styleDim)
	for i := range width {
		r := ' '
		if i < filled {
			r = '█'
		}
		sb.screen.SetContent(x+1+i, y, r, nil, style)
	}
	sb.screen.SetContent(x+1+width, y, ']', nil, styleDim)
	return x + width + 2
}

// steerBar draws a centred gauge for v in [-1, 1]
func (sb *Sandbox) steerBar(x, y, half int, v float64) int {
	pos := half + int(math.Round(v*float64(half)))
	sb.screen.SetContent(x, y, '[', nil, styleDim)
	for i := 0; i <= 2*half; i++ {
		r := '-'
		style := styleDim
		switch {
		case i == pos:
			r, style = '◆', styleBar
		case i == half:
			r = '|'
		}
		sb.screen.SetContent(x+1+i, y, r, nil, style)
	}
	sb.screen.SetContent(x+2+2*half, y, ']', nil, styleDim)
	return x + 2*half + 3
}

func gearName(g int) string {
	switch {
	case g < 0:
		return "R"
	case g == 0:
		return "N"
	default:
		return fmt.Sprint(g)
	}
}

func (sb *Sandbox) draw(s physics.Snapshot, pos mgl64.Vec3, rot mgl64.Quat) {
	sb.screen.Clear()
	w, h := sb.screen.Size()

	x := sb.print(1, 0, styleTitle, "wheelsim drive-sandbox")
	x = sb.print(x+3, 0, styleDim, "tick %d  t=%.2fs", s.Tick, s.Time)
	if sb.scheduler.IsPaused() {
		sb.print(x+3, 0, styleWarn, "PAUSED ('.' steps)")
	}

	sb.print(1, 2, styleText, "speed %6.1f km/h   gear %-2s  rpm %5.0f  torque %6.1f N·m",
		s.Speed*3.6, gearName(s.Gear), s.RPM, s.EngineTorque)

	x = sb.print(1, 3, styleText, "throttle ")
	x = sb.bar(x, 3, 10, s.Input.Throttle, styleBar)
	x = sb.print(x+1, 3, styleText, "brake ")
	x = sb.bar(x, 3, 10, s.Input.Brake, styleHot)
	x = sb.print(x+1, 3, styleText, "handbrake ")
	x = sb.bar(x, 3, 2, s.Input.Handbrake, styleHot)
	x = sb.print(x+1, 3, styleText, "steer ")
	sb.steerBar(x, 3, 8, s.Input.Steer)

	sb.print(1, 5, styleDim, "%-12s %4s %8s %6s %7s %7s %5s %5s %8s  %s",
		"wheel", "grnd", "load N", "comp", "slip", "angle", "μx", "μy", "ω rad/s", "utilization")
	for i := range s.Wheels {
		wt := &s.Wheels[i]
		y := 6 + i
		style := styleText
		ground := "yes"
		if !wt.Grounded {
			style, ground = styleWarn, "no"
		}
		x = sb.print(1, y, style, "%-12s %4s %8.0f %6.3f %7.3f %7.3f %5.2f %5.2f %8.1f  ",
			wt.Name, ground, wt.Load, wt.Compression, wt.SlipRatio, wt.SlipAngle, wt.MuX, wt.MuY, wt.Omega)
		barStyle := styleBar
		if wt.Utilization > 0.95 {
			barStyle = styleHot
		}
		sb.bar(x, y, 12, wt.Utilization, barStyle)
	}

	fwd := rot.Rotate(mgl64.Vec3{0, 0, 1})
	heading := math.Atan2(fwd.X(), fwd.Z())
	sb.print(1, 11, styleText, "position x %7.1f  z %7.1f  height %5.2f  heading %6.1f°",
		pos.X(), pos.Z(), pos.Y(), mgl64.RadToDeg(heading))
	sb.print(1, 12, styleDim, "frames %d  buffered %d  failures %d",
		sb.recorder.Recorded(), sb.history.Len(), sb.recorder.Failures())

	sb.drawMinimap(1, 14, w-2, h-16, pos)

	sb.print(1, h-1, styleDim, "W/↑ throttle  S/↓ brake  A/D ←/→ steer  space handbrake  e/q shift  r reset  p pause  m mute  Esc quit")
	sb.screen.Show()
}

// drawMinimap renders the recent path top-down, centred on the car, +Z up the screen
func (sb *Sandbox) drawMinimap(x0, y0, width, height int, pos mgl64.Vec3) {
	if width < 10 || height < 4 {
		return
	}
	const metresPerCell = 2.0
	cx, cy := x0+width/2, y0+height/2
	plot := func(p mgl64.Vec3, r rune, style tcell.Style) {
		// Terminal cells are about twice as tall as wide
		col := cx + int(math.Round((p.X()-pos.X())/metresPerCell*2))
		row := cy - int(math.Round((p.Z()-pos.Z())/metresPerCell))
		if col >= x0 && col < x0+width && row >= y0 && row < y0+height {
			sb.screen.SetContent(col, row, r, nil, style)
		}
	}
	for _, p := range sb.trail {
		plot(p, '·', styleDim)
	}
	plot(pos, '●', styleTitle)
}

func (sb *Sandbox) cleanup() {
	if sb.player != nil {
		sb.player.Stop()
	}
	if err := sb.recorder.Close(); err != nil {
		sb.log.Warn().Err(err).Msg("telemetry close failed")
	}
	sb.screen.Fini()
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *debugFlag {
		cfg.Log.Level = "debug"
		if cfg.Log.File == "" {
			if err := os.MkdirAll("logs", 0755); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
				os.Exit(1)
			}
			cfg.Log.File = filepath.Join("logs", "drive-sandbox.log")
		}
	}
	// The terminal is owned by the UI, logs only go to the file
	log, closer, err := logging.Setup(cfg.Log, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	sb, err := NewSandbox(cfg, log, *soundFlag || cfg.Audio.Enabled)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer sb.cleanup()

	log.Info().Str("config", *configFlag).Msg("sandbox started")
	sb.run()
}
