// Package config loads simulation, vehicle and telemetry settings through viper
// Values start from the parameter defaults; a TOML file or WHEELSIM_* environment
// variables override them key by key. Environment overrides reach every scalar key;
// list-valued keys such as wheels and curves are set from files only
package config

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"

	"github.com/lixenwraith/wheelsim/core"
	"github.com/lixenwraith/wheelsim/host"
	"github.com/lixenwraith/wheelsim/parameter"
	"github.com/lixenwraith/wheelsim/physics"
	"github.com/lixenwraith/wheelsim/vmath"
)

// EnvPrefix namespaces environment overrides, e.g. WHEELSIM_LOG_LEVEL
const EnvPrefix = "WHEELSIM"

//go:embed presets/*.toml
var presets embed.FS

// Validation errors
var (
	ErrNoWheels   = errors.New("config: vehicle has no wheels")
	ErrWheelCount = errors.New("config: vehicle needs exactly four wheels")
	ErrBadAxle    = errors.New("config: unknown axle")
	ErrBadSide    = errors.New("config: unknown side")
	ErrNoPreset   = errors.New("config: unknown preset")
)

// LogConfig selects zerolog output
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
	File   string `mapstructure:"file"`   // empty writes to stderr
}

// SimConfig controls the fixed-step loop and the spawn state
type SimConfig struct {
	TickRate    int     `mapstructure:"tick_rate"`
	SpawnHeight float64 `mapstructure:"spawn_height"` // chassis origin height, 0 selects static equilibrium
	SpawnSpeed  float64 `mapstructure:"spawn_speed"`  // m/s along +Z
	GroundLevel float64 `mapstructure:"ground_level"`
	GroundPitch float64 `mapstructure:"ground_pitch"` // rad, positive rises ahead
}

// Dt returns the fixed timestep in seconds
func (s SimConfig) Dt() float64 {
	if s.TickRate <= 0 {
		return parameter.TickDt
	}
	return 1 / float64(s.TickRate)
}

// InfluxConfig selects a line-protocol file or a live InfluxDB server
type InfluxConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	File    string `mapstructure:"file"` // .gz compresses
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`
}

// TelemetryConfig controls frame recording
type TelemetryConfig struct {
	Every     int          `mapstructure:"every"` // record every Nth tick
	Memory    int          `mapstructure:"memory"`
	SQLite    string       `mapstructure:"sqlite"`
	BatchSize int          `mapstructure:"batch_size"`
	Influx    InfluxConfig `mapstructure:"influx"`
	Metrics   bool         `mapstructure:"metrics"`
}

// AudioConfig controls the sandbox engine sound
type AudioConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Volume  float64 `mapstructure:"volume"`
}

// WheelEntry is the file form of core.WheelConfig
type WheelEntry struct {
	Name       string                   `mapstructure:"name"`
	Position   [3]float64               `mapstructure:"position"` // chassis space
	Yaw        float64                  `mapstructure:"yaw"`      // mount toe, rad
	Radius     float64                  `mapstructure:"radius"`
	Inertia    float64                  `mapstructure:"inertia"`
	Axle       string                   `mapstructure:"axle"`
	Side       string                   `mapstructure:"side"`
	Powered    bool                     `mapstructure:"powered"`
	Steers     bool                     `mapstructure:"steers"`
	Disabled   bool                     `mapstructure:"disabled"` // no mount pose
	Suspension *core.SuspensionOverride `mapstructure:"suspension"`
}

// TireConfig is the file form of core.TireCurveSet
type TireConfig struct {
	FrontLongitudinal [][]float64             `mapstructure:"front_longitudinal"`
	FrontLateral      [][]float64             `mapstructure:"front_lateral"`
	RearLongitudinal  [][]float64             `mapstructure:"rear_longitudinal"`
	RearLateral       [][]float64             `mapstructure:"rear_lateral"`
	GlobalScale       float64                 `mapstructure:"global_scale"`
	LoadSensitivity   float64                 `mapstructure:"load_sensitivity"`
	ReferenceLoad     float64                 `mapstructure:"reference_load"`
	MinMu             float64                 `mapstructure:"min_mu"`
	MaxMu             float64                 `mapstructure:"max_mu"`
	Combined          core.CombinedSlipConfig `mapstructure:"combined"`
}

// EngineConfig is the file form of core.EngineModel
type EngineConfig struct {
	TorqueCurve       [][]float64 `mapstructure:"torque_curve"`
	IdleRPM           float64     `mapstructure:"idle_rpm"`
	RedlineRPM        float64     `mapstructure:"redline_rpm"`
	TorqueScale       float64     `mapstructure:"torque_scale"`
	EngineBrake       float64     `mapstructure:"engine_brake"`
	EngineBrakeMinRPM float64     `mapstructure:"engine_brake_min_rpm"`
}

// VehicleConfig describes one car
type VehicleConfig struct {
	Wheels   []WheelEntry              `mapstructure:"wheels"`
	Front    core.AxleConfig           `mapstructure:"front"`
	Rear     core.AxleConfig           `mapstructure:"rear"`
	Tires    TireConfig                `mapstructure:"tires"`
	Engine   EngineConfig              `mapstructure:"engine"`
	Gearbox  core.GearboxConfig        `mapstructure:"gearbox"`
	Brakes   core.BrakeConfig          `mapstructure:"brakes"`
	Drag     core.DragConfig           `mapstructure:"drag"`
	Steering core.SteeringConfig       `mapstructure:"steering"`
	Assist   core.TractionAssistConfig `mapstructure:"assist"`
}

// Config is the root of all settings
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Sim       SimConfig       `mapstructure:"sim"`
	Body      host.BodyConfig `mapstructure:"body"`
	Vehicle   VehicleConfig   `mapstructure:"vehicle"`
	Tuning    physics.Tuning  `mapstructure:"tuning"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Audio     AudioConfig     `mapstructure:"audio"`
}

// Load builds the default configuration and applies the file at path when non-empty
// A bare name without extension selects an embedded preset
func Load(file string) (*Config, error) {
	cfg := Default()
	v := newViper()

	switch {
	case file == "":
	case path.Ext(file) == "":
		data, err := presets.ReadFile("presets/" + file + ".toml")
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrNoPreset, file)
		}
		v.SetConfigType("toml")
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("error reading preset %s: %w", file, err)
		}
	default:
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if _, err := cfg.Spec(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Presets lists the embedded vehicle presets
func Presets() []string {
	entries, err := presets.ReadDir("presets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".toml"))
	}
	return names
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only answers keys viper already knows, so every scalar leaf is bound
	for _, key := range scalarKeys(reflect.TypeOf(Config{}), "") {
		_ = v.BindEnv(key)
	}
	return v
}

// scalarKeys lists the dotted mapstructure keys of t's scalar fields
// Slices, arrays, maps and pointers are skipped
func scalarKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := prefix + name

		switch f.Type.Kind() {
		case reflect.Struct:
			keys = append(keys, scalarKeys(f.Type, key+".")...)
		case reflect.Slice, reflect.Array, reflect.Map, reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		default:
			keys = append(keys, key)
		}
	}
	return keys
}

// Spec converts the vehicle section into the immutable physics configuration
func (c *Config) Spec() (physics.Spec, error) {
	var spec physics.Spec
	vc := &c.Vehicle

	if len(vc.Wheels) == 0 {
		return spec, ErrNoWheels
	}
	if len(vc.Wheels) != 4 {
		return spec, fmt.Errorf("%w: got %d", ErrWheelCount, len(vc.Wheels))
	}
	for i, e := range vc.Wheels {
		w, err := e.wheelConfig()
		if err != nil {
			return spec, fmt.Errorf("wheel %d (%s): %w", i, e.Name, err)
		}
		spec.Wheels[i] = w
	}

	tires, err := vc.Tires.curveSet()
	if err != nil {
		return spec, err
	}
	engine, err := vc.Engine.model()
	if err != nil {
		return spec, err
	}

	front, rear := vc.Front, vc.Rear
	gearbox := vc.Gearbox
	gearbox.Ratios = append([]float64(nil), vc.Gearbox.Ratios...)
	brakes := vc.Brakes

	spec.Front = &front
	spec.Rear = &rear
	spec.Tires = tires
	spec.Engine = engine
	spec.Gearbox = &gearbox
	spec.Brakes = &brakes
	spec.Drag = vc.Drag
	spec.Steering = vc.Steering
	spec.Assist = vc.Assist
	spec.Tuning = c.Tuning
	return spec, nil
}

func (e WheelEntry) wheelConfig() (core.WheelConfig, error) {
	w := core.WheelConfig{
		Name:       e.Name,
		Radius:     e.Radius,
		Inertia:    e.Inertia,
		Powered:    e.Powered,
		Steers:     e.Steers,
		Suspension: e.Suspension,
	}
	switch strings.ToLower(e.Axle) {
	case "front":
		w.Axle = core.AxleFront
	case "rear":
		w.Axle = core.AxleRear
	default:
		return w, fmt.Errorf("%w %q", ErrBadAxle, e.Axle)
	}
	switch strings.ToLower(e.Side) {
	case "left":
		w.Side = core.SideLeft
	case "right":
		w.Side = core.SideRight
	default:
		return w, fmt.Errorf("%w %q", ErrBadSide, e.Side)
	}
	if !e.Disabled {
		w.Mount = &core.Pose{
			Position: mgl64.Vec3(e.Position),
			Rotation: vmath.YawQuat(e.Yaw),
		}
	}
	return w, nil
}

func (t TireConfig) curveSet() (*core.TireCurveSet, error) {
	set := &core.TireCurveSet{
		GlobalScale:     t.GlobalScale,
		LoadSensitivity: t.LoadSensitivity,
		ReferenceLoad:   t.ReferenceLoad,
		MinMu:           t.MinMu,
		MaxMu:           t.MaxMu,
		Combined:        t.Combined,
	}
	curves := []struct {
		name  string
		pairs [][]float64
		dst   *vmath.Curve
	}{
		{"front_longitudinal", t.FrontLongitudinal, &set.FrontLongitudinal},
		{"front_lateral", t.FrontLateral, &set.FrontLateral},
		{"rear_longitudinal", t.RearLongitudinal, &set.RearLongitudinal},
		{"rear_lateral", t.RearLateral, &set.RearLateral},
	}
	for _, c := range curves {
		curve, err := vmath.CurveFromPairs(c.pairs)
		if err != nil {
			return nil, fmt.Errorf("tire curve %s: %w", c.name, err)
		}
		*c.dst = curve
	}
	return set, nil
}

func (e EngineConfig) model() (*core.EngineModel, error) {
	curve, err := vmath.CurveFromPairs(e.TorqueCurve)
	if err != nil {
		return nil, fmt.Errorf("engine torque curve: %w", err)
	}
	return &core.EngineModel{
		TorqueCurve:       curve,
		IdleRPM:           e.IdleRPM,
		RedlineRPM:        e.RedlineRPM,
		TorqueScale:       e.TorqueScale,
		EngineBrake:       e.EngineBrake,
		EngineBrakeMinRPM: e.EngineBrakeMinRPM,
	}, nil
}
