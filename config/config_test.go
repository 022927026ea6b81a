package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/wheelsim/core"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 60, cfg.Sim.TickRate)
	assert.InDelta(t, 1.0/60, cfg.Sim.Dt(), 1e-12)
	assert.Len(t, cfg.Vehicle.Wheels, 4)
	assert.Equal(t, 1, cfg.Telemetry.Every)
	assert.False(t, cfg.Telemetry.Influx.Enabled)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "wheelsim.toml")
	data := `
[log]
level = "debug"

[sim]
tick_rate = 120
spawn_speed = 15.0

[vehicle.brakes]
front_bias = 0.5

[telemetry]
sqlite = "run.db"
`
	require.NoError(t, os.WriteFile(file, []byte(data), 0644))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 120, cfg.Sim.TickRate)
	assert.Equal(t, 15.0, cfg.Sim.SpawnSpeed)
	assert.Equal(t, 0.5, cfg.Vehicle.Brakes.FrontBias)
	assert.Equal(t, "run.db", cfg.Telemetry.SQLite)

	// Untouched keys keep defaults
	assert.Equal(t, 6000.0, cfg.Vehicle.Brakes.MaxTorque)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/wheelsim.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WHEELSIM_LOG_LEVEL", "warn")
	t.Setenv("WHEELSIM_SIM_TICK_RATE", "30")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 30, cfg.Sim.TickRate)
}

func TestLoad_EnvOverrideNested(t *testing.T) {
	t.Setenv("WHEELSIM_TUNING_SLIP_DEADBAND", "0.25")
	t.Setenv("WHEELSIM_VEHICLE_BRAKES_MAX_TORQUE", "4200")
	t.Setenv("WHEELSIM_VEHICLE_TIRES_GLOBAL_SCALE", "0.8")

	cfg, err := Load("rwd")
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Tuning.Slip.Deadband)
	assert.Equal(t, 4200.0, cfg.Vehicle.Brakes.MaxTorque)
	assert.Equal(t, 0.8, cfg.Vehicle.Tires.GlobalScale)

	// Unset keys keep their defaults and the preset's wheels survive
	assert.Equal(t, Default().Tuning.Slip.BlendSpeed, cfg.Tuning.Slip.BlendSpeed)
	assert.Len(t, cfg.Vehicle.Wheels, 4)
}

func TestScalarKeys(t *testing.T) {
	keys := scalarKeys(reflect.TypeOf(Config{}), "")
	assert.Contains(t, keys, "log.level")
	assert.Contains(t, keys, "telemetry.influx.bucket")
	assert.Contains(t, keys, "tuning.slip.deadband")
	assert.Contains(t, keys, "vehicle.engine.torque_scale")
	assert.NotContains(t, keys, "vehicle.wheels")
	assert.NotContains(t, keys, "vehicle.engine.torque_curve")
}

func TestLoad_Preset(t *testing.T) {
	assert.ElementsMatch(t, []string{"awd", "drift", "rwd"}, Presets())

	cfg, err := Load("awd")
	require.NoError(t, err)

	spec, err := cfg.Spec()
	require.NoError(t, err)
	for i := range spec.Wheels {
		assert.True(t, spec.Wheels[i].Powered, "wheel %d", i)
		assert.Equal(t, 0.32, spec.Wheels[i].Radius)
	}
	assert.Equal(t, 1350.0, cfg.Body.Mass)
	assert.Equal(t, 30000.0, spec.Rear.SpringRate)
	// Rear damper not in the preset, default survives
	assert.Equal(t, 3500.0, spec.Rear.DamperRate)
	assert.True(t, spec.Assist.Enabled)

	_, err = Load("nope")
	assert.ErrorIs(t, err, ErrNoPreset)
}

func TestSpec_Default(t *testing.T) {
	spec, err := Default().Spec()
	require.NoError(t, err)

	fl := spec.Wheels[0]
	require.NotNil(t, fl.Mount)
	assert.Equal(t, core.AxleFront, fl.Axle)
	assert.Equal(t, core.SideLeft, fl.Side)
	assert.True(t, fl.Steers)
	assert.False(t, fl.Powered)
	assert.Less(t, fl.Mount.Position.X(), 0.0)
	assert.Greater(t, fl.Mount.Position.Z(), 0.0)

	rr := spec.Wheels[3]
	assert.Equal(t, core.AxleRear, rr.Axle)
	assert.Equal(t, core.SideRight, rr.Side)
	assert.True(t, rr.Powered)

	require.NotNil(t, spec.Engine)
	assert.Equal(t, 300.0, spec.Engine.TorqueCurve.MaxY())
	assert.Equal(t, 6, spec.Gearbox.TopGear())
	assert.Equal(t, 0.95, spec.Tires.FrontLongitudinal.Evaluate(0))
}

func TestSpec_Errors(t *testing.T) {
	cfg := Default()
	cfg.Vehicle.Wheels = nil
	_, err := cfg.Spec()
	assert.ErrorIs(t, err, ErrNoWheels)

	cfg = Default()
	cfg.Vehicle.Wheels = cfg.Vehicle.Wheels[:3]
	_, err = cfg.Spec()
	assert.ErrorIs(t, err, ErrWheelCount)

	cfg = Default()
	cfg.Vehicle.Wheels[1].Axle = "middle"
	_, err = cfg.Spec()
	assert.ErrorIs(t, err, ErrBadAxle)

	cfg = Default()
	cfg.Vehicle.Wheels[2].Side = ""
	_, err = cfg.Spec()
	assert.ErrorIs(t, err, ErrBadSide)

	cfg = Default()
	cfg.Vehicle.Engine.TorqueCurve = [][]float64{{1000}}
	_, err = cfg.Spec()
	assert.Error(t, err)
}

func TestSpec_DisabledWheel(t *testing.T) {
	cfg := Default()
	cfg.Vehicle.Wheels[0].Disabled = true

	spec, err := cfg.Spec()
	require.NoError(t, err)
	assert.Nil(t, spec.Wheels[0].Mount)
	assert.NotNil(t, spec.Wheels[1].Mount)
}

func TestSpawnHeight(t *testing.T) {
	cfg := Default()
	// r + rest - m·g/4/k
	want := 0.33 + 0.35 - 1200*9.81/4/35000
	assert.InDelta(t, want, cfg.SpawnHeight(), 1e-9)

	cfg.Sim.SpawnHeight = 2
	assert.Equal(t, 2.0, cfg.SpawnHeight())
}
