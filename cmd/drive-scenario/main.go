// Command drive-scenario runs a scripted drive headless and exports its telemetry
package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/lixenwraith/wheelsim/config"
	"github.com/lixenwraith/wheelsim/core"
	"github.com/lixenwraith/wheelsim/engine"
	"github.com/lixenwraith/wheelsim/logging"
	"github.com/lixenwraith/wheelsim/parameter"
	"github.com/lixenwraith/wheelsim/telemetry"
)

var (
	scenarioFlag = flag.StringP("scenario", "s", "accelerate", "scripted drive: "+strings.Join(scenarioNames(), ", "))
	ticksFlag    = flag.IntP("ticks", "t", parameter.ScenarioTicks, "number of fixed steps to run")
	configFlag   = flag.StringP("config", "c", "", "config file, or preset name: "+strings.Join(config.Presets(), ", "))
	sqliteFlag   = flag.String("sqlite", "", "write frames to this SQLite database")
	influxFlag   = flag.String("influx", "", "write frames as line protocol to this file, .gz compresses")
	plotFlag     = flag.StringP("plot", "p", "", "render speed, rpm and slip to this PNG")
	debugFlag    = flag.BoolP("debug", "d", false, "debug logging")
)

// runner owns one scripted run and its sinks
type runner struct {
	log      zerolog.Logger
	scenario scenario
	sim      *engine.Simulation
	recorder *telemetry.Recorder
	history  *telemetry.MemorySink
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

func newRunner(cfg *config.Config, sc scenario, ticks int, log zerolog.Logger) (*runner, error) {
	if cfg.Sim.SpawnSpeed == 0 {
		cfg.Sim.SpawnSpeed = sc.speed
	}

	every := max(cfg.Telemetry.Every, 1)
	history := telemetry.NewMemorySink(ticks/every + 1)
	recorder := telemetry.NewRecorder(every, log, history)

	sim, err := engine.NewFromConfig(cfg, recorder, log)
	if err != nil {
		return nil, err
	}

	r := &runner{
		log:      log,
		scenario: sc,
		sim:      sim,
		recorder: recorder,
		history:  history,
	}

	run := fmt.Sprintf("%s-%d", sc.name, time.Now().Unix())
	start := time.Now().UTC()

	sqlitePath := *sqliteFlag
	if sqlitePath == "" {
		sqlitePath = cfg.Telemetry.SQLite
	}
	if sqlitePath != "" {
		sink, err := telemetry.OpenSQLite(sqlitePath, run, cfg.Telemetry.BatchSize, log)
		if err != nil {
			return nil, err
		}
		recorder.Add(sink)
	}

	influx := cfg.Telemetry.Influx
	switch {
	case *influxFlag != "":
		sink, err := telemetry.NewInfluxFile(*influxFlag, run, start, log)
		if err != nil {
			return nil, err
		}
		recorder.Add(sink)
	case influx.Enabled && influx.URL != "":
		recorder.Add(telemetry.NewInfluxClient(influx.URL, influx.Token, influx.Org, influx.Bucket, run, start, log))
	case influx.Enabled && influx.File != "":
		sink, err := telemetry.NewInfluxFile(influx.File, run, start, log)
		if err != nil {
			return nil, err
		}
		recorder.Add(sink)
	}

	if cfg.Telemetry.Metrics {
		r.reader = sdkmetric.NewManualReader()
		r.provider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(r.reader))

		var names [4]string
		for i, w := range sim.Vehicle().Wheels() {
			names[i] = w.Name
		}
		metrics, err := telemetry.NewMetrics(r.provider.Meter("drive-scenario"), names)
		if err != nil {
			return nil, err
		}
		recorder.Add(metrics)
	}

	log.Info().
		Str("scenario", sc.name).
		Str("run", run).
		Int("ticks", ticks).
		Float64("spawn_speed", cfg.Sim.SpawnSpeed).
		Msg("scenario ready")
	return r, nil
}

// run steps the simulation; sink errors are logged by the recorder and do not abort
func (r *runner) run(ticks int) {
	began := time.Now()
	script := r.scenario.byTick(r.sim.Dt())
	tickLog := logging.Sampled(r.log, parameter.TickRate)
	input := func(tick uint64) core.Input {
		last := r.sim.Last()
		tickLog.Debug().
			Uint64("tick", tick).
			Float64("speed", last.Speed).
			Int("gear", last.Gear).
			Float64("rpm", last.RPM).
			Msg("tick")
		return script(tick)
	}
	if err := r.sim.Run(ticks, input); err != nil {
		r.log.Debug().Err(err).Msg("telemetry errors during run")
	}
	r.log.Info().
		Uint64("ticks", r.sim.Ticks()).
		Float64("sim_time", r.sim.Time()).
		Dur("wall_time", time.Since(began)).
		Msg("scenario finished")
}

// summarize logs final state and the extremes seen in recorded frames
func (r *runner) summarize() {
	last := r.sim.Last()
	pos := r.sim.Body().Position()

	maxSpeed, maxSlip, maxUtil := 0.0, 0.0, 0.0
	for _, f := range r.history.Frames() {
		maxSpeed = math.Max(maxSpeed, math.Abs(f.Snapshot.Speed))
		for _, w := range f.Snapshot.Wheels {
			if !w.Grounded {
				continue
			}
			maxSlip = math.Max(maxSlip, math.Abs(w.SlipRatio))
			maxUtil = math.Max(maxUtil, w.Utilization)
		}
	}

	r.log.Info().
		Float64("speed", last.Speed).
		Float64("max_speed", maxSpeed).
		Int("gear", last.Gear).
		Float64("rpm", last.RPM).
		Float64("max_slip", maxSlip).
		Float64("max_utilization", maxUtil).
		Floats64("position", pos[:]).
		Uint64("frames", r.recorder.Recorded()).
		Uint64("sink_failures", r.recorder.Failures()).
		Msg("summary")

	for i, w := range last.Wheels {
		r.log.Debug().
			Int("wheel", i).
			Str("name", w.Name).
			Bool("grounded", w.Grounded).
			Float64("load", w.Load).
			Float64("slip_ratio", w.SlipRatio).
			Float64("slip_angle", w.SlipAngle).
			Float64("omega", w.Omega).
			Msg("wheel")
	}
}

// reportMetrics collects the manual reader once and logs each instrument
func (r *runner) reportMetrics(ctx context.Context) error {
	if r.reader == nil {
		return nil
	}
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collecting metrics: %w", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			ev := r.log.Info().Str("metric", m.Name)
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				ev = ev.Int64("total", total)
			case metricdata.Histogram[float64]:
				var count uint64
				for _, dp := range data.DataPoints {
					count += dp.Count
				}
				ev = ev.Uint64("count", count)
			case metricdata.Gauge[float64]:
				if n := len(data.DataPoints); n > 0 {
					ev = ev.Float64("value", data.DataPoints[n-1].Value)
				}
			}
			ev.Msg("metric")
		}
	}
	return nil
}

func (r *runner) close(ctx context.Context) error {
	err := r.recorder.Close()
	if r.provider != nil {
		err = errors.Join(err, r.provider.Shutdown(ctx))
	}
	return err
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
	}

	log, closer, err := logging.Setup(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	sc, err := lookupScenario(*scenarioFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid scenario")
	}
	if *ticksFlag <= 0 {
		log.Fatal().Int("ticks", *ticksFlag).Msg("ticks must be positive")
	}

	r, err := newRunner(cfg, sc, *ticksFlag, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}

	ctx := context.Background()
	r.run(*ticksFlag)
	r.summarize()
	if err := r.reportMetrics(ctx); err != nil {
		log.Error().Err(err).Msg("metrics")
	}

	if *plotFlag != "" {
		if err := savePlots(*plotFlag, sc.name, r.history.Frames()); err != nil {
			log.Error().Err(err).Str("path", *plotFlag).Msg("plot failed")
		} else {
			log.Info().Str("path", *plotFlag).Msg("plot written")
		}
	}

	if err := r.close(ctx); err != nil {
		log.Error().Err(err).Msg("closing telemetry")
		os.Exit(1)
	}
}
