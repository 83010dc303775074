// Command scene-stress drives a populated scene headlessly and reports frame timings,
// collision query throughput and memory use.
//
// Profiling:
//
//	go build ./cmd/scene-stress
//	./scene-stress -profile cpu
//	go tool pprof -http=":8000" ./scene-stress cpu.pprof
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/plus3/scenery/internal/config"
	"github.com/plus3/scenery/internal/log"
	"github.com/plus3/scenery/scene"
)

type options struct {
	configPath     string
	envFile        string
	entities       int
	frames         int
	duration       time.Duration
	profile        string
	gcPauseMetrics bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML configuration file.")
	flag.StringVar(&opts.envFile, "env", ".env", "Environment file with SCENERY_* overrides.")
	flag.IntVar(&opts.entities, "entities", 0, "The initial number of entities to create. Overrides the config.")
	flag.IntVar(&opts.frames, "frames", 0, "The number of frames to run. Overrides the config.")
	flag.DurationVar(&opts.duration, "duration", 0, "Run for this long instead of a fixed number of frames.")
	flag.StringVar(&opts.profile, "profile", "", "Write a cpu or mem profile to the working directory.")
	flag.BoolVar(&opts.gcPauseMetrics, "gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	if err := realMain(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "scene-stress: %v\n", err)
		os.Exit(1)
	}
}

// realMain returns instead of exiting so deferred profile and logger shutdown always run.
func realMain(opts options, out io.Writer) error {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.entities > 0 {
		cfg.Stress.Entities = opts.entities
	}
	if opts.frames > 0 {
		cfg.Stress.Frames = opts.frames
	}

	logger, err := log.New(cfg.Log.Options())
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	stop, err := startProfile(opts.profile)
	if err != nil {
		return err
	}
	defer stop()

	report, err := run(cfg, logger, opts.duration)
	if err != nil {
		logger.Error("stress run failed", zap.Error(err))
		return err
	}
	report.GCPauseMetrics = opts.gcPauseMetrics

	fmt.Fprintln(out, "\n\n--- Scene Stress Report ---")
	if err := report.Generate(out); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Fprintln(out, "--- End of Report ---")
	return nil
}

func startProfile(mode string) (stop func(), err error) {
	switch mode {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop, nil
	case "mem":
		return profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop, nil
	case "":
		return func() {}, nil
	default:
		return nil, fmt.Errorf("unknown profile mode %q", mode)
	}
}

func run(cfg config.Config, logger *zap.Logger, duration time.Duration) (*Report, error) {
	policy, err := cfg.Scene.Policy()
	if err != nil {
		return nil, err
	}
	s := scene.New(cfg.Scene.Name,
		scene.WithLogger(logger),
		scene.WithWorkers(cfg.Loop.Workers),
		scene.WithDuplicatePolicy(policy),
	)
	defer s.Close()
	s.SetDirectionalLight(mgl32.Vec3(cfg.Scene.Light))

	rng := rand.New(rand.NewSource(cfg.Stress.Seed))
	spawner := &Spawner{Rand: rng, Spread: cfg.Stress.Spread}

	logger.Info("populating scene", zap.Int("entities", cfg.Stress.Entities))
	for i := 0; i < cfg.Stress.Entities; i++ {
		if err := s.Add(spawner.New(s)); err != nil {
			return nil, fmt.Errorf("populate: %w", err)
		}
	}

	sensor := scene.NewGameObject(s.Transforms(), "sensor", nil)
	sensor.AddBoxCollider(mgl32.Vec3{cfg.Stress.Spread / 10, cfg.Stress.Spread / 10, cfg.Stress.Spread / 10}, mgl32.Vec3{})
	if err := s.Add(sensor); err != nil {
		return nil, fmt.Errorf("add sensor: %w", err)
	}

	loop := scene.NewLoop(s, nil)
	loop.Register(&BounceSystem{Spread: cfg.Stress.Spread})
	loop.Register(&ChurnSystem{Spawner: spawner, Every: 10})

	report := &Report{
		Frames:   cfg.Stress.Frames,
		Duration: duration,
		Entities: cfg.Stress.Entities,
		Workers:  cfg.Loop.Workers,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	ctx := context.Background()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	logger.Info("running frames", zap.Int("frames", cfg.Stress.Frames), zap.Duration("duration", duration))
	startTime := time.Now()
	lastFrameTime := time.Now()

	var last *scene.RenderFrame
	for frame := 0; duration > 0 || frame < cfg.Stress.Frames; frame++ {
		if ctx.Err() != nil {
			break
		}

		deltaTime := time.Since(lastFrameTime)
		lastFrameTime = time.Now()

		updateStart := time.Now()
		rf, err := loop.Once(deltaTime.Seconds())
		report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
		if err != nil {
			report.RenderErrors++
		}

		queryStart := time.Now()
		contacts, err := rf.Collisions(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return nil, fmt.Errorf("frame %d collisions: %w", rf.Number, err)
		}
		report.QueryTime.Samples = append(report.QueryTime.Samples, time.Since(queryStart))
		report.Contacts += int64(len(contacts))

		proxy, full := sensorHits(rf, sensor)
		report.ProxyHits += proxy
		report.FullHits += full

		last = rf
	}

	report.TotalTime = time.Since(startTime)
	report.TotalFrames = int64(len(report.UpdateTime.Samples))
	report.UpdateTime.Finalize()
	report.QueryTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	if last != nil {
		report.Fingerprint = last.Fingerprint()
		report.FinalEntities = last.Len()
	}
	report.Loop = loop.Stats()

	logger.Info("stress run finished",
		zap.Int64("frames", report.TotalFrames),
		zap.Duration("elapsed", report.TotalTime),
		zap.Uint64("fingerprint", report.Fingerprint),
	)
	return report, nil
}

// sensorHits counts the frame's bodies the sensor touches with the broad-phase proxy
// check and with the full per-collider test.
func sensorHits(rf *scene.RenderFrame, sensor *scene.GameObject) (proxy, full int64) {
	at := sensor.Transform().Get().Position
	for e := range rf.All() {
		if e == scene.Entity(sensor) {
			continue
		}
		set, ok := scene.CollidersOf(e)
		if !ok {
			continue
		}
		if scene.ProxyCollisionAt(at, sensor.Colliders(), e.Transform().Get().Position, set).Hit() {
			proxy++
		}
		if sensor.Colliders().Collision(set, mgl32.Vec3{}).Hit() {
			full++
		}
	}
	return proxy, full
}
