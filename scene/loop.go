package scene

import (
	"context"
	"errors"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// System runs once per frame in the update phase, before the scene's entities.
type System interface {
	Update(frame *UpdateFrame)
}

// RenderSystem is a System that also runs in the render phase, after the scene.
type RenderSystem interface {
	System
	Render(frame *RenderFrame) error
}

// LoopStats provides statistics about loop execution.
type LoopStats struct {
	Frames          uint64
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
	// Phases holds the update, barrier and render timings of the scene itself.
	Phases []SystemStats
}

// SystemStats provides execution statistics for a single system or phase.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type timing struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func newTiming(name string) *timing {
	return &timing{name: name, minDuration: time.Duration(1<<63 - 1)}
}

func (t *timing) record(d time.Duration) {
	t.executionCount++
	t.lastDuration = d
	t.totalDuration += d
	if d < t.minDuration {
		t.minDuration = d
	}
	if d > t.maxDuration {
		t.maxDuration = d
	}
}

func (t *timing) stats() SystemStats {
	avg := time.Duration(0)
	minimum := time.Duration(0)
	if t.executionCount > 0 {
		avg = t.totalDuration / time.Duration(t.executionCount)
		minimum = t.minDuration
	}
	return SystemStats{
		Name:           t.name,
		ExecutionCount: t.executionCount,
		MinDuration:    minimum,
		MaxDuration:    t.maxDuration,
		AvgDuration:    avg,
		LastDuration:   t.lastDuration,
		TotalDuration:  t.totalDuration,
	}
}

// Loop drives a scene frame by frame: systems and entities update, the barrier
// flushes structural changes, then the scene and render systems draw.
type Loop struct {
	scene   *Scene
	camera  *Camera
	systems []System
	timings []*timing

	update  *timing
	barrier *timing
	render  *timing
	frames  uint64
}

// NewLoop creates a loop for s viewed through camera, which may be nil.
func NewLoop(s *Scene, camera *Camera) *Loop {
	return &Loop{
		scene:   s,
		camera:  camera,
		update:  newTiming("update"),
		barrier: newTiming("barrier"),
		render:  newTiming("render"),
	}
}

func (l *Loop) Scene() *Scene { return l.scene }

func (l *Loop) Camera() *Camera { return l.camera }

func (l *Loop) SetCamera(c *Camera) { l.camera = c }

// Register adds a system. Systems run in registration order.
func (l *Loop) Register(system System) {
	l.systems = append(l.systems, system)

	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	l.timings = append(l.timings, newTiming(systemType.Name()))
}

// Once runs a single frame with the given delta time and returns its render frame.
// Render failures are joined into the error; the frame still completes.
func (l *Loop) Once(dt float64) (*RenderFrame, error) {
	frame := BeginFrame(l.scene, l.camera, dt)

	for i, system := range l.systems {
		start := time.Now()
		system.Update(frame)
		l.timings[i].record(time.Since(start))
	}

	start := time.Now()
	l.scene.Update(frame, l.camera)
	l.update.record(time.Since(start))

	start = time.Now()
	rf := frame.Barrier()
	l.barrier.record(time.Since(start))

	start = time.Now()
	errs := []error{l.scene.Render(rf)}
	for _, system := range l.systems {
		if rs, ok := system.(RenderSystem); ok {
			errs = append(errs, rs.Render(rf))
		}
	}
	l.render.record(time.Since(start))

	l.frames++
	return rf, errors.Join(errs...)
}

// Run executes frames at the given interval until the context is cancelled.
func (l *Loop) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if _, err := l.Once(dt); err != nil {
				l.scene.logger.Warn("frame failed", zap.Error(err))
			}
		}
	}
}

// Stats returns statistics about system and phase execution.
func (l *Loop) Stats() *LoopStats {
	stats := &LoopStats{
		Frames:      l.frames,
		SystemCount: len(l.systems),
		Systems:     make([]SystemStats, len(l.timings)),
		Phases: []SystemStats{
			l.update.stats(),
			l.barrier.stats(),
			l.render.stats(),
		},
	}
	for i, t := range l.timings {
		stats.Systems[i] = t.stats()
		stats.TotalExecutions += t.executionCount
	}
	return stats
}
