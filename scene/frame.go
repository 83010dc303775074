package scene

import (
	"context"
	"encoding/binary"
	"iter"
	"math"
	"slices"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UpdateFrame is the write phase of a frame. Entity updates, transform writes and
// collider refreshes happen while it is open; structural changes go through Commands
// and are applied at the Barrier.
type UpdateFrame struct {
	DeltaTime float64
	Number    uint64
	Commands  *Commands
	Scene     *Scene
	Camera    *Camera

	closed atomic.Bool
}

// BeginFrame opens the update phase of the next frame of s.
func BeginFrame(s *Scene, camera *Camera, dt float64) *UpdateFrame {
	if s == nil {
		panic("scene: BeginFrame called with a nil scene")
	}
	return &UpdateFrame{
		DeltaTime: dt,
		Number:    s.frames.Add(1),
		Commands:  newCommands(),
		Scene:     s,
		Camera:    camera,
	}
}

// Open reports whether the update phase is still running.
func (f *UpdateFrame) Open() bool {
	return f != nil && !f.closed.Load()
}

func (f *UpdateFrame) mustBeOpen(op string) {
	if f == nil {
		panic("scene: " + op + " called outside an update frame")
	}
	if f.closed.Load() {
		panic("scene: " + op + " called after the frame barrier")
	}
}

// Barrier ends the update phase. Queued commands are flushed, the render-priority
// index is rebuilt and the returned RenderFrame carries a snapshot of the entities in
// render order. Calling Barrier twice panics.
func (f *UpdateFrame) Barrier() *RenderFrame {
	f.mustBeOpen("UpdateFrame.Barrier")

	s := f.Scene
	if err := f.Commands.Flush(s); err != nil {
		s.logger.Warn("command flush failed", zap.Uint64("frame", f.Number), zap.Error(err))
	}
	f.closed.Store(true)

	s.Refresh()
	return &RenderFrame{
		DeltaTime: f.DeltaTime,
		Number:    f.Number,
		Scene:     s,
		Camera:    f.Camera,
		Light:     s.DirectionalLight(),
		entities:  s.Ordered(),
		workers:   s.workers,
	}
}

// RenderFrame is the read phase of a frame. Collider views and transforms may be read
// from any number of goroutines; nothing is written until the next UpdateFrame.
type RenderFrame struct {
	DeltaTime float64
	Number    uint64
	Scene     *Scene
	Camera    *Camera
	Light     mgl32.Vec3

	entities []Entity
	workers  int
}

// Entities returns the frame's entities, lowest priority first.
func (f *RenderFrame) Entities() []Entity {
	return slices.Clone(f.entities)
}

// All iterates the frame's entities in render order.
func (f *RenderFrame) All() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for _, e := range f.entities {
			if !yield(e) {
				return
			}
		}
	}
}

func (f *RenderFrame) Len() int { return len(f.entities) }

// Contact is a collision between two entities found by a frame query.
type Contact struct {
	A, B      string
	Collision Collision
}

type collidable struct {
	name   string
	set    *ColliderSet
	lo, hi mgl32.Vec3
}

// Collisions tests every pair of collidable entities in the frame for a static
// overlap. Pairs whose combined bounds are apart are skipped before the per-collider
// test. Work is spread over the scene's worker limit; the result is ordered by the
// first entity's render position, then the second's.
func (f *RenderFrame) Collisions(ctx context.Context) ([]Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bodies := make([]collidable, 0, len(f.entities))
	for _, e := range f.entities {
		set, ok := CollidersOf(e)
		if !ok {
			continue
		}
		lo, hi, ok := set.Bounds()
		if !ok {
			continue
		}
		bodies = append(bodies, collidable{name: e.Name(), set: set, lo: lo, hi: hi})
	}

	rows := make([][]Contact, len(bodies))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(f.workers, 1))

	for i := range bodies {
		g.Go(func() error {
			a := bodies[i]
			for j := i + 1; j < len(bodies); j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				b := bodies[j]
				if !boundsTouch(a.lo, a.hi, b.lo, b.hi) {
					continue
				}
				if hit := a.set.Collision(b.set, mgl32.Vec3{}); hit.Hit() {
					rows[i] = append(rows[i], Contact{A: a.name, B: b.name, Collision: hit})
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var contacts []Contact
	for _, row := range rows {
		contacts = append(contacts, row...)
	}
	return contacts, nil
}

func boundsTouch(alo, ahi, blo, bhi mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if alo[i] > bhi[i] || blo[i] > ahi[i] {
			return false
		}
	}
	return true
}

// Fingerprint digests the frame's entity names, transforms and collider bounds in
// render order. Two frames with equal state have equal fingerprints.
func (f *RenderFrame) Fingerprint() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 64)

	for _, e := range f.entities {
		o := e.object()
		buf = buf[:0]
		buf = append(buf, byte(o.kind))
		buf = binary.LittleEndian.AppendUint32(buf, o.Priority())
		_, _ = d.WriteString(o.name)
		_, _ = d.Write(buf)

		if t := o.transform.Get(); t != nil {
			_, _ = d.Write(appendVec3(buf[:0], t.Position))
			_, _ = d.Write(appendVec3(buf[:0], t.Rotation))
			_, _ = d.Write(appendVec3(buf[:0], t.Scale))
		}
		for _, c := range o.colliders.all() {
			v := c.View()
			if !v.Valid() {
				continue
			}
			_, _ = d.Write(appendVec3(buf[:0], v.MinPoints()))
			_, _ = d.Write(appendVec3(buf[:0], v.MaxPoints()))
		}
	}
	return d.Sum64()
}

func appendVec3(buf []byte, v mgl32.Vec3) []byte {
	for _, c := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c))
	}
	return buf
}
