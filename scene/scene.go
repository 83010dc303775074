// Package scene holds the entities of a frame, orders them for rendering and answers
// collision queries between them.
package scene

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// DuplicatePolicy decides what Add does when the name is already taken.
type DuplicatePolicy uint8

const (
	// DuplicateOverwrite replaces the existing entity, which is released.
	DuplicateOverwrite DuplicatePolicy = iota
	// DuplicateReject leaves the scene unchanged and returns ErrDuplicateName.
	DuplicateReject
	// DuplicateRename stores the new entity as "name.N" with the first free N.
	DuplicateRename
)

func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateReject:
		return "reject"
	case DuplicateRename:
		return "rename"
	default:
		return "overwrite"
	}
}

// ParseDuplicatePolicy accepts the names returned by DuplicatePolicy.String.
// The empty string selects DuplicateOverwrite.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "", "overwrite":
		return DuplicateOverwrite, nil
	case "reject":
		return DuplicateReject, nil
	case "rename":
		return DuplicateRename, nil
	}
	return DuplicateOverwrite, fmt.Errorf("scene: unknown duplicate policy %q", s)
}

// Scene owns the entities of a frame and their render order.
//
// Structural changes (Add, Remove, index rebuilds) are serialized by one mutex.
// Entity state and collider geometry are not locked: they follow the frame phases,
// written inside an UpdateFrame and read after its Barrier.
type Scene struct {
	name string

	mu      sync.RWMutex
	objects map[string]Entity
	index   *priorityIndex
	dirty   atomic.Bool
	nextSeq uint64

	lightMu sync.RWMutex
	light   mgl32.Vec3

	arena    *TransformArena
	registry *Registry
	gfx      GraphicsOps
	policy   DuplicatePolicy
	logger   *zap.Logger
	workers  int
	frames   atomic.Uint64
}

// Option configures a Scene.
type Option func(*Scene)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scene) { s.logger = logger }
}

func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return func(s *Scene) { s.policy = policy }
}

// WithRegistry sets the factories used by Load. Defaults to DefaultRegistry.
func WithRegistry(registry *Registry) Option {
	return func(s *Scene) { s.registry = registry }
}

// WithGraphics sets the graphics handle given to entities built by Load.
func WithGraphics(gfx GraphicsOps) Option {
	return func(s *Scene) { s.gfx = gfx }
}

// WithTransformArena shares an existing arena instead of allocating one.
func WithTransformArena(arena *TransformArena) Option {
	return func(s *Scene) { s.arena = arena }
}

// WithWorkers bounds the goroutines used by RenderFrame.Collisions.
func WithWorkers(n int) Option {
	return func(s *Scene) { s.workers = n }
}

// New creates an empty scene.
func New(name string, opts ...Option) *Scene {
	s := &Scene{
		name:    name,
		objects: make(map[string]Entity),
		index:   newPriorityIndex(),
		light:   mgl32.Vec3{0, -1, 0},
		workers: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.arena == nil {
		s.arena = NewTransformArena()
	}
	if s.registry == nil {
		s.registry = DefaultRegistry()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.workers < 1 {
		s.workers = 1
	}
	s.logger = s.logger.With(zap.String("scene", name))
	return s
}

func (s *Scene) Name() string { return s.name }

// Transforms returns the arena that entities built for this scene allocate from.
func (s *Scene) Transforms() *TransformArena { return s.arena }

func (s *Scene) Registry() *Registry { return s.registry }

func (s *Scene) Graphics() GraphicsOps { return s.gfx }

func (s *Scene) Logger() *zap.Logger { return s.logger }

func (s *Scene) Policy() DuplicatePolicy { return s.policy }

// Add inserts e under its name. The scene retains e until it is removed, replaced or
// the scene is closed. Adding an entity that is already present is a no-op.
func (s *Scene) Add(e Entity) error {
	if e == nil {
		panic("scene: Add called with a nil entity")
	}
	o := e.object()

	var replaced Entity

	s.mu.Lock()
	if owner := o.scene.Load(); owner != nil && owner != s {
		s.mu.Unlock()
		return fmt.Errorf("scene: entity %s already belongs to scene %s", o.name, owner.name)
	}

	if existing, ok := s.objects[o.name]; ok {
		if existing.object() == o {
			s.mu.Unlock()
			return nil
		}
		switch s.policy {
		case DuplicateReject:
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateName, o.name)
		case DuplicateRename:
			o.name = s.freeName(o.name)
		default:
			replaced = existing
			delete(s.objects, o.name)
			s.index.purge(existing)
			existing.object().scene.Store(nil)
		}
	}

	o.seq = s.nextSeq
	s.nextSeq++
	o.scene.Store(s)
	o.Retain()
	s.objects[o.name] = e
	s.index.insert(e)
	s.mu.Unlock()

	if replaced != nil {
		replaced.object().Release()
		s.logger.Debug("replaced entity", zap.String("entity", o.name))
	}
	s.logger.Debug("added entity",
		zap.String("entity", o.name),
		zap.Stringer("type", o.kind),
		zap.Uint32("priority", o.Priority()),
	)
	return nil
}

// freeName returns name.N for the first N >= 1 not in use. Callers hold s.mu.
func (s *Scene) freeName(name string) string {
	for n := 1; ; n++ {
		candidate := name + "." + strconv.Itoa(n)
		if _, taken := s.objects[candidate]; !taken {
			return candidate
		}
	}
}

// Remove drops the named entity and releases the scene's ownership of it. It reports
// whether an entity was removed.
func (s *Scene) Remove(name string) bool {
	s.mu.Lock()
	e, ok := s.objects[name]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.objects, name)
	s.index.purge(e)
	e.object().scene.Store(nil)
	s.mu.Unlock()

	e.object().Release()
	s.logger.Debug("removed entity", zap.String("entity", name))
	return true
}

// Get returns the named entity, or nil.
func (s *Scene) Get(name string) Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[name]
}

// Lookup returns the named entity when it exists and has type T.
func Lookup[T Entity](s *Scene, name string) (T, bool) {
	e, ok := s.Get(name).(T)
	return e, ok
}

func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Names returns the entity names in sorted order.
func (s *Scene) Names() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	s.mu.RUnlock()
	slices.Sort(names)
	return names
}

func (s *Scene) markDirty() {
	s.dirty.Store(true)
}

// Refresh rebuilds the render-priority index from the current entities.
func (s *Scene) Refresh() {
	s.ResetRenderPriorityMap()
}

// ResetRenderPriorityMap discards the render-priority index and rebuilds it.
func (s *Scene) ResetRenderPriorityMap() {
	s.mu.Lock()
	s.dirty.Store(false)
	s.index.rebuild(s.objects)
	s.mu.Unlock()
}

// Ordered returns the entities lowest priority first, rebuilding a stale index.
func (s *Scene) Ordered() []Entity {
	if s.dirty.Load() {
		s.Refresh()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.ordered()
}

// Priorities returns the populated render priorities in ascending order.
func (s *Scene) Priorities() []uint32 {
	if s.dirty.Load() {
		s.Refresh()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.priorities()
}

// Bucket returns the entities rendered at priority p, in insertion order.
func (s *Scene) Bucket(p uint32) []Entity {
	if s.dirty.Load() {
		s.Refresh()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.bucket(p)
}

func (s *Scene) SetDirectionalLight(v mgl32.Vec3) {
	s.lightMu.Lock()
	s.light = v
	s.lightMu.Unlock()
}

func (s *Scene) DirectionalLight() mgl32.Vec3 {
	s.lightMu.RLock()
	defer s.lightMu.RUnlock()
	return s.light
}

// Update advances the scene by one frame. The camera, when given, is updated first and
// its view-projection is written into every entity transform; UI elements keep the
// identity. Each entity is then updated in priority order and its colliders refreshed.
// Update must be called inside an open update frame.
func (s *Scene) Update(frame *UpdateFrame, camera *Camera) {
	frame.mustBeOpen("Scene.Update")

	var vp mgl32.Mat4
	if camera != nil {
		camera.Update(frame)
		camera.refresh(frame)
		vp = camera.ViewProjection()
	}

	for _, e := range s.Ordered() {
		o := e.object()
		if camera != nil {
			if t := o.transform.Get(); t != nil {
				if o.kind == TypeUI {
					t.ViewProjection = mgl32.Ident4()
				} else {
					t.ViewProjection = vp
				}
			}
		}
		if camera != nil && o == camera.object() {
			continue
		}
		e.Update(frame)
		o.refresh(frame)
	}
}

// Render renders every entity of frame in priority order. A failing entity does not
// stop the frame: its error is wrapped with the entity name, logged and joined into
// the result.
func (s *Scene) Render(frame *RenderFrame) error {
	var errs []error
	for _, e := range frame.entities {
		if err := e.Render(frame); err != nil {
			err = fmt.Errorf("render %s: %w", e.Name(), err)
			s.logger.Warn("render failed", zap.String("entity", e.Name()), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sweep tests moving mover by delta against every other collidable entity in priority
// order and returns the first contact.
func (s *Scene) Sweep(mover Entity, delta mgl32.Vec3) (Contact, bool) {
	set, ok := CollidersOf(mover)
	if !ok {
		return Contact{}, false
	}
	self := mover.object()
	for _, e := range s.Ordered() {
		if e.object() == self {
			continue
		}
		other, ok := CollidersOf(e)
		if !ok {
			continue
		}
		if hit := set.Collision(other, delta); hit.Hit() {
			return Contact{A: self.name, B: e.Name(), Collision: hit}, true
		}
	}
	return Contact{}, false
}

// Close removes every entity and releases the scene's ownership of each.
func (s *Scene) Close() {
	s.mu.Lock()
	objects := s.objects
	s.objects = make(map[string]Entity)
	s.index = newPriorityIndex()
	s.dirty.Store(false)
	for _, e := range objects {
		e.object().scene.Store(nil)
	}
	s.mu.Unlock()

	for _, e := range objects {
		e.object().Release()
	}
	s.logger.Debug("closed scene", zap.Int("released", len(objects)))
}
