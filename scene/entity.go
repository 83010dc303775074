package scene

import (
	"fmt"
	"image/color"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// EntityType is the closed set of entity variants.
type EntityType uint8

const (
	TypeUndefined EntityType = iota
	TypeCamera
	TypeGameObject
	TypeSprite2D
	TypeUI
	TypeTile
	TypeText
	TypeTest
)

var entityTypeNames = [...]string{
	TypeUndefined:  "undefined",
	TypeCamera:     "camera",
	TypeGameObject: "game_object",
	TypeSprite2D:   "sprite_2d",
	TypeUI:         "ui",
	TypeTile:       "tile",
	TypeText:       "text",
	TypeTest:       "test",
}

func (t EntityType) String() string {
	if int(t) < len(entityTypeNames) {
		return entityTypeNames[t]
	}
	return fmt.Sprintf("EntityType(%d)", uint8(t))
}

// ParseEntityType is the inverse of EntityType.String.
func ParseEntityType(s string) (EntityType, error) {
	for i, name := range entityTypeNames {
		if name == s {
			return EntityType(i), nil
		}
	}
	return TypeUndefined, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

func (t EntityType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EntityType) UnmarshalText(text []byte) error {
	parsed, err := ParseEntityType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Entity is a named, transformable participant in a scene.
//
// Update advances per-frame state and runs in the update phase; it must not assume
// any lock is held. Render submits drawing through the entity's graphics handle and
// runs in the render phase; it must not mutate scene structure.
//
// Every implementation embeds Object.
type Entity interface {
	Name() string
	Type() EntityType
	Priority() uint32
	Transform() TransformRef
	Describe() Descriptor

	Update(frame *UpdateFrame)
	Render(frame *RenderFrame) error

	object() *Object
}

// Object is the state shared by every entity variant: identity, transform slot,
// graphics handle, optional collider set and ownership count.
type Object struct {
	name      string
	kind      EntityType
	priority  atomic.Uint32
	gfx       GraphicsOps
	transform TransformRef
	colliders *ColliderSet
	tint      color.RGBA

	refs      atomic.Int32
	destroyed atomic.Bool
	onDestroy func()
	scene     atomic.Pointer[Scene]
	seq       uint64
}

func (o *Object) init(arena *TransformArena, name string, kind EntityType, gfx GraphicsOps) {
	if arena == nil {
		panic("scene: entity " + name + " created without a transform arena")
	}
	o.name = name
	o.kind = kind
	o.gfx = gfx
	o.tint = color.RGBA{255, 255, 255, 255}
	o.transform = arena.Alloc(NewTransform())
}

func (o *Object) object() *Object { return o }

func (o *Object) Name() string { return o.name }

func (o *Object) Type() EntityType { return o.kind }

func (o *Object) Priority() uint32 { return o.priority.Load() }

// SetPriority moves the entity to another render bucket. The owning scene's index is
// marked stale and rebuilt at the next barrier or Refresh.
func (o *Object) SetPriority(p uint32) {
	if o.priority.Swap(p) == p {
		return
	}
	if s := o.scene.Load(); s != nil {
		s.markDirty()
	}
}

// Graphics returns the graphics handle, which may be nil for non-visual entities.
func (o *Object) Graphics() GraphicsOps { return o.gfx }

func (o *Object) Transform() TransformRef { return o.transform }

func (o *Object) Tint() color.RGBA { return o.tint }

func (o *Object) SetTint(c color.RGBA) { o.tint = c }

// Position returns the current position, or the origin once the entity is destroyed.
func (o *Object) Position() mgl32.Vec3 {
	if t := o.transform.Get(); t != nil {
		return t.Position
	}
	return mgl32.Vec3{}
}

// SetPosition, SetRotation and SetScale write the transform. Like every transform
// write they belong to the update phase, or to construction.
func (o *Object) SetPosition(p mgl32.Vec3) {
	if t := o.transform.Get(); t != nil {
		t.SetPosition(p)
	}
}

func (o *Object) SetRotation(r mgl32.Vec3) {
	if t := o.transform.Get(); t != nil {
		t.SetRotation(r)
	}
}

func (o *Object) SetScale(s mgl32.Vec3) {
	if t := o.transform.Get(); t != nil {
		t.SetScale(s)
	}
}

// Colliders returns the entity's collider set, nil until a collider is added.
func (o *Object) Colliders() *ColliderSet { return o.colliders }

// AddCollider attaches geometry to the entity's transform and appends the resulting
// collider to its set.
func (o *Object) AddCollider(geometry Geometry, offset mgl32.Vec3) *Collider {
	c := NewCollider(o.transform, geometry, offset)
	if o.colliders == nil {
		o.colliders = NewColliderSet()
	}
	o.colliders.Add(c)
	return c
}

func (o *Object) AddBoxCollider(halfExtents, offset mgl32.Vec3) *Collider {
	return o.AddCollider(Box(halfExtents), offset)
}

// Retain registers another owner of the entity.
func (o *Object) Retain() {
	o.refs.Add(1)
}

// Release drops one owner. When the last owner releases, the entity is destroyed: its
// transform slot is freed and its colliders are dropped. Release reports whether this
// call destroyed the entity.
func (o *Object) Release() bool {
	if o.refs.Add(-1) > 0 {
		return false
	}
	if !o.destroyed.CompareAndSwap(false, true) {
		return false
	}
	if o.onDestroy != nil {
		o.onDestroy()
	}
	o.colliders.clear()
	if o.transform.Arena != nil {
		o.transform.Arena.Release(o.transform.Handle)
	}
	return true
}

// dropUnowned destroys an entity that nothing has retained.
func (o *Object) dropUnowned() {
	if o.refs.Load() <= 0 {
		o.Release()
	}
}

// Destroyed reports whether the last owner has released the entity.
func (o *Object) Destroyed() bool { return o.destroyed.Load() }

// Describe captures the base fields of the entity for persistence.
func (o *Object) Describe() Descriptor {
	d := Descriptor{
		Name:     o.name,
		Type:     o.kind,
		Priority: o.Priority(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
	if t := o.transform.Get(); t != nil {
		d.Position = t.Position
		d.Rotation = t.Rotation
		d.Scale = t.Scale
	}
	if o.tint != (color.RGBA{255, 255, 255, 255}) {
		d.Params.Tint = []uint8{o.tint.R, o.tint.G, o.tint.B, o.tint.A}
	}
	for _, c := range o.colliders.all() {
		d.Colliders = append(d.Colliders, ColliderDescriptor{
			Vertices: collect(c.geometry),
			Offset:   c.offset,
		})
	}
	return d
}

// submit fills the entity fields of call and hands it to the graphics handle.
// Entities without a handle render nothing.
func (o *Object) submit(frame *RenderFrame, call DrawCall) error {
	if o.gfx == nil {
		return nil
	}
	call.Entity = o.name
	call.Kind = o.kind
	call.Priority = o.Priority()
	call.Light = frame.Light
	call.Tint = o.tint
	if t := o.transform.Get(); t != nil {
		call.Model = t.Model()
		if call.ViewProjection == (mgl32.Mat4{}) {
			call.ViewProjection = t.ViewProjection
		}
	}
	_, err := o.gfx.Submit(call)
	return err
}

// refresh recomputes the entity's colliders, if any.
func (o *Object) refresh(frame *UpdateFrame) {
	o.colliders.Refresh(frame)
}
