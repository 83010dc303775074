package scene

import "github.com/go-gl/mathgl/mgl32"

// Collider is axis-aligned bounding geometry bound to an owner's transform slot.
//
// Derived bounds are only as fresh as the last Refresh. Reads never recompute, so
// queries during the render phase see the snapshot taken by the update phase.
type Collider struct {
	transform TransformRef
	geometry  Geometry
	offset    mgl32.Vec3
	world     Vertices

	originalCenter mgl32.Vec4
	center         mgl32.Vec4
	clipCenter     mgl32.Vec4
	minPoints      mgl32.Vec3
	maxPoints      mgl32.Vec3
	halfExtents    mgl32.Vec3
	centerOffset   mgl32.Vec3
	valid          bool
}

// NewCollider binds geometry to the transform at ref. Vertices are local to the
// owner and shifted by offset before the owner's translate and scale are applied.
// The collider is refreshed once on construction.
func NewCollider(ref TransformRef, geometry Geometry, offset mgl32.Vec3) *Collider {
	c := &Collider{
		transform: ref,
		geometry:  geometry,
		offset:    offset,
	}

	if lo, hi, ok := bounds(geometry); ok {
		mid := lo.Add(hi).Mul(0.5).Add(offset)
		c.originalCenter = mid.Vec4(1)
	}

	c.recompute()
	return c
}

// NewBoxCollider creates a collider from an axis-aligned box with the given half extents.
func NewBoxCollider(ref TransformRef, halfExtents, offset mgl32.Vec3) *Collider {
	return NewCollider(ref, Box(halfExtents), offset)
}

// NewTextureCollider derives a collider from a texture's pixel size, as a quad in the XY plane.
func NewTextureCollider(ref TransformRef, width, height int, offset mgl32.Vec3) *Collider {
	return NewCollider(ref, Quad(float32(width), float32(height)), offset)
}

// Refresh recomputes the collider's bounds from the owner's current transform.
// It must be called from an open update frame and panics otherwise.
func (c *Collider) Refresh(frame *UpdateFrame) {
	frame.mustBeOpen("Collider.Refresh")
	c.recompute()
}

// View returns the read-only view of c.
func (c *Collider) View() ColliderView {
	return ColliderView{c: c}
}

func (c *Collider) Geometry() Geometry { return c.geometry }

func (c *Collider) Offset() mgl32.Vec3 { return c.offset }

func (c *Collider) recompute() {
	t := c.transform.Get()
	if t == nil || c.geometry == nil || c.geometry.Len() == 0 {
		c.valid = false
		return
	}

	model := t.Translate.Mul4(t.Scaling)
	if cap(c.world) < c.geometry.Len() {
		c.world = make(Vertices, c.geometry.Len())
	}
	c.world = c.world[:c.geometry.Len()]
	for i := range c.world {
		local := c.geometry.Vertex(i).Add(c.offset)
		c.world[i] = model.Mul4x1(local.Vec4(1)).Vec3()
	}

	for _, axis := range axes {
		i := axis.component()
		c.minPoints[i], _ = Extreme(c.world, axis, Less)
		c.maxPoints[i], _ = Extreme(c.world, axis, Greater)
	}

	mid := c.minPoints.Add(c.maxPoints).Mul(0.5)
	c.halfExtents = c.maxPoints.Sub(c.minPoints).Mul(0.5)
	c.center = mid.Vec4(1)
	c.centerOffset = mid.Sub(t.Translate.Col(3).Vec3())
	c.clipCenter = t.ViewProjection.Mul4x1(c.center)
	c.valid = true
}

func bounds(g Geometry) (lo, hi mgl32.Vec3, ok bool) {
	for _, axis := range axes {
		i := axis.component()
		if lo[i], ok = Extreme(g, axis, Less); !ok {
			return lo, hi, false
		}
		hi[i], _ = Extreme(g, axis, Greater)
	}
	return lo, hi, true
}

// ColliderView is the read-only face of a Collider. It exposes the bounds computed at
// the last refresh and the collision queries, and has no way to trigger a refresh.
type ColliderView struct {
	c *Collider
}

// Valid reports whether the collider has usable bounds. Views of colliders with empty
// geometry or a released owner are never valid.
func (v ColliderView) Valid() bool {
	return v.c != nil && v.c.valid
}

func (v ColliderView) Center() mgl32.Vec4 { return v.c.center }

func (v ColliderView) OriginalCenter() mgl32.Vec4 { return v.c.originalCenter }

func (v ColliderView) ClipCenter() mgl32.Vec4 { return v.c.clipCenter }

func (v ColliderView) Offset() mgl32.Vec3 { return v.c.offset }

func (v ColliderView) MinPoints() mgl32.Vec3 { return v.c.minPoints }

func (v ColliderView) MaxPoints() mgl32.Vec3 { return v.c.maxPoints }

func (v ColliderView) HalfExtents() mgl32.Vec3 { return v.c.halfExtents }

// Collision reports whether moving this collider by moving would make it overlap
// other, and along which axis.
func (v ColliderView) Collision(other ColliderView, moving mgl32.Vec3) Collision {
	if !v.Valid() || !other.Valid() {
		return NoCollision
	}
	return collide(v.c.center.Vec3(), v.c.halfExtents, other.c.center.Vec3(), other.c.halfExtents, moving)
}

// Overlaps is the static form of Collision.
func (v ColliderView) Overlaps(other ColliderView) bool {
	return v.Collision(other, mgl32.Vec3{}).Hit()
}

// CollisionAt compares two colliders placed at the given world positions instead of
// their owners' transforms. Each collider keeps its extents and its offset from the
// owner as of the last refresh, scale included, so calling it with the owners' own
// positions agrees with Overlaps.
func CollisionAt(p1 mgl32.Vec3, c1 ColliderView, p2 mgl32.Vec3, c2 ColliderView) Collision {
	if !c1.Valid() || !c2.Valid() {
		return NoCollision
	}
	return collide(p1.Add(c1.c.centerOffset), c1.c.halfExtents, p2.Add(c2.c.centerOffset), c2.c.halfExtents, mgl32.Vec3{})
}
