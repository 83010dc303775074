package scene

import "github.com/go-gl/mathgl/mgl32"

// Collidable is implemented by entities that can own a collider set.
type Collidable interface {
	Colliders() *ColliderSet
}

// CollidersOf returns e's collider set when e has acquired one with at least one collider.
func CollidersOf(e Entity) (*ColliderSet, bool) {
	c, ok := e.(Collidable)
	if !ok {
		return nil, false
	}
	set := c.Colliders()
	return set, set.Len() > 0
}

// ColliderSet is a composite body: an ordered group of colliders, for example the
// sub-hitboxes of one character. Insertion order is the order queries walk.
//
// A nil or empty set is valid and never collides.
type ColliderSet struct {
	colliders []*Collider
}

// NewColliderSet creates a set from colliders in the given order.
func NewColliderSet(colliders ...*Collider) *ColliderSet {
	return &ColliderSet{colliders: colliders}
}

// Add appends c. Like Refresh this changes collider state and belongs to the update
// phase, or to construction before the owner is published.
func (s *ColliderSet) Add(c *Collider) {
	s.colliders = append(s.colliders, c)
}

func (s *ColliderSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.colliders)
}

// Collider returns the view of the i-th collider.
func (s *ColliderSet) Collider(i int) ColliderView {
	return s.colliders[i].View()
}

// Colliders returns views of the current colliders without refreshing them. Callers
// must have refreshed the set in the update phase of the current frame.
func (s *ColliderSet) Colliders() []ColliderView {
	if s == nil {
		return nil
	}
	views := make([]ColliderView, len(s.colliders))
	for i, c := range s.colliders {
		views[i] = c.View()
	}
	return views
}

// Refresh recomputes every collider in the set. It must be called from an open update
// frame and panics otherwise.
func (s *ColliderSet) Refresh(frame *UpdateFrame) {
	frame.mustBeOpen("ColliderSet.Refresh")
	if s == nil {
		return
	}
	for _, c := range s.colliders {
		c.recompute()
	}
}

// Collision tests every collider of s moved by moving against every collider of other,
// in insertion order, and returns the first hit.
func (s *ColliderSet) Collision(other *ColliderSet, moving mgl32.Vec3) Collision {
	if s.Len() == 0 || other.Len() == 0 {
		return NoCollision
	}
	for _, a := range s.colliders {
		for _, b := range other.colliders {
			if hit := a.View().Collision(b.View(), moving); hit.Hit() {
				return hit
			}
		}
	}
	return NoCollision
}

// Bounds returns the union of the valid colliders' bounds.
func (s *ColliderSet) Bounds() (lo, hi mgl32.Vec3, ok bool) {
	if s == nil {
		return lo, hi, false
	}
	for _, c := range s.colliders {
		v := c.View()
		if !v.Valid() {
			continue
		}
		if !ok {
			lo, hi, ok = v.MinPoints(), v.MaxPoints(), true
			continue
		}
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], v.MinPoints()[i])
			hi[i] = max(hi[i], v.MaxPoints()[i])
		}
	}
	return lo, hi, ok
}

func (s *ColliderSet) all() []*Collider {
	if s == nil {
		return nil
	}
	return s.colliders
}

func (s *ColliderSet) clear() {
	if s == nil {
		return
	}
	s.colliders = nil
}

// ProxyCollisionAt is the broad-phase check between two composite bodies placed at p1
// and p2: only the first collider of each set is compared. Empty sets never collide.
func ProxyCollisionAt(p1 mgl32.Vec3, s1 *ColliderSet, p2 mgl32.Vec3, s2 *ColliderSet) Collision {
	if s1.Len() == 0 || s2.Len() == 0 {
		return NoCollision
	}
	return CollisionAt(p1, s1.Collider(0), p2, s2.Collider(0))
}
