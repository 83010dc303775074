package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Axis names a principal axis.
type Axis uint8

const (
	AxisNone Axis = iota
	AxisX
	AxisY
	AxisZ
)

var axes = [...]Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "none"
	}
}

func (a Axis) component() int {
	return int(a) - 1
}

// Collision is the result of a collision query: the axis that blocked the move and
// the direction of approach along it. The zero value means no collision.
type Collision struct {
	Axis Axis
	// Direction is +1 or -1 when Axis is set, 0 otherwise.
	Direction int8
}

// NoCollision is the zero Collision.
var NoCollision = Collision{}

// Hit reports whether the query found a collision.
func (c Collision) Hit() bool {
	return c.Axis != AxisNone
}

// Code returns the integer encoding of c: 0 for no collision, otherwise ±1 for X,
// ±2 for Y and ±3 for Z with the sign giving the direction of approach.
func (c Collision) Code() int {
	if !c.Hit() {
		return 0
	}
	return int(c.Axis) * int(c.Direction)
}

func (c Collision) String() string {
	if !c.Hit() {
		return "none"
	}
	sign := "+"
	if c.Direction < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%s", sign, c.Axis)
}

// Less and Greater are the orderings used with Extreme to select a minimum or a maximum.
func Less(a, b float32) bool { return a < b }

func Greater(a, b float32) bool { return a > b }

// Extreme projects every vertex of g onto axis and returns the value preferred by
// better, which must report whether its first argument beats its second. It returns
// false for empty geometry or AxisNone.
func Extreme(g Geometry, axis Axis, better func(a, b float32) bool) (float32, bool) {
	if g == nil || g.Len() == 0 || axis == AxisNone {
		return 0, false
	}

	i := axis.component()
	v := g.Vertex(0)[i]
	for k := 1; k < g.Len(); k++ {
		if c := g.Vertex(k)[i]; better(c, v) {
			v = c
		}
	}
	return v, true
}

// overlapsAxis reports whether two intervals whose centres are dist apart overlap,
// where reach is the contact extent along that axis. Flat intervals only overlap when
// they are coplanar.
func overlapsAxis(dist, reach float32) bool {
	if reach == 0 {
		return dist == 0
	}
	return mgl32.Abs(dist) < reach
}

func contactReach(ha, hb float32) float32 {
	return max(ha, hb)
}

func sign(v float32) int8 {
	if v < 0 {
		return -1
	}
	return 1
}

// collide runs the per-axis swept test for a body at ca with half extents ha moving
// by moving, against a static body at cb with half extents hb.
//
// The contact extent on an axis is the larger of the two half extents, so an axis
// overlaps once either centre lies strictly inside the other body's interval. For
// equal boxes this is their half extent; a smaller box contained in a larger one
// always overlaps. The move collides when every axis overlaps after it is applied. The reported axis is the one the move
// closed last; when the bodies already interpenetrate it is the axis of the largest
// movement component, or of least penetration for a static query.
func collide(ca, ha, cb, hb, moving mgl32.Vec3) Collision {
	best := AxisNone
	var bestEntry float32 = -1

	for _, axis := range axes {
		i := axis.component()
		reach := contactReach(ha[i], hb[i])
		before := cb[i] - ca[i]
		after := before - moving[i]

		if !overlapsAxis(after, reach) {
			return NoCollision
		}
		if overlapsAxis(before, reach) || moving[i] == 0 {
			continue
		}

		entry := (mgl32.Abs(before) - reach) / mgl32.Abs(moving[i])
		if entry > bestEntry {
			best, bestEntry = axis, entry
		}
	}

	if best != AxisNone {
		return Collision{Axis: best, Direction: sign(moving[best.component()])}
	}

	if moving.Len() != 0 {
		for _, axis := range axes {
			i := axis.component()
			if best == AxisNone || mgl32.Abs(moving[i]) > mgl32.Abs(moving[best.component()]) {
				best = axis
			}
		}
		return Collision{Axis: best, Direction: sign(moving[best.component()])}
	}

	var least float32
	for _, axis := range axes {
		i := axis.component()
		penetration := contactReach(ha[i], hb[i]) - mgl32.Abs(cb[i]-ca[i])
		if best == AxisNone || penetration < least {
			best, least = axis, penetration
		}
	}
	return Collision{Axis: best, Direction: sign(cb[best.component()] - ca[best.component()])}
}
