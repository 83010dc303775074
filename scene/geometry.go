package scene

import "github.com/go-gl/mathgl/mgl32"

// Geometry is random access to per-vertex positions, as produced by an asset loader.
type Geometry interface {
	Len() int
	Vertex(i int) mgl32.Vec3
}

// Vertices is the plain slice implementation of Geometry.
type Vertices []mgl32.Vec3

func (v Vertices) Len() int { return len(v) }

func (v Vertices) Vertex(i int) mgl32.Vec3 { return v[i] }

// Box returns the eight corners of an axis-aligned box centred on the origin.
func Box(halfExtents mgl32.Vec3) Vertices {
	x, y, z := halfExtents[0], halfExtents[1], halfExtents[2]
	return Vertices{
		{-x, -y, -z}, {x, -y, -z}, {x, y, -z}, {-x, y, -z},
		{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z},
	}
}

// UnitCube is a cube with half extent 0.5.
func UnitCube() Vertices {
	return Box(mgl32.Vec3{0.5, 0.5, 0.5})
}

// Quad returns a width x height rectangle in the XY plane centred on the origin.
func Quad(width, height float32) Vertices {
	w, h := width/2, height/2
	return Vertices{{-w, -h, 0}, {w, -h, 0}, {w, h, 0}, {-w, h, 0}}
}

// Concat joins several geometries into one vertex list.
func Concat(parts ...Geometry) Vertices {
	n := 0
	for _, p := range parts {
		n += p.Len()
	}
	out := make(Vertices, 0, n)
	for _, p := range parts {
		for i := 0; i < p.Len(); i++ {
			out = append(out, p.Vertex(i))
		}
	}
	return out
}

func collect(g Geometry) Vertices {
	if v, ok := g.(Vertices); ok {
		return v
	}
	if g == nil {
		return nil
	}
	return Concat(g)
}
