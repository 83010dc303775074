package scene

import (
	"fmt"
	"image/color"
	"io"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// Factory builds the variant-specific part of an entity from its descriptor. The
// fields shared by all variants are applied by Registry.Build afterwards.
type Factory func(s *Scene, d Descriptor) (Entity, error)

// Registry maps entity types to factories and mesh names to geometry.
type Registry struct {
	mu        sync.RWMutex
	factories map[EntityType]Factory
	meshes    map[string]Geometry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[EntityType]Factory),
		meshes:    make(map[string]Geometry),
	}
}

// DefaultRegistry returns a registry with factories for every built-in variant and
// the "cube" mesh.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterMesh("cube", UnitCube())

	r.Register(TypeCamera, func(s *Scene, d Descriptor) (Entity, error) {
		c := NewCamera(s.Transforms(), d.Name, s.Graphics())
		p := d.Params
		if p.Orthographic {
			c.SetOrthographic(orDefault(p.OrthoSize, c.orthoSize), orDefault(p.Aspect, c.aspect), orDefault(p.Near, c.near), orDefault(p.Far, c.far))
		} else {
			c.SetPerspective(orDefault(p.FOV, c.fov), orDefault(p.Aspect, c.aspect), orDefault(p.Near, c.near), orDefault(p.Far, c.far))
		}
		return c, nil
	})
	r.Register(TypeGameObject, func(s *Scene, d Descriptor) (Entity, error) {
		g := NewGameObject(s.Transforms(), d.Name, s.Graphics())
		if name := d.Params.Mesh; name != "" {
			mesh, ok := r.Mesh(name)
			if !ok {
				return nil, fmt.Errorf("scene: unknown mesh %q", name)
			}
			g.SetMesh(name, mesh)
		}
		return g, nil
	})
	r.Register(TypeSprite2D, func(s *Scene, d Descriptor) (Entity, error) {
		return NewSprite(s.Transforms(), d.Name, s.Graphics(), d.Params.Texture, d.Params.Width, d.Params.Height), nil
	})
	r.Register(TypeUI, func(s *Scene, d Descriptor) (Entity, error) {
		u := NewUIElement(s.Transforms(), d.Name, s.Graphics(), float32(d.Params.Width), float32(d.Params.Height))
		u.SetLabel(d.Params.Text)
		return u, nil
	})
	r.Register(TypeTile, func(s *Scene, d Descriptor) (Entity, error) {
		return NewTileGrid(s.Transforms(), d.Name, s.Graphics(), orDefault(d.Params.TileSize, 1), d.Params.Rows), nil
	})
	r.Register(TypeText, func(s *Scene, d Descriptor) (Entity, error) {
		return NewText(s.Transforms(), d.Name, s.Graphics(), d.Params.Text, orDefault(d.Params.Size, 16)), nil
	})
	r.Register(TypeTest, func(s *Scene, d Descriptor) (Entity, error) {
		return NewTestObject(s.Transforms(), d.Name, s.Graphics()), nil
	})
	return r
}

func orDefault(v, def float32) float32 {
	if v == 0 {
		return def
	}
	return v
}

// Register sets the factory for t, replacing any previous one.
func (r *Registry) Register(t EntityType, f Factory) {
	r.mu.Lock()
	r.factories[t] = f
	r.mu.Unlock()
}

// Has reports whether a factory exists for t.
func (r *Registry) Has(t EntityType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[t]
	return ok
}

// Types lists the entity types with a factory, in declaration order.
func (r *Registry) Types() []EntityType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]EntityType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

func (r *Registry) RegisterMesh(name string, g Geometry) {
	r.mu.Lock()
	r.meshes[name] = g
	r.mu.Unlock()
}

func (r *Registry) Mesh(name string) (Geometry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.meshes[name]
	return g, ok
}

// LoadMeshes registers the meshes of a YAML document mapping mesh names to vertex
// lists, for example:
//
//	ramp:
//	  - [0, 0, 0]
//	  - [1, 0, 0]
//	  - [1, 1, 0]
func (r *Registry) LoadMeshes(src io.Reader) (int, error) {
	var doc map[string][][3]float32
	if err := yaml.NewDecoder(src).Decode(&doc); err != nil {
		return 0, fmt.Errorf("decode meshes: %w", err)
	}
	for name, points := range doc {
		mesh := make(Vertices, len(points))
		for i, p := range points {
			mesh[i] = mgl32.Vec3(p)
		}
		r.RegisterMesh(name, mesh)
	}
	return len(doc), nil
}

// Build creates an entity from d: the type's factory runs first, then the shared
// fields (priority, transform, tint, colliders) are applied. Camera targets are not
// resolved here; see Scene.Load.
func (r *Registry) Build(s *Scene, d Descriptor) (Entity, error) {
	r.mu.RLock()
	f, ok := r.factories[d.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, d.Type)
	}

	e, err := f(s, d)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", d.Name, err)
	}

	o := e.object()
	o.priority.Store(d.Priority)
	o.SetPosition(d.Position)
	o.SetRotation(d.Rotation)
	if d.Scale != (mgl32.Vec3{}) {
		o.SetScale(d.Scale)
	}
	if len(d.Params.Tint) == 4 {
		o.SetTint(color.RGBA{d.Params.Tint[0], d.Params.Tint[1], d.Params.Tint[2], d.Params.Tint[3]})
	}
	for _, c := range d.Colliders {
		o.AddCollider(c.Vertices, c.Offset)
	}
	for _, c := range o.colliders.all() {
		c.recompute()
	}
	return e, nil
}
