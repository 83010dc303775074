package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera produces the view-projection matrix that Scene.Update writes into every
// transform. It looks at its target, or straight ahead along its rotated -Z axis
// when it has none.
type Camera struct {
	Object

	target       Entity
	fov          float32
	aspect       float32
	near, far    float32
	orthographic bool
	orthoSize    float32
	up           mgl32.Vec3

	view       mgl32.Mat4
	projection mgl32.Mat4
}

// NewCamera creates a perspective camera with a 45 degree field of view.
func NewCamera(arena *TransformArena, name string, gfx GraphicsOps) *Camera {
	c := &Camera{
		fov:       mgl32.DegToRad(45),
		aspect:    16.0 / 9.0,
		near:      0.1,
		far:       1000,
		orthoSize: 10,
		up:        mgl32.Vec3{0, 1, 0},
	}
	c.init(arena, name, TypeCamera, gfx)
	c.onDestroy = func() { c.SetTarget(nil) }
	c.recompute()
	return c
}

// SetTarget makes the camera look at e and render to it. The camera retains e; the
// previous target is released. A camera cannot target itself and panics if asked to.
func (c *Camera) SetTarget(e Entity) {
	if e != nil {
		if e.object() == &c.Object {
			panic("scene: camera " + c.name + " cannot target itself")
		}
		e.object().Retain()
	}
	old := c.target
	c.target = e
	if old != nil {
		old.object().Release()
	}
}

func (c *Camera) Target() Entity { return c.target }

// SetPerspective switches to a perspective projection. fov is in radians.
func (c *Camera) SetPerspective(fov, aspect, near, far float32) {
	c.orthographic = false
	c.fov, c.aspect, c.near, c.far = fov, aspect, near, far
}

// SetOrthographic switches to an orthographic projection whose vertical half size is size.
func (c *Camera) SetOrthographic(size, aspect, near, far float32) {
	c.orthographic = true
	c.orthoSize, c.aspect, c.near, c.far = size, aspect, near, far
}

func (c *Camera) Orthographic() bool { return c.orthographic }

func (c *Camera) View() mgl32.Mat4 { return c.view }

func (c *Camera) Projection() mgl32.Mat4 { return c.projection }

// ViewProjection returns projection * view as of the last Update.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.projection.Mul4(c.view)
}

// Update recomputes the view and projection matrices.
func (c *Camera) Update(frame *UpdateFrame) {
	c.recompute()
}

func (c *Camera) recompute() {
	t := c.transform.Get()
	if t == nil {
		return
	}

	eye := t.Position
	center := eye.Add(t.Rotate.Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3())
	if c.target != nil {
		if p := c.target.object().Position(); !p.ApproxEqual(eye) {
			center = p
		}
	}
	c.view = mgl32.LookAtV(eye, center, c.up)

	if c.orthographic {
		h := c.orthoSize
		w := h * c.aspect
		c.projection = mgl32.Ortho(-w, w, -h, h, c.near, c.far)
	} else {
		c.projection = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
	}
}

// Render checks the camera's render target. A camera without a target is a
// programming error and panics.
func (c *Camera) Render(frame *RenderFrame) error {
	if c.target == nil {
		panic("scene: camera " + c.name + " has no render target")
	}
	return nil
}

func (c *Camera) Describe() Descriptor {
	d := c.Object.Describe()
	if c.target != nil {
		d.Params.Target = c.target.Name()
	}
	d.Params.FOV = c.fov
	d.Params.Aspect = c.aspect
	d.Params.Near = c.near
	d.Params.Far = c.far
	d.Params.Orthographic = c.orthographic
	d.Params.OrthoSize = c.orthoSize
	return d
}
