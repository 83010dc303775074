package scene

import (
	"image/color"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// DrawCall is one submission from an entity's Render.
type DrawCall struct {
	Entity   string
	Kind     EntityType
	Priority uint32

	Model          mgl32.Mat4
	ViewProjection mgl32.Mat4
	Light          mgl32.Vec3

	Geometry Geometry
	Texture  string
	Text     string
	Tint     color.RGBA
}

// Submission describes an accepted draw call.
type Submission struct {
	Primitives int
}

// GraphicsOps is the graphics backend entities render through. Failures are returned,
// never thrown across the render boundary.
type GraphicsOps interface {
	Submit(call DrawCall) (Submission, error)
}

// Recorder is a GraphicsOps that keeps every call in memory. It is safe for
// concurrent use. When Fail is set, its result is returned for each call and failed
// calls are not recorded.
type Recorder struct {
	Fail func(call DrawCall) error

	mu    sync.Mutex
	calls []DrawCall
}

var _ GraphicsOps = (*Recorder)(nil)

func (r *Recorder) Submit(call DrawCall) (Submission, error) {
	if r.Fail != nil {
		if err := r.Fail(call); err != nil {
			return Submission{}, err
		}
	}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()

	n := 0
	if call.Geometry != nil {
		n = call.Geometry.Len()
	}
	return Submission{Primitives: n}, nil
}

// Calls returns a copy of the recorded calls in submission order.
func (r *Recorder) Calls() []DrawCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DrawCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset drops recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = r.calls[:0]
	r.mu.Unlock()
}
