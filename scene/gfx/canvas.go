// Package gfx draws scene draw calls onto an ebiten image.
//
// Geometry is projected with the call's model and view-projection matrices and drawn
// as its screen-space bounding rectangle, shaded by the scene light. It is meant for
// previews and debugging, not for final rendering.
package gfx

import (
	"errors"
	"image/color"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/plus3/scenery/scene"
)

// ErrNoTarget is returned by Submit before SetTarget has been called.
var ErrNoTarget = errors.New("gfx: canvas has no target image")

// Stats counts what the canvas drew since the last SetTarget.
type Stats struct {
	Calls      int
	Primitives int
	Culled     int
}

// Canvas is a scene.GraphicsOps backed by an ebiten image. It is safe for concurrent
// Submit calls; ebiten itself requires them to happen during Game.Draw.
type Canvas struct {
	// Outline draws a border around each shape.
	Outline bool

	mu            sync.Mutex
	target        *ebiten.Image
	width, height float32
	stats         Stats
}

var _ scene.GraphicsOps = (*Canvas)(nil)

func NewCanvas() *Canvas {
	return &Canvas{Outline: true}
}

// SetTarget points the canvas at the image for the current frame and resets Stats.
func (c *Canvas) SetTarget(img *ebiten.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = img
	c.stats = Stats{}
	if img != nil {
		b := img.Bounds()
		c.width, c.height = float32(b.Dx()), float32(b.Dy())
	}
}

func (c *Canvas) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Canvas) Submit(call scene.DrawCall) (scene.Submission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.target == nil {
		return scene.Submission{}, ErrNoTarget
	}
	c.stats.Calls++

	mvp := call.ViewProjection.Mul4(call.Model)
	n := 0
	if call.Geometry != nil {
		n = call.Geometry.Len()
	}

	if n > 0 {
		x0, y0, x1, y1, ok := ScreenBounds(mvp, call.Geometry, c.width, c.height)
		if !ok {
			c.stats.Culled++
			return scene.Submission{}, nil
		}
		fill := Shade(call.Tint, call.Light)
		vector.DrawFilledRect(c.target, x0, y0, x1-x0, y1-y0, fill, false)
		if c.Outline {
			vector.StrokeRect(c.target, x0, y0, x1-x0, y1-y0, 1, call.Tint, false)
		}
		c.stats.Primitives += n
	}

	if call.Text != "" {
		x, y, ok := Project(mvp, mgl32.Vec3{}, c.width, c.height)
		if ok {
			ebitenutil.DebugPrintAt(c.target, call.Text, int(x), int(y))
		}
	}

	return scene.Submission{Primitives: n}, nil
}

// Project maps v through mvp to pixel coordinates on a width x height target. It
// reports false for points behind the camera.
func Project(mvp mgl32.Mat4, v mgl32.Vec3, width, height float32) (x, y float32, ok bool) {
	clip := mvp.Mul4x1(v.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	x = (ndc.X() + 1) / 2 * width
	y = (1 - ndc.Y()) / 2 * height
	return x, y, true
}

// ScreenBounds projects every vertex of g and returns the enclosing rectangle. It
// reports false when any vertex is behind the camera.
func ScreenBounds(mvp mgl32.Mat4, g scene.Geometry, width, height float32) (x0, y0, x1, y1 float32, ok bool) {
	for i := 0; i < g.Len(); i++ {
		x, y, visible := Project(mvp, g.Vertex(i), width, height)
		if !visible {
			return 0, 0, 0, 0, false
		}
		if i == 0 {
			x0, y0, x1, y1 = x, y, x, y
			continue
		}
		x0, y0 = min(x0, x), min(y0, y)
		x1, y1 = max(x1, x), max(y1, y)
	}
	return x0, y0, x1, y1, g.Len() > 0
}

// Shade darkens tint by how far the light is from pointing straight down.
func Shade(tint color.RGBA, light mgl32.Vec3) color.RGBA {
	factor := float32(0.35)
	if light.Len() > 0 {
		factor += 0.65 * max(0, -light.Normalize().Y())
	}
	factor = min(factor, 1)
	scale := func(v uint8) uint8 { return uint8(float32(v)*factor + 0.5) }
	return color.RGBA{scale(tint.R), scale(tint.G), scale(tint.B), tint.A}
}
