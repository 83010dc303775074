package gfx_test

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenery/scene"
	"github.com/plus3/scenery/scene/gfx"
	"github.com/stretchr/testify/assert"
)

func TestProject(t *testing.T) {
	ident := mgl32.Ident4()

	tests := []struct {
		name string
		v    mgl32.Vec3
		x, y float32
	}{
		{"origin is the centre", mgl32.Vec3{0, 0, 0}, 400, 300},
		{"top right", mgl32.Vec3{1, 1, 0}, 800, 0},
		{"bottom left", mgl32.Vec3{-1, -1, 0}, 0, 600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := gfx.Project(ident, tt.v, 800, 600)
			assert.True(t, ok)
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
		})
	}

	t.Run("behind the camera", func(t *testing.T) {
		behind := mgl32.Ident4()
		behind[15] = -1
		_, _, ok := gfx.Project(behind, mgl32.Vec3{}, 800, 600)
		assert.False(t, ok)
	})
}

func TestScreenBounds(t *testing.T) {
	mvp := mgl32.Scale3D(0.5, 0.5, 0.5)
	x0, y0, x1, y1, ok := gfx.ScreenBounds(mvp, scene.UnitCube(), 100, 100)
	assert.True(t, ok)
	assert.InDelta(t, 37.5, x0, 1e-4)
	assert.InDelta(t, 37.5, y0, 1e-4)
	assert.InDelta(t, 62.5, x1, 1e-4)
	assert.InDelta(t, 62.5, y1, 1e-4)

	_, _, _, _, ok = gfx.ScreenBounds(mvp, scene.Vertices{}, 100, 100)
	assert.False(t, ok)
}

func TestShade(t *testing.T) {
	white := color.RGBA{200, 200, 200, 255}
	assert.Equal(t, white, gfx.Shade(white, mgl32.Vec3{0, -1, 0}))
	assert.Equal(t, color.RGBA{70, 70, 70, 255}, gfx.Shade(white, mgl32.Vec3{1, 0, 0}))
	assert.Equal(t, color.RGBA{70, 70, 70, 255}, gfx.Shade(white, mgl32.Vec3{}))
}

func TestSubmitWithoutTarget(t *testing.T) {
	c := gfx.NewCanvas()
	_, err := c.Submit(scene.DrawCall{Geometry: scene.UnitCube()})
	assert.ErrorIs(t, err, gfx.ErrNoTarget)
	assert.Equal(t, gfx.Stats{}, c.Stats())
}
