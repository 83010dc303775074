// Package ebiten runs a scene loop inside an Ebiten game, with an optional Dear ImGui
// overlay for the debug panels.
package ebiten

import (
	"image/color"

	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/plus3/scenery/scene"
	"github.com/plus3/scenery/scene/gfx"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// NewImguiBackend creates the backend and its window.
func NewImguiBackend(title string, width, height int) *ImguiBackend {
	b := ebitenbackend.NewEbitenBackend()
	b.CreateWindow(title, width, height)
	return &ImguiBackend{EbitenBackend: b}
}

// Game implements ebiten.Game. Each tick runs one loop frame; the scene is drawn onto
// an offscreen image through Canvas and copied to the screen in Draw, with the ImGui
// overlay on top.
type Game struct {
	Loop       *scene.Loop
	Canvas     *gfx.Canvas
	Backend    *ImguiBackend
	Background color.Color

	offscreen *ebiten.Image
	frame     *scene.RenderFrame
}

// NewGame creates a game for loop. The scene must have been created with canvas as its
// graphics handle. backend may be nil to run without the ImGui overlay.
func NewGame(loop *scene.Loop, canvas *gfx.Canvas, backend *ImguiBackend) *Game {
	return &Game{
		Loop:       loop,
		Canvas:     canvas,
		Backend:    backend,
		Background: color.RGBA{24, 24, 32, 255},
	}
}

// LastFrame returns the render frame of the most recent tick.
func (g *Game) LastFrame() *scene.RenderFrame {
	return g.frame
}

func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if g.offscreen != nil {
		g.offscreen.Fill(g.Background)
		g.Canvas.SetTarget(g.offscreen)
	}

	if g.Backend != nil {
		g.Backend.BeginFrame()
	}

	rf, err := g.Loop.Once(1.0 / float64(ebiten.TPS()))
	if err != nil {
		g.Loop.Scene().Logger().Debug("frame rendered with errors", zap.Uint64("frame", rf.Number), zap.Error(err))
	}
	g.frame = rf

	if g.Backend != nil {
		g.Backend.EndFrame()
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.offscreen != nil {
		screen.DrawImage(g.offscreen, nil)
	}
	if g.Backend != nil {
		g.Backend.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.Backend != nil {
		g.Backend.Layout(outsideWidth, outsideHeight)
	}
	if g.offscreen == nil || g.offscreen.Bounds().Dx() != outsideWidth || g.offscreen.Bounds().Dy() != outsideHeight {
		g.offscreen = ebiten.NewImage(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}
