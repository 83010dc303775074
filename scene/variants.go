package scene

import (
	"strings"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// GameObject is a 3D mesh. Movement is staged with Move and SetVelocity and applied
// by the next Update.
type GameObject struct {
	Object

	mesh     Geometry
	meshName string
	pending  mgl32.Vec3
	velocity mgl32.Vec3
}

// NewGameObject creates a game object with the unit cube mesh.
func NewGameObject(arena *TransformArena, name string, gfx GraphicsOps) *GameObject {
	g := &GameObject{mesh: UnitCube(), meshName: "cube"}
	g.init(arena, name, TypeGameObject, gfx)
	return g
}

// SetMesh replaces the rendered mesh. The name is what gets persisted.
func (g *GameObject) SetMesh(name string, mesh Geometry) {
	g.meshName = name
	g.mesh = mesh
}

func (g *GameObject) Mesh() Geometry { return g.mesh }

func (g *GameObject) MeshName() string { return g.meshName }

// Move stages a translation for the next Update.
func (g *GameObject) Move(delta mgl32.Vec3) {
	g.pending = g.pending.Add(delta)
}

// Pending returns the staged translation, including one frame of velocity at dt.
func (g *GameObject) Pending(dt float64) mgl32.Vec3 {
	return g.pending.Add(g.velocity.Mul(float32(dt)))
}

func (g *GameObject) SetVelocity(v mgl32.Vec3) { g.velocity = v }

func (g *GameObject) Velocity() mgl32.Vec3 { return g.velocity }

func (g *GameObject) Update(frame *UpdateFrame) {
	step := g.Pending(frame.DeltaTime)
	g.pending = mgl32.Vec3{}
	if step == (mgl32.Vec3{}) {
		return
	}
	if t := g.transform.Get(); t != nil {
		t.Move(step)
	}
}

func (g *GameObject) Render(frame *RenderFrame) error {
	return g.submit(frame, DrawCall{Geometry: g.mesh})
}

func (g *GameObject) Describe() Descriptor {
	d := g.Object.Describe()
	d.Params.Mesh = g.meshName
	return d
}

// Sprite is a textured quad sized from its texture.
type Sprite struct {
	Object

	texture       string
	width, height int
	quad          Vertices
}

func NewSprite(arena *TransformArena, name string, gfx GraphicsOps, texture string, width, height int) *Sprite {
	s := &Sprite{
		texture: texture,
		width:   width,
		height:  height,
		quad:    Quad(float32(width), float32(height)),
	}
	s.init(arena, name, TypeSprite2D, gfx)
	return s
}

func (s *Sprite) Texture() string { return s.texture }

func (s *Sprite) Size() (width, height int) { return s.width, s.height }

// AddTextureCollider adds a collider covering the sprite's texture.
func (s *Sprite) AddTextureCollider(offset mgl32.Vec3) *Collider {
	return s.AddCollider(Quad(float32(s.width), float32(s.height)), offset)
}

func (s *Sprite) Update(frame *UpdateFrame) {}

func (s *Sprite) Render(frame *RenderFrame) error {
	return s.submit(frame, DrawCall{Geometry: s.quad, Texture: s.texture})
}

func (s *Sprite) Describe() Descriptor {
	d := s.Object.Describe()
	d.Params.Texture = s.texture
	d.Params.Width = s.width
	d.Params.Height = s.height
	return d
}

// UIElement is a screen-space rectangle. Scene.Update leaves its view-projection at
// the identity, so its position is in normalized device coordinates.
type UIElement struct {
	Object

	width, height float32
	label         string
}

func NewUIElement(arena *TransformArena, name string, gfx GraphicsOps, width, height float32) *UIElement {
	u := &UIElement{width: width, height: height}
	u.init(arena, name, TypeUI, gfx)
	return u
}

func (u *UIElement) SetLabel(label string) { u.label = label }

func (u *UIElement) Label() string { return u.label }

func (u *UIElement) Update(frame *UpdateFrame) {}

func (u *UIElement) Render(frame *RenderFrame) error {
	return u.submit(frame, DrawCall{
		Geometry:       Quad(u.width, u.height),
		Text:           u.label,
		ViewProjection: mgl32.Ident4(),
	})
}

func (u *UIElement) Describe() Descriptor {
	d := u.Object.Describe()
	d.Params.Width = int(u.width)
	d.Params.Height = int(u.height)
	d.Params.Text = u.label
	return d
}

// TileGrid is a grid of square tiles laid out from rows of text. A '#' marks a solid
// tile; every solid tile gets its own collider, so the grid is one composite body.
// Row 0 is the top row.
type TileGrid struct {
	Object

	tileSize float32
	rows     []string
	mesh     Vertices
}

func NewTileGrid(arena *TransformArena, name string, gfx GraphicsOps, tileSize float32, rows []string) *TileGrid {
	g := &TileGrid{tileSize: tileSize, rows: rows}
	g.init(arena, name, TypeTile, gfx)

	half := mgl32.Vec3{tileSize / 2, tileSize / 2, tileSize / 2}
	var parts []Geometry
	for _, cell := range g.Solid() {
		offset := g.cellCenter(cell[0], cell[1])
		g.AddBoxCollider(half, offset)

		box := Box(half)
		for i := range box {
			box[i] = box[i].Add(offset)
		}
		parts = append(parts, box)
	}
	g.mesh = Concat(parts...)
	return g
}

// Solid returns the (row, column) of each solid tile in reading order.
func (g *TileGrid) Solid() [][2]int {
	var cells [][2]int
	for r, row := range g.rows {
		for c, ch := range row {
			if ch == '#' {
				cells = append(cells, [2]int{r, c})
			}
		}
	}
	return cells
}

func (g *TileGrid) cellCenter(row, col int) mgl32.Vec3 {
	return mgl32.Vec3{
		(float32(col) + 0.5) * g.tileSize,
		-(float32(row) + 0.5) * g.tileSize,
		0,
	}
}

func (g *TileGrid) TileSize() float32 { return g.tileSize }

func (g *TileGrid) String() string { return strings.Join(g.rows, "\n") }

func (g *TileGrid) Update(frame *UpdateFrame) {}

func (g *TileGrid) Render(frame *RenderFrame) error {
	if len(g.mesh) == 0 {
		return nil
	}
	return g.submit(frame, DrawCall{Geometry: g.mesh})
}

// Describe persists the rows rather than the derived colliders.
func (g *TileGrid) Describe() Descriptor {
	d := g.Object.Describe()
	d.Colliders = nil
	d.Params.TileSize = g.tileSize
	d.Params.Rows = append([]string(nil), g.rows...)
	return d
}

// Text is a string drawn at the entity's position.
type Text struct {
	Object

	content string
	size    float32
}

func NewText(arena *TransformArena, name string, gfx GraphicsOps, content string, size float32) *Text {
	t := &Text{content: content, size: size}
	t.init(arena, name, TypeText, gfx)
	return t
}

func (t *Text) Content() string { return t.content }

// SetContent belongs to the update phase, like every entity write.
func (t *Text) SetContent(s string) { t.content = s }

func (t *Text) Size() float32 { return t.size }

func (t *Text) Update(frame *UpdateFrame) {}

func (t *Text) Render(frame *RenderFrame) error {
	return t.submit(frame, DrawCall{Text: t.content})
}

func (t *Text) Describe() Descriptor {
	d := t.Object.Describe()
	d.Params.Text = t.content
	d.Params.Size = t.size
	return d
}

// TestObject counts its updates and renders. When FailRender is set, Render returns it.
type TestObject struct {
	Object

	FailRender error

	updates atomic.Int64
	renders atomic.Int64
}

func NewTestObject(arena *TransformArena, name string, gfx GraphicsOps) *TestObject {
	t := &TestObject{}
	t.init(arena, name, TypeTest, gfx)
	return t
}

func (t *TestObject) Updates() int64 { return t.updates.Load() }

func (t *TestObject) Renders() int64 { return t.renders.Load() }

func (t *TestObject) Update(frame *UpdateFrame) {
	t.updates.Add(1)
}

func (t *TestObject) Render(frame *RenderFrame) error {
	t.renders.Add(1)
	if t.FailRender != nil {
		return t.FailRender
	}
	return t.submit(frame, DrawCall{})
}
