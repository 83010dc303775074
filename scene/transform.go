package scene

import "github.com/go-gl/mathgl/mgl32"

// Transform holds an entity's position, rotation and scale together with the
// matrix materialised from each of them. The matrices are kept separately so that
// changing one component only rebuilds its own matrix.
type Transform struct {
	Position mgl32.Vec3
	// Rotation is in Euler angles (radians). The matrix is Rx*Ry*Rz, so Z is applied first and X last.
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3

	Translate mgl32.Mat4
	Rotate    mgl32.Mat4
	Scaling   mgl32.Mat4

	// ViewProjection is written by the camera-relative step of Scene.Update.
	ViewProjection mgl32.Mat4
}

// NewTransform returns an identity transform with unit scale.
func NewTransform() Transform {
	return Transform{
		Scale:          mgl32.Vec3{1, 1, 1},
		Translate:      mgl32.Ident4(),
		Rotate:         mgl32.Ident4(),
		Scaling:        mgl32.Ident4(),
		ViewProjection: mgl32.Ident4(),
	}
}

func (t *Transform) SetPosition(p mgl32.Vec3) {
	t.Position = p
	t.Translate = mgl32.Translate3D(p[0], p[1], p[2])
}

func (t *Transform) SetRotation(r mgl32.Vec3) {
	t.Rotation = r
	t.Rotate = mgl32.HomogRotate3DX(r[0]).Mul4(mgl32.HomogRotate3DY(r[1])).Mul4(mgl32.HomogRotate3DZ(r[2]))
}

func (t *Transform) SetScale(s mgl32.Vec3) {
	t.Scale = s
	t.Scaling = mgl32.Scale3D(s[0], s[1], s[2])
}

// Move translates the position by delta.
func (t *Transform) Move(delta mgl32.Vec3) {
	t.SetPosition(t.Position.Add(delta))
}

// Model returns translate * rotate * scale.
func (t *Transform) Model() mgl32.Mat4 {
	return t.Translate.Mul4(t.Rotate).Mul4(t.Scaling)
}
