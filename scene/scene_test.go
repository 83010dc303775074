package scene_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenery/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(entities []scene.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Name()
	}
	return out
}

func testObject(s *scene.Scene, name string, priority uint32) *scene.TestObject {
	obj := scene.NewTestObject(s.Transforms(), name, nil)
	obj.SetPriority(priority)
	return obj
}

func TestSceneAdd(t *testing.T) {
	t.Run("get and lookup", func(t *testing.T) {
		s := scene.New("test")
		cam := scene.NewCamera(s.Transforms(), "cam", nil)
		require.NoError(t, s.Add(cam))

		assert.Same(t, cam, s.Get("cam"))
		assert.Nil(t, s.Get("missing"))

		got, ok := scene.Lookup[*scene.Camera](s, "cam")
		assert.True(t, ok)
		assert.Same(t, cam, got)

		_, ok = scene.Lookup[*scene.GameObject](s, "cam")
		assert.False(t, ok)
		_, ok = scene.Lookup[*scene.Camera](s, "missing")
		assert.False(t, ok)
	})

	t.Run("last write wins", func(t *testing.T) {
		s := scene.New("test")
		first := testObject(s, "a", 1)
		second := testObject(s, "a", 2)

		require.NoError(t, s.Add(first))
		require.NoError(t, s.Add(second))

		assert.Same(t, second, s.Get("a"))
		assert.Equal(t, 1, s.Len())
		assert.Equal(t, []string{"a"}, names(s.Ordered()))
		assert.Empty(t, s.Bucket(1))
		assert.Equal(t, []uint32{2}, s.Priorities())

		assert.True(t, first.Destroyed())
		assert.False(t, first.Transform().Valid())
		assert.False(t, second.Destroyed())
	})

	t.Run("replacement in the same bucket leaves no stale entry", func(t *testing.T) {
		s := scene.New("test")
		require.NoError(t, s.Add(testObject(s, "a", 0)))
		require.NoError(t, s.Add(testObject(s, "b", 0)))
		replacement := testObject(s, "a", 0)
		require.NoError(t, s.Add(replacement))

		bucket := s.Bucket(0)
		assert.Equal(t, []string{"b", "a"}, names(bucket))
		assert.Same(t, replacement, bucket[1])
	})

	t.Run("reject", func(t *testing.T) {
		s := scene.New("test", scene.WithDuplicatePolicy(scene.DuplicateReject))
		first := testObject(s, "a", 0)
		require.NoError(t, s.Add(first))

		err := s.Add(testObject(s, "a", 0))
		assert.ErrorIs(t, err, scene.ErrDuplicateName)
		assert.Same(t, first, s.Get("a"))
		assert.Equal(t, 1, s.Len())
	})

	t.Run("rename", func(t *testing.T) {
		s := scene.New("test", scene.WithDuplicatePolicy(scene.DuplicateRename))
		require.NoError(t, s.Add(testObject(s, "a", 0)))
		second := testObject(s, "a", 0)
		third := testObject(s, "a", 0)
		require.NoError(t, s.Add(second))
		require.NoError(t, s.Add(third))

		assert.Equal(t, "a.1", second.Name())
		assert.Equal(t, "a.2", third.Name())
		assert.Equal(t, []string{"a", "a.1", "a.2"}, s.Names())
	})

	t.Run("re-adding the same entity is a no-op", func(t *testing.T) {
		s := scene.New("test", scene.WithDuplicatePolicy(scene.DuplicateReject))
		obj := testObject(s, "a", 0)
		require.NoError(t, s.Add(obj))
		require.NoError(t, s.Add(obj))
		assert.Len(t, s.Ordered(), 1)
	})

	t.Run("entity of another scene", func(t *testing.T) {
		s1 := scene.New("one")
		s2 := scene.New("two")
		obj := testObject(s1, "a", 0)
		require.NoError(t, s1.Add(obj))
		assert.Error(t, s2.Add(obj))
	})

	t.Run("nil entity panics", func(t *testing.T) {
		s := scene.New("test")
		assert.Panics(t, func() { _ = s.Add(nil) })
	})
}

func TestSceneRemove(t *testing.T) {
	s := scene.New("test")
	obj := testObject(s, "a", 3)
	require.NoError(t, s.Add(obj))
	require.NoError(t, s.Add(testObject(s, "b", 3)))

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Nil(t, s.Get("a"))
	assert.True(t, obj.Destroyed())
	assert.Equal(t, []string{"b"}, names(s.Bucket(3)))
	assert.Equal(t, 1, s.Transforms().Len())
}

func TestSceneRetain(t *testing.T) {
	s := scene.New("test")
	obj := testObject(s, "a", 0)
	require.NoError(t, s.Add(obj))

	obj.Retain()
	s.Remove("a")
	assert.False(t, obj.Destroyed())
	assert.True(t, obj.Transform().Valid())

	assert.True(t, obj.Release())
	assert.True(t, obj.Destroyed())
	assert.False(t, obj.Transform().Valid())
}

func TestScenePriorityOrder(t *testing.T) {
	s := scene.New("test")
	require.NoError(t, s.Add(testObject(s, "c", 3)))
	require.NoError(t, s.Add(testObject(s, "a1", 1)))
	require.NoError(t, s.Add(testObject(s, "b", 2)))
	require.NoError(t, s.Add(testObject(s, "a2", 1)))

	assert.Equal(t, []string{"a1", "a2", "b", "c"}, names(s.Ordered()))
	assert.Equal(t, []uint32{1, 2, 3}, s.Priorities())

	t.Run("priority change", func(t *testing.T) {
		s.Get("c").(*scene.TestObject).SetPriority(0)
		assert.Equal(t, []string{"c", "a1", "a2", "b"}, names(s.Ordered()))
		assert.Equal(t, []uint32{0, 1, 2}, s.Priorities())
	})

	t.Run("rebuild keeps insertion order within a bucket", func(t *testing.T) {
		s.ResetRenderPriorityMap()
		assert.Equal(t, []string{"a1", "a2"}, names(s.Bucket(1)))
	})
}

func TestSceneLight(t *testing.T) {
	s := scene.New("test")
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, s.DirectionalLight())
	s.SetDirectionalLight(mgl32.Vec3{1, 0, 0})
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, s.DirectionalLight())
}

func TestSceneUpdate(t *testing.T) {
	s := scene.New("test")
	cam := scene.NewCamera(s.Transforms(), "cam", nil)
	cam.SetPosition(mgl32.Vec3{0, 0, 10})
	obj := scene.NewGameObject(s.Transforms(), "obj", nil)
	ui := scene.NewUIElement(s.Transforms(), "hud", nil, 0.5, 0.1)
	counter := testObject(s, "counter", 0)
	cam.SetTarget(obj)

	for _, e := range []scene.Entity{cam, obj, ui, counter} {
		require.NoError(t, s.Add(e))
	}

	frame := scene.BeginFrame(s, cam, 1.0/60)
	s.Update(frame, cam)

	assert.Equal(t, int64(1), counter.Updates())
	assert.Equal(t, cam.ViewProjection(), obj.Transform().Get().ViewProjection)
	assert.NotEqual(t, mgl32.Ident4(), cam.ViewProjection())
	assert.Equal(t, mgl32.Ident4(), ui.Transform().Get().ViewProjection)

	frame.Barrier()
	assert.Panics(t, func() { s.Update(frame, cam) })
	assert.Panics(t, func() { s.Update(nil, cam) })
}

func TestGameObjectStagedMove(t *testing.T) {
	s := scene.New("test")
	obj := scene.NewGameObject(s.Transforms(), "obj", nil)
	obj.AddBoxCollider(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{})
	require.NoError(t, s.Add(obj))

	obj.Move(mgl32.Vec3{2, 0, 0})
	assert.Equal(t, mgl32.Vec3{}, obj.Position())

	frame := scene.BeginFrame(s, nil, 0.5)
	obj.SetVelocity(mgl32.Vec3{0, 4, 0})
	s.Update(frame, nil)
	frame.Barrier()

	assert.Equal(t, mgl32.Vec3{2, 2, 0}, obj.Position())
	assert.Equal(t, mgl32.Vec4{2, 2, 0, 1}, obj.Colliders().Collider(0).Center())
}

func TestSceneRender(t *testing.T) {
	rec := &scene.Recorder{}
	s := scene.New("test")

	obj := scene.NewGameObject(s.Transforms(), "obj", rec)
	obj.SetPosition(mgl32.Vec3{1, 2, 3})
	obj.SetPriority(1)
	broken := scene.NewTestObject(s.Transforms(), "broken", rec)
	boom := errors.New("boom")
	broken.FailRender = boom
	silent := testObject(s, "silent", 2)

	for _, e := range []scene.Entity{obj, broken, silent} {
		require.NoError(t, s.Add(e))
	}

	frame := scene.BeginFrame(s, nil, 0)
	s.Update(frame, nil)
	rf := frame.Barrier()

	err := s.Render(rf)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "render broken: boom")

	assert.Equal(t, int64(1), broken.Renders())
	assert.Equal(t, int64(1), silent.Renders())

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "obj", calls[0].Entity)
	assert.Equal(t, scene.TypeGameObject, calls[0].Kind)
	assert.Equal(t, 8, calls[0].Geometry.Len())
	assert.Equal(t, mgl32.Translate3D(1, 2, 3), calls[0].Model)
	assert.Equal(t, s.DirectionalLight(), calls[0].Light)
}

func TestCameraRenderWithoutTarget(t *testing.T) {
	s := scene.New("test")
	cam := scene.NewCamera(s.Transforms(), "cam", nil)
	require.NoError(t, s.Add(cam))

	rf := scene.BeginFrame(s, cam, 0).Barrier()
	assert.Panics(t, func() { _ = cam.Render(rf) })

	cam.SetTarget(testObject(s, "target", 0))
	assert.NotPanics(t, func() { _ = cam.Render(rf) })
}

func TestCameraTargetOwnership(t *testing.T) {
	s := scene.New("test")
	cam := scene.NewCamera(s.Transforms(), "cam", nil)
	target := testObject(s, "target", 0)
	require.NoError(t, s.Add(cam))
	require.NoError(t, s.Add(target))
	cam.SetTarget(target)

	s.Remove("target")
	assert.False(t, target.Destroyed())

	s.Remove("cam")
	assert.True(t, cam.Destroyed())
	assert.True(t, target.Destroyed())
}

func TestCameraCannotTargetItself(t *testing.T) {
	s := scene.New("test")
	cam := scene.NewCamera(s.Transforms(), "cam", nil)
	require.NoError(t, s.Add(cam))

	assert.Panics(t, func() { cam.SetTarget(cam) })
	assert.Nil(t, cam.Target())

	s.Remove("cam")
	assert.True(t, cam.Destroyed())
}

func TestCameraProjection(t *testing.T) {
	s := scene.New("test")
	cam := scene.NewCamera(s.Transforms(), "cam", nil)

	cam.SetOrthographic(5, 2, 0.1, 100)
	cam.Update(scene.BeginFrame(s, cam, 0))
	assert.True(t, cam.Orthographic())
	assert.Equal(t, mgl32.Ortho(-10, 10, -5, 5, 0.1, 100), cam.Projection())

	cam.SetPerspective(mgl32.DegToRad(60), 1, 1, 50)
	cam.Update(scene.BeginFrame(s, cam, 0))
	assert.False(t, cam.Orthographic())
	assert.Equal(t, mgl32.Perspective(mgl32.DegToRad(60), 1, 1, 50), cam.Projection())
	assert.Equal(t, cam.Projection().Mul4(cam.View()), cam.ViewProjection())
}

func TestSceneSweep(t *testing.T) {
	s := scene.New("test")
	half := mgl32.Vec3{2, 2, 2}

	mover := scene.NewGameObject(s.Transforms(), "mover", nil)
	mover.AddBoxCollider(half, mgl32.Vec3{})
	wall := scene.NewGameObject(s.Transforms(), "wall", nil)
	wall.SetPosition(mgl32.Vec3{10, 0, 0})
	wall.AddBoxCollider(half, mgl32.Vec3{})
	require.NoError(t, s.Add(mover))
	require.NoError(t, s.Add(wall))
	require.NoError(t, s.Add(testObject(s, "ghost", 0)))

	contact, ok := s.Sweep(mover, mgl32.Vec3{9, 0, 0})
	assert.True(t, ok)
	assert.Equal(t, scene.Contact{A: "mover", B: "wall", Collision: scene.Collision{Axis: scene.AxisX, Direction: 1}}, contact)

	_, ok = s.Sweep(mover, mgl32.Vec3{7, 0, 0})
	assert.False(t, ok)

	_, ok = s.Sweep(s.Get("ghost"), mgl32.Vec3{9, 0, 0})
	assert.False(t, ok)
}

func TestTileGrid(t *testing.T) {
	s := scene.New("test")
	grid := scene.NewTileGrid(s.Transforms(), "level", nil, 2, []string{
		"#.",
		".#",
	})
	require.NoError(t, s.Add(grid))

	assert.Equal(t, [][2]int{{0, 0}, {1, 1}}, grid.Solid())
	set := grid.Colliders()
	require.Equal(t, 2, set.Len())
	assert.Equal(t, mgl32.Vec4{1, -1, 0, 1}, set.Collider(0).Center())
	assert.Equal(t, mgl32.Vec4{3, -3, 0, 1}, set.Collider(1).Center())

	player := scene.NewGameObject(s.Transforms(), "player", nil)
	player.SetPosition(mgl32.Vec3{3, -6, 0})
	player.AddBoxCollider(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{})
	require.NoError(t, s.Add(player))

	contact, ok := s.Sweep(player, mgl32.Vec3{0, 2.5, 0})
	assert.True(t, ok)
	assert.Equal(t, "level", contact.B)
	assert.Equal(t, 2, contact.Collision.Code())
}

func TestSceneClose(t *testing.T) {
	s := scene.New("test")
	a := testObject(s, "a", 0)
	b := testObject(s, "b", 1)
	require.NoError(t, s.Add(a))
	require.NoError(t, s.Add(b))

	s.Close()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Ordered())
	assert.True(t, a.Destroyed())
	assert.True(t, b.Destroyed())
	assert.Equal(t, 0, s.Transforms().Len())
}

func TestEntityTypeText(t *testing.T) {
	for _, typ := range []scene.EntityType{
		scene.TypeUndefined, scene.TypeCamera, scene.TypeGameObject, scene.TypeSprite2D,
		scene.TypeUI, scene.TypeTile, scene.TypeText, scene.TypeTest,
	} {
		t.Run(typ.String(), func(t *testing.T) {
			parsed, err := scene.ParseEntityType(typ.String())
			require.NoError(t, err)
			assert.Equal(t, typ, parsed)
		})
	}

	_, err := scene.ParseEntityType("spaceship")
	assert.ErrorIs(t, err, scene.ErrUnknownType)
}

func TestDuplicatePolicyText(t *testing.T) {
	for _, p := range []scene.DuplicatePolicy{scene.DuplicateOverwrite, scene.DuplicateReject, scene.DuplicateRename} {
		parsed, err := scene.ParseDuplicatePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
	_, err := scene.ParseDuplicatePolicy("merge")
	assert.Error(t, err)
}
