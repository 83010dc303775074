package scene_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenery/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SpawnSystem struct {
	spawned int
}

func (s *SpawnSystem) Update(frame *scene.UpdateFrame) {
	s.spawned++
	obj := scene.NewTestObject(frame.Scene.Transforms(), "spawned", nil)
	frame.Commands.Add(obj)
}

type OverlaySystem struct {
	updates atomic.Int64
	renders atomic.Int64
	fail    error
}

func (s *OverlaySystem) Update(frame *scene.UpdateFrame) {
	s.updates.Add(1)
}

func (s *OverlaySystem) Render(frame *scene.RenderFrame) error {
	s.renders.Add(1)
	return s.fail
}

func TestLoop(t *testing.T) {
	t.Run("systems run before the scene", func(t *testing.T) {
		s := scene.New("test", scene.WithDuplicatePolicy(scene.DuplicateRename))
		loop := scene.NewLoop(s, nil)
		spawn := &SpawnSystem{}
		loop.Register(spawn)

		rf, err := loop.Once(1.0 / 60)
		require.NoError(t, err)
		assert.Equal(t, []string{"spawned"}, names(rf.Entities()))

		_, err = loop.Once(1.0 / 60)
		require.NoError(t, err)
		assert.Equal(t, []string{"spawned", "spawned.1"}, s.Names())
		assert.Equal(t, 2, spawn.spawned)
	})

	t.Run("render systems", func(t *testing.T) {
		s := scene.New("test")
		loop := scene.NewLoop(s, nil)
		overlay := &OverlaySystem{fail: errors.New("overlay")}
		loop.Register(overlay)

		_, err := loop.Once(0)
		assert.ErrorContains(t, err, "overlay")
		assert.Equal(t, int64(1), overlay.updates.Load())
		assert.Equal(t, int64(1), overlay.renders.Load())
	})

	t.Run("camera view projection reaches entities", func(t *testing.T) {
		s := scene.New("test")
		cam := scene.NewCamera(s.Transforms(), "cam", nil)
		cam.SetPosition(mgl32.Vec3{0, 5, 10})
		obj := scene.NewGameObject(s.Transforms(), "obj", nil)
		cam.SetTarget(obj)
		require.NoError(t, s.Add(cam))
		require.NoError(t, s.Add(obj))

		loop := scene.NewLoop(s, cam)
		rf, err := loop.Once(0)
		require.NoError(t, err)
		assert.Same(t, cam, rf.Camera)
		assert.Equal(t, cam.ViewProjection(), obj.Transform().Get().ViewProjection)
	})

	t.Run("stats", func(t *testing.T) {
		s := scene.New("test")
		loop := scene.NewLoop(s, nil)
		loop.Register(&OverlaySystem{})
		loop.Register(&SpawnSystem{})

		for i := 0; i < 3; i++ {
			_, _ = loop.Once(0)
		}

		stats := loop.Stats()
		assert.Equal(t, uint64(3), stats.Frames)
		assert.Equal(t, 2, stats.SystemCount)
		assert.Equal(t, int64(6), stats.TotalExecutions)
		require.Len(t, stats.Systems, 2)
		assert.Equal(t, "OverlaySystem", stats.Systems[0].Name)
		assert.Equal(t, "SpawnSystem", stats.Systems[1].Name)
		assert.Equal(t, int64(3), stats.Systems[0].ExecutionCount)

		require.Len(t, stats.Phases, 3)
		assert.Equal(t, "update", stats.Phases[0].Name)
		assert.Equal(t, "barrier", stats.Phases[1].Name)
		assert.Equal(t, "render", stats.Phases[2].Name)
		assert.Equal(t, int64(3), stats.Phases[2].ExecutionCount)
		assert.LessOrEqual(t, stats.Phases[0].MinDuration, stats.Phases[0].MaxDuration)
	})

	t.Run("run until cancelled", func(t *testing.T) {
		s := scene.New("test")
		loop := scene.NewLoop(s, nil)
		overlay := &OverlaySystem{}
		loop.Register(overlay)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		loop.Run(ctx, 5*time.Millisecond)

		assert.Greater(t, overlay.updates.Load(), int64(0))
	})
}
