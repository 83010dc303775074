package scene_test

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenery/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, s *scene.Scene, file string) *scene.Scene {
	t.Helper()
	path := filepath.Join(t.TempDir(), file)
	require.NoError(t, s.Save(path))

	loaded, err := scene.LoadScene(path)
	require.NoError(t, err)
	return loaded
}

func TestRoundTrip(t *testing.T) {
	for _, file := range []string{"scene.yaml", "scene.json"} {
		t.Run(file, func(t *testing.T) {
			t.Run("empty scene", func(t *testing.T) {
				s := scene.New("empty")
				s.SetDirectionalLight(mgl32.Vec3{0.5, -1, 0})

				loaded := roundTrip(t, s, file)
				assert.Equal(t, "empty", loaded.Name())
				assert.Equal(t, 0, loaded.Len())
				assert.Equal(t, s.DirectionalLight(), loaded.DirectionalLight())
				assert.Equal(t, s.Describe(), loaded.Describe())
			})

			t.Run("one camera", func(t *testing.T) {
				s := scene.New("cams")
				cam := scene.NewCamera(s.Transforms(), "main", nil)
				cam.SetPosition(mgl32.Vec3{0, 2, 8})
				cam.SetOrthographic(6, 1.5, 0.5, 200)
				require.NoError(t, s.Add(cam))

				loaded := roundTrip(t, s, file)
				assert.Equal(t, s.Describe(), loaded.Describe())

				got, ok := scene.Lookup[*scene.Camera](loaded, "main")
				require.True(t, ok)
				assert.True(t, got.Orthographic())
				assert.Equal(t, mgl32.Vec3{0, 2, 8}, got.Position())
			})

			t.Run("entities at different priorities", func(t *testing.T) {
				s := scene.New("level")

				hero := scene.NewGameObject(s.Transforms(), "hero", nil)
				hero.SetPosition(mgl32.Vec3{1, 0, -2})
				hero.SetRotation(mgl32.Vec3{0, 1.5, 0})
				hero.SetScale(mgl32.Vec3{2, 2, 2})
				hero.SetPriority(1)
				hero.SetTint(color.RGBA{255, 0, 0, 255})
				hero.AddBoxCollider(mgl32.Vec3{0.5, 1, 0.5}, mgl32.Vec3{0, 1, 0})

				backdrop := scene.NewSprite(s.Transforms(), "backdrop", nil, "sky.png", 640, 480)
				backdrop.AddTextureCollider(mgl32.Vec3{})

				label := scene.NewText(s.Transforms(), "label", nil, "hello", 12)
				label.SetPriority(5)

				hud := scene.NewUIElement(s.Transforms(), "hud", nil, 200, 40)
				hud.SetLabel("score")
				hud.SetPriority(9)

				grid := scene.NewTileGrid(s.Transforms(), "tiles", nil, 1, []string{"##", ".#"})
				grid.SetPriority(1)

				cam := scene.NewCamera(s.Transforms(), "cam", nil)
				cam.SetTarget(hero)

				for _, e := range []scene.Entity{hero, backdrop, label, hud, grid, cam, testObject(s, "marker", 3)} {
					require.NoError(t, s.Add(e))
				}

				loaded := roundTrip(t, s, file)
				assert.Equal(t, s.Describe(), loaded.Describe())
				assert.Equal(t, names(s.Ordered()), names(loaded.Ordered()))
				assert.Equal(t, []uint32{0, 1, 3, 5, 9}, loaded.Priorities())

				loadedCam, ok := scene.Lookup[*scene.Camera](loaded, "cam")
				require.True(t, ok)
				require.NotNil(t, loadedCam.Target())
				assert.Equal(t, "hero", loadedCam.Target().Name())

				loadedGrid, ok := scene.Lookup[*scene.TileGrid](loaded, "tiles")
				require.True(t, ok)
				assert.Equal(t, 3, loadedGrid.Colliders().Len())

				loadedHero, ok := scene.Lookup[*scene.GameObject](loaded, "hero")
				require.True(t, ok)
				assert.Equal(t, color.RGBA{255, 0, 0, 255}, loadedHero.Tint())
				assert.Equal(t,
					hero.Colliders().Collider(0).MinPoints(),
					loadedHero.Colliders().Collider(0).MinPoints())
			})
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := scene.LoadScene(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unknown type", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: bad\nentities:\n  - name: x\n    type: spaceship\n"), 0o644))
		_, err := scene.LoadScene(path)
		assert.Error(t, err)
	})

	t.Run("type without a factory", func(t *testing.T) {
		s := scene.New("test", scene.WithRegistry(scene.NewRegistry()))
		err := s.Apply(scene.Document{Entities: []scene.Descriptor{{Name: "x", Type: scene.TypeGameObject}}})
		assert.ErrorIs(t, err, scene.ErrUnknownType)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("unknown camera target builds nothing", func(t *testing.T) {
		s := scene.New("test")
		err := s.Apply(scene.Document{Entities: []scene.Descriptor{
			{Name: "obj", Type: scene.TypeGameObject},
			{Name: "cam", Type: scene.TypeCamera, Params: scene.Params{Target: "ghost"}},
		}})
		assert.ErrorIs(t, err, scene.ErrNotFound)
		assert.Equal(t, 0, s.Len())
		assert.Equal(t, 0, s.Transforms().Len())
	})

	t.Run("camera targeting itself builds nothing", func(t *testing.T) {
		s := scene.New("test")
		err := s.Apply(scene.Document{Entities: []scene.Descriptor{
			{Name: "cam", Type: scene.TypeCamera, Params: scene.Params{Target: "cam"}},
		}})
		assert.ErrorIs(t, err, scene.ErrSelfTarget)
		assert.Equal(t, 0, s.Len())
		assert.Equal(t, 0, s.Transforms().Len())
	})

	t.Run("load under reject keeps the existing entity", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scene.yaml")
		src := scene.New("src")
		require.NoError(t, src.Add(testObject(src, "a", 0)))
		require.NoError(t, src.Save(path))

		dst := scene.New("dst", scene.WithDuplicatePolicy(scene.DuplicateReject))
		existing := testObject(dst, "a", 7)
		require.NoError(t, dst.Add(existing))

		err := dst.Load(path)
		assert.ErrorIs(t, err, scene.ErrDuplicateName)
		assert.Same(t, existing, dst.Get("a"))
		assert.Equal(t, 1, dst.Transforms().Len())
	})
}

func TestEncodeFormats(t *testing.T) {
	assert.Equal(t, scene.FormatJSON, scene.FormatFor("a/b.JSON"))
	assert.Equal(t, scene.FormatYAML, scene.FormatFor("a/b.yaml"))
	assert.Equal(t, scene.FormatYAML, scene.FormatFor("a/b.scene"))

	s := scene.New("fmt")
	require.NoError(t, s.Add(scene.NewText(s.Transforms(), "t", nil, "hi", 10)))

	var buf bytes.Buffer
	require.NoError(t, scene.Encode(&buf, s.Describe(), scene.FormatYAML))
	assert.Contains(t, buf.String(), "type: text")

	doc, err := scene.Decode(strings.NewReader(buf.String()), scene.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, s.Describe(), doc)

	buf.Reset()
	require.NoError(t, scene.Encode(&buf, s.Describe(), scene.FormatJSON))
	assert.Contains(t, buf.String(), `"type": "text"`)
}

func TestRegistryMeshes(t *testing.T) {
	r := scene.DefaultRegistry()
	n, err := r.LoadMeshes(strings.NewReader("ramp:\n  - [0, 0, 0]\n  - [1, 0, 0]\n  - [1, 1, 0]\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ramp, ok := r.Mesh("ramp")
	require.True(t, ok)
	assert.Equal(t, 3, ramp.Len())
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, ramp.Vertex(2))

	s := scene.New("test", scene.WithRegistry(r))
	e, err := r.Build(s, scene.Descriptor{Name: "r", Type: scene.TypeGameObject, Params: scene.Params{Mesh: "ramp"}})
	require.NoError(t, err)
	assert.Equal(t, "ramp", e.(*scene.GameObject).MeshName())

	_, err = r.Build(s, scene.Descriptor{Name: "x", Type: scene.TypeGameObject, Params: scene.Params{Mesh: "missing"}})
	assert.Error(t, err)
}

func TestRegistryTypes(t *testing.T) {
	assert.Empty(t, scene.NewRegistry().Types())
	assert.Equal(t, []scene.EntityType{
		scene.TypeCamera,
		scene.TypeGameObject,
		scene.TypeSprite2D,
		scene.TypeUI,
		scene.TypeTile,
		scene.TypeText,
		scene.TypeTest,
	}, scene.DefaultRegistry().Types())
}
