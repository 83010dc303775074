// Command scene-viewer opens a window on a saved scene and runs it with the debug
// panels.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/plus3/scenery/internal/config"
	"github.com/plus3/scenery/internal/log"
	"github.com/plus3/scenery/scene"
	"github.com/plus3/scenery/scene/debugui"
	debugui_ebiten "github.com/plus3/scenery/scene/debugui/ebiten"
	"github.com/plus3/scenery/scene/gfx"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file.")
	envFile := flag.String("env", ".env", "Environment file with SCENERY_* overrides.")
	scenePath := flag.String("scene", "", "Scene document to open. Overrides the config.")
	savePath := flag.String("save", "", "Write the scene here when the window closes.")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *scenePath != "" {
		cfg.Scene.Path = *scenePath
	}

	logger, err := log.New(cfg.Log.Options())
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *savePath); err != nil {
		logger.Fatal("viewer failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger, savePath string) error {
	canvas := gfx.NewCanvas()
	s, camera, err := open(cfg, logger, canvas)
	if err != nil {
		return err
	}
	defer s.Close()

	var backend *debugui_ebiten.ImguiBackend
	if cfg.Viewer.Debug {
		backend = debugui_ebiten.NewImguiBackend(cfg.Viewer.Title, cfg.Viewer.Width, cfg.Viewer.Height)
		imgui.CurrentIO().SetIniFilename("")
	} else {
		ebiten.SetWindowSize(cfg.Viewer.Width, cfg.Viewer.Height)
		ebiten.SetWindowTitle(cfg.Viewer.Title)
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	loop := scene.NewLoop(s, camera)
	if cfg.Viewer.Debug {
		debugui.Install(loop)
	}

	logger.Info("opening viewer",
		zap.String("scene", s.Name()),
		zap.Int("entities", s.Len()),
		zap.Bool("debug", cfg.Viewer.Debug),
	)
	if err := ebiten.RunGame(debugui_ebiten.NewGame(loop, canvas, backend)); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run game: %w", err)
	}

	if savePath != "" {
		if err := s.Save(savePath); err != nil {
			return err
		}
		logger.Info("scene saved", zap.String("path", savePath))
	}
	return nil
}

// open loads the configured scene, or builds a small demo scene when no path is set,
// and returns it with the camera to view it through.
func open(cfg config.Config, logger *zap.Logger, canvas *gfx.Canvas) (*scene.Scene, *scene.Camera, error) {
	policy, err := cfg.Scene.Policy()
	if err != nil {
		return nil, nil, err
	}

	registry := scene.DefaultRegistry()
	if cfg.Scene.Meshes != "" {
		f, err := os.Open(cfg.Scene.Meshes)
		if err != nil {
			return nil, nil, fmt.Errorf("open meshes: %w", err)
		}
		n, err := registry.LoadMeshes(f)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		logger.Info("meshes loaded", zap.Int("count", n))
	}

	opts := []scene.Option{
		scene.WithLogger(logger),
		scene.WithGraphics(canvas),
		scene.WithRegistry(registry),
		scene.WithDuplicatePolicy(policy),
		scene.WithWorkers(cfg.Loop.Workers),
	}

	var s *scene.Scene
	if cfg.Scene.Path != "" {
		s, err = scene.LoadScene(cfg.Scene.Path, opts...)
		if err != nil {
			return nil, nil, err
		}
	} else {
		s = scene.New(cfg.Scene.Name, opts...)
		s.SetDirectionalLight(mgl32.Vec3(cfg.Scene.Light))
		if err := demo(s); err != nil {
			return nil, nil, err
		}
	}

	for _, e := range s.Ordered() {
		if c, ok := e.(*scene.Camera); ok && c.Target() != nil {
			return s, c, nil
		}
	}
	s.Close()
	return nil, nil, fmt.Errorf("scene %s has no camera with a target", s.Name())
}

func demo(s *scene.Scene) error {
	floor := scene.NewTileGrid(s.Transforms(), "floor", s.Graphics(), 1, []string{
		"##########",
		"#........#",
		"##########",
	})
	floor.SetPosition(mgl32.Vec3{-5, 0, 0})

	player := scene.NewGameObject(s.Transforms(), "player", s.Graphics())
	player.SetPosition(mgl32.Vec3{0, 0.5, 0})
	player.SetPriority(1)
	player.SetVelocity(mgl32.Vec3{0.5, 0, 0})
	player.AddBoxCollider(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{})

	camera := scene.NewCamera(s.Transforms(), "camera", s.Graphics())
	camera.SetPosition(mgl32.Vec3{0, 4, 12})
	camera.SetTarget(player)

	title := scene.NewText(s.Transforms(), "title", s.Graphics(), s.Name(), 16)
	title.SetPriority(10)

	var errs []error
	for _, e := range []scene.Entity{floor, player, camera, title} {
		errs = append(errs, s.Add(e))
	}
	return errors.Join(errs...)
}
