// Package config loads the engine configuration shared by the scenery commands.
//
// Values come from three layers, later ones winning: built-in defaults, a YAML file,
// then SCENERY_* variables from .env files and the process environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/plus3/scenery/internal/log"
	"github.com/plus3/scenery/scene"
)

const envPrefix = "SCENERY_"

type Config struct {
	Log    LogConfig    `yaml:"log"`
	Loop   LoopConfig   `yaml:"loop"`
	Scene  SceneConfig  `yaml:"scene"`
	Stress StressConfig `yaml:"stress"`
	Viewer ViewerConfig `yaml:"viewer"`
}

type LogConfig struct {
	Development bool     `yaml:"development"`
	Level       string   `yaml:"level"`
	Output      []string `yaml:"output"`
}

type LoopConfig struct {
	// Interval is a time.Duration string such as "16ms".
	Interval string `yaml:"interval"`
	// Workers bounds the goroutines used for frame collision queries.
	Workers int `yaml:"workers"`
}

type SceneConfig struct {
	Name string `yaml:"name"`
	// Path is a scene document to load at startup, if any.
	Path string `yaml:"path"`
	// Meshes is a YAML mesh library registered before Path is loaded.
	Meshes     string     `yaml:"meshes"`
	Duplicates string     `yaml:"duplicates"`
	Light      [3]float32 `yaml:"light"`
}

type StressConfig struct {
	Entities int     `yaml:"entities"`
	Frames   int     `yaml:"frames"`
	Spread   float32 `yaml:"spread"`
	Seed     int64   `yaml:"seed"`
}

type ViewerConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Debug  bool   `yaml:"debug"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Loop: LoopConfig{
			Interval: "16ms",
			Workers:  4,
		},
		Scene: SceneConfig{
			Name:       "main",
			Duplicates: "overwrite",
			Light:      [3]float32{0, -1, 0},
		},
		Stress: StressConfig{
			Entities: 500,
			Frames:   300,
			Spread:   100,
			Seed:     1,
		},
		Viewer: ViewerConfig{
			Title:  "scenery",
			Width:  1280,
			Height: 720,
			Debug:  true,
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies environment
// overrides from envFiles and the process environment. An empty path skips the file.
// Env files that do not exist are ignored.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := Decode(f, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	dotenv, err := readEnvFiles(envFiles)
	if err != nil {
		return cfg, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Decode reads YAML from r into cfg, keeping fields the document leaves out.
func Decode(r io.Reader, cfg *Config) error {
	err := yaml.NewDecoder(r).Decode(cfg)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func readEnvFiles(files []string) (map[string]string, error) {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		existing = append(existing, f)
	}
	if len(existing) == 0 {
		return map[string]string{}, nil
	}
	env, err := godotenv.Read(existing...)
	if err != nil {
		return nil, fmt.Errorf("read env files: %w", err)
	}
	return env, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(envPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(envPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	boolean("LOG_DEVELOPMENT", &c.Log.Development)
	str("LOG_LEVEL", &c.Log.Level)
	if v, ok := lookup(envPrefix + "LOG_OUTPUT"); ok {
		c.Log.Output = strings.Split(v, ",")
	}
	str("LOOP_INTERVAL", &c.Loop.Interval)
	integer("LOOP_WORKERS", &c.Loop.Workers)
	str("SCENE_NAME", &c.Scene.Name)
	str("SCENE_PATH", &c.Scene.Path)
	str("SCENE_MESHES", &c.Scene.Meshes)
	str("SCENE_DUPLICATES", &c.Scene.Duplicates)
	integer("STRESS_ENTITIES", &c.Stress.Entities)
	integer("STRESS_FRAMES", &c.Stress.Frames)
	str("VIEWER_TITLE", &c.Viewer.Title)
	integer("VIEWER_WIDTH", &c.Viewer.Width)
	integer("VIEWER_HEIGHT", &c.Viewer.Height)
	boolean("VIEWER_DEBUG", &c.Viewer.Debug)

	return errors.Join(errs...)
}

// Validate checks the fields that are parsed later.
func (c Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Loop.IntervalDuration(); err != nil {
		errs = append(errs, err)
	}
	if c.Loop.Workers < 1 {
		errs = append(errs, fmt.Errorf("loop workers must be positive, got %d", c.Loop.Workers))
	}
	if _, err := c.Scene.Policy(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// IntervalDuration parses Interval.
func (c LoopConfig) IntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, fmt.Errorf("loop interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("loop interval must be positive, got %s", d)
	}
	return d, nil
}

// Policy parses Duplicates.
func (c SceneConfig) Policy() (scene.DuplicatePolicy, error) {
	return scene.ParseDuplicatePolicy(c.Duplicates)
}

func (c LogConfig) Options() log.Options {
	return log.Options{
		Development: c.Development,
		Level:       c.Level,
		Output:      c.Output,
	}
}
