package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Document is the persisted form of a scene.
type Document struct {
	Name     string       `yaml:"name" json:"name"`
	Light    mgl32.Vec3   `yaml:"light" json:"light"`
	Entities []Descriptor `yaml:"entities" json:"entities"`
}

// Descriptor is the persisted form of one entity.
type Descriptor struct {
	Name      string               `yaml:"name" json:"name"`
	Type      EntityType           `yaml:"type" json:"type"`
	Priority  uint32               `yaml:"priority,omitempty" json:"priority,omitempty"`
	Position  mgl32.Vec3           `yaml:"position" json:"position"`
	Rotation  mgl32.Vec3           `yaml:"rotation" json:"rotation"`
	Scale     mgl32.Vec3           `yaml:"scale" json:"scale"`
	Colliders []ColliderDescriptor `yaml:"colliders,omitempty" json:"colliders,omitempty"`
	Params    Params               `yaml:"params,omitempty" json:"params"`
}

type ColliderDescriptor struct {
	Vertices Vertices   `yaml:"vertices" json:"vertices"`
	Offset   mgl32.Vec3 `yaml:"offset" json:"offset"`
}

// Params holds the variant-specific fields. Each variant reads only its own.
type Params struct {
	// Camera
	Target       string  `yaml:"target,omitempty" json:"target,omitempty"`
	FOV          float32 `yaml:"fov,omitempty" json:"fov,omitempty"`
	Aspect       float32 `yaml:"aspect,omitempty" json:"aspect,omitempty"`
	Near         float32 `yaml:"near,omitempty" json:"near,omitempty"`
	Far          float32 `yaml:"far,omitempty" json:"far,omitempty"`
	Orthographic bool    `yaml:"orthographic,omitempty" json:"orthographic,omitempty"`
	OrthoSize    float32 `yaml:"ortho_size,omitempty" json:"ortho_size,omitempty"`

	// Sprite and UI
	Width   int    `yaml:"width,omitempty" json:"width,omitempty"`
	Height  int    `yaml:"height,omitempty" json:"height,omitempty"`
	Texture string `yaml:"texture,omitempty" json:"texture,omitempty"`

	// Text and UI
	Text string  `yaml:"text,omitempty" json:"text,omitempty"`
	Size float32 `yaml:"size,omitempty" json:"size,omitempty"`

	// Tile
	TileSize float32  `yaml:"tile_size,omitempty" json:"tile_size,omitempty"`
	Rows     []string `yaml:"rows,omitempty" json:"rows,omitempty"`

	// GameObject
	Mesh string `yaml:"mesh,omitempty" json:"mesh,omitempty"`

	Tint []uint8 `yaml:"tint,omitempty,flow" json:"tint,omitempty"`
}

// Format selects the encoding of a persisted scene.
type Format uint8

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatFor picks the format from a file extension: ".json" is JSON, anything else YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Encode writes doc to w.
func Encode(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
}

// Decode reads a document from r.
func Decode(r io.Reader, format Format) (Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
	default:
		err = yaml.NewDecoder(r).Decode(&doc)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	return doc, err
}

// Describe captures the scene as a document, entities in render order.
func (s *Scene) Describe() Document {
	doc := Document{
		Name:     s.name,
		Light:    s.DirectionalLight(),
		Entities: []Descriptor{},
	}
	for _, e := range s.Ordered() {
		doc.Entities = append(doc.Entities, e.Describe())
	}
	return doc
}

// Save writes the scene to path in the format chosen by FormatFor.
func (s *Scene) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save scene %s: %w", s.name, err)
	}
	if err := Encode(f, s.Describe(), FormatFor(path)); err != nil {
		f.Close()
		return fmt.Errorf("save scene %s: %w", s.name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save scene %s: %w", s.name, err)
	}
	s.logger.Debug("saved scene", zap.String("path", path))
	return nil
}

// Load reads path and adds its entities to the scene under the scene's duplicate
// policy. The stored light replaces the current one; the stored name is ignored.
func (s *Scene) Load(path string) error {
	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	if err := s.Apply(doc); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	s.logger.Debug("loaded scene", zap.String("path", path), zap.Int("entities", len(doc.Entities)))
	return nil
}

// LoadScene creates a new scene named after the document at path.
func LoadScene(path string, opts ...Option) (*Scene, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	s := New(doc.Name, opts...)
	if err := s.Apply(doc); err != nil {
		s.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return s, nil
}

func readDocument(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("load scene: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f, FormatFor(path))
	if err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// Apply builds every entity of doc and adds them to the scene. Building is all or
// nothing: if any descriptor fails, nothing is added. Camera targets are resolved
// against the document first and then the scene.
func (s *Scene) Apply(doc Document) error {
	built := make([]Entity, 0, len(doc.Entities))
	byName := make(map[string]Entity, len(doc.Entities))
	discard := func() {
		for _, e := range built {
			e.object().dropUnowned()
		}
	}

	for _, d := range doc.Entities {
		e, err := s.registry.Build(s, d)
		if err != nil {
			discard()
			return err
		}
		built = append(built, e)
		byName[d.Name] = e
	}

	for i, d := range doc.Entities {
		if d.Type != TypeCamera || d.Params.Target == "" {
			continue
		}
		target, ok := byName[d.Params.Target]
		if !ok {
			target = s.Get(d.Params.Target)
		}
		if target == nil {
			discard()
			return fmt.Errorf("camera %s target %s: %w", d.Name, d.Params.Target, ErrNotFound)
		}
		if target == built[i] {
			discard()
			return fmt.Errorf("camera %s: %w", d.Name, ErrSelfTarget)
		}
		if c, ok := built[i].(*Camera); ok {
			c.SetTarget(target)
		}
	}

	s.SetDirectionalLight(doc.Light)

	var errs []error
	for _, e := range built {
		if err := s.Add(e); err != nil {
			e.object().dropUnowned()
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
