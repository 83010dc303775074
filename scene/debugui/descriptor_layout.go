package debugui

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// fieldKind selects how the inspector draws a descriptor field.
type fieldKind uint8

const (
	kindText fieldKind = iota
	kindStringer
	kindFloat
	kindVector
	kindColor
	kindList
	kindStruct
)

var stringerType = reflect.TypeFor[fmt.Stringer]()

// descriptorField is one exported field of scene.Descriptor, scene.Params or a type
// nested in them, labelled with its persisted key.
type descriptorField struct {
	name  string
	key   string
	index int
	kind  fieldKind
}

// label is the persisted key, or the Go field name for untagged fields.
func (f descriptorField) label() string {
	if f.key == "" {
		return f.name
	}
	return f.key
}

// layoutCache memoizes descriptor field layouts by type. The inspector walks the
// same few types every frame.
type layoutCache struct {
	mu      sync.RWMutex
	layouts map[reflect.Type][]descriptorField
}

func newLayoutCache() *layoutCache {
	return &layoutCache{layouts: make(map[reflect.Type][]descriptorField)}
}

func (lc *layoutCache) fields(t reflect.Type) []descriptorField {
	lc.mu.RLock()
	cached, ok := lc.layouts[t]
	lc.mu.RUnlock()
	if ok {
		return cached
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	if cached, ok := lc.layouts[t]; ok {
		return cached
	}

	var fields []descriptorField
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			key, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
			fields = append(fields, descriptorField{
				name:  field.Name,
				key:   key,
				index: i,
				kind:  kindOf(field.Type),
			})
		}
	}

	lc.layouts[t] = fields
	return fields
}

func kindOf(t reflect.Type) fieldKind {
	switch {
	case t.Kind() == reflect.Array && isFloat(t.Elem().Kind()):
		return kindVector
	case t.Implements(stringerType):
		return kindStringer
	case t.Kind() == reflect.Struct:
		return kindStruct
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		return kindColor
	case t.Kind() == reflect.Slice, t.Kind() == reflect.Map:
		return kindList
	case isFloat(t.Kind()):
		return kindFloat
	default:
		return kindText
	}
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

var descriptorLayouts = newLayoutCache()
