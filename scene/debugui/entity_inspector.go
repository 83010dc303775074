package debugui

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/scenery/scene"
)

type prioritySetter interface {
	SetPriority(uint32)
}

type positionSetter interface {
	SetPosition(mgl32.Vec3)
}

type labelSetter interface {
	Label() string
	SetLabel(string)
}

type contentSetter interface {
	Content() string
	SetContent(string)
}

func NewEntityInspector() *EntityInspector {
	return &EntityInspector{}
}

// Render draws the entity named selected. Priority, position and text fields are
// editable; everything else is shown from the entity's descriptor.
func (ei *EntityInspector) Render(frame *scene.UpdateFrame, selected string) {
	if !imgui.BeginV("Entity Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ei.selected = selected

	if ei.selected == "" {
		imgui.Text("No entity selected")
		imgui.End()
		return
	}

	e := frame.Scene.Get(ei.selected)
	if e == nil {
		imgui.Text(fmt.Sprintf("Entity %q not found", ei.selected))
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Name: %s", e.Name()))
	imgui.Text(fmt.Sprintf("Type: %s", e.Type()))
	imgui.Separator()

	ei.renderEditable(e)

	d := e.Describe()
	if imgui.TreeNodeStr("Descriptor") {
		ei.renderStruct(reflect.ValueOf(d))
		imgui.TreePop()
	}

	imgui.End()
}

func (ei *EntityInspector) renderEditable(e scene.Entity) {
	if ps, ok := e.(prioritySetter); ok {
		v := int32(e.Priority())
		imgui.Text("Priority:")
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt("##priority", &v) && v >= 0 {
			ps.SetPriority(uint32(v))
		}
	}

	if ps, ok := e.(positionSetter); ok {
		if t := e.Transform().Get(); t != nil {
			pos := t.Position
			changed := false
			for i, axis := range []string{"x", "y", "z"} {
				imgui.Text(fmt.Sprintf("%s:", axis))
				imgui.SameLine()
				imgui.SetNextItemWidth(150)
				if imgui.InputFloat(fmt.Sprintf("##position.%s", axis), &pos[i]) {
					changed = true
				}
			}
			if changed {
				ps.SetPosition(pos)
			}
		}
	}

	if ls, ok := e.(labelSetter); ok {
		v := ls.Label()
		imgui.Text("Label:")
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint("##label", "", &v, imgui.InputTextFlagsNone, nil) {
			ls.SetLabel(v)
		}
	}

	if cs, ok := e.(contentSetter); ok {
		v := cs.Content()
		imgui.Text("Content:")
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint("##content", "", &v, imgui.InputTextFlagsNone, nil) {
			cs.SetContent(v)
		}
	}
}

func (ei *EntityInspector) renderStruct(val reflect.Value) {
	for _, field := range descriptorLayouts.fields(val.Type()) {
		fieldVal := val.Field(field.index)
		if fieldVal.IsZero() {
			continue
		}
		if field.kind != kindStruct {
			imgui.Text(formatField(field, fieldVal))
			continue
		}
		if imgui.TreeNodeStr(field.label()) {
			ei.renderStruct(fieldVal)
			imgui.TreePop()
		}
	}
}

// formatField renders one non-struct descriptor field as a single line.
func formatField(field descriptorField, val reflect.Value) string {
	name := field.label()
	switch field.kind {
	case kindStringer:
		return fmt.Sprintf("%s: %s", name, val.Interface().(fmt.Stringer))
	case kindVector:
		parts := make([]string, val.Len())
		for i := range parts {
			parts[i] = fmt.Sprintf("%.3g", val.Index(i).Float())
		}
		return fmt.Sprintf("%s: [%s]", name, strings.Join(parts, " "))
	case kindColor:
		return fmt.Sprintf("%s: #%x", name, val.Bytes())
	case kindList:
		return fmt.Sprintf("%s: [%d items]", name, val.Len())
	case kindFloat:
		return fmt.Sprintf("%s: %.3f", name, val.Float())
	default:
		return fmt.Sprintf("%s: %v", name, val.Interface())
	}
}
