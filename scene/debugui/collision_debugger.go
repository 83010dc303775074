package debugui

import (
	"context"
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/scenery/scene"
)

func NewCollisionDebugger() *CollisionDebugger {
	return &CollisionDebugger{
		selectedTypes: make(map[scene.EntityType]bool),
		types:         make(map[string]scene.EntityType),
	}
}

// Update does nothing; contacts are gathered in the render phase.
func (cd *CollisionDebugger) Update(*scene.UpdateFrame) {}

// Render queries the frame for contacts when the debugger is enabled. Contacts are
// kept when either body has one of the selected types, or all of them when no type
// is selected.
func (cd *CollisionDebugger) Render(frame *scene.RenderFrame) error {
	if !cd.Enabled {
		cd.contacts = nil
		return nil
	}

	clear(cd.types)
	for e := range frame.All() {
		cd.types[e.Name()] = e.Type()
	}

	contacts, err := frame.Collisions(context.Background())
	cd.err = err
	if err != nil {
		return fmt.Errorf("collision debugger: %w", err)
	}

	cd.contacts = cd.contacts[:0]
	for _, c := range contacts {
		if cd.matches(c) {
			cd.contacts = append(cd.contacts, c)
		}
	}
	return nil
}

// Contacts returns the contacts kept by the last render.
func (cd *CollisionDebugger) Contacts() []scene.Contact {
	return cd.contacts
}

// SelectType toggles the type filter for t.
func (cd *CollisionDebugger) SelectType(t scene.EntityType, selected bool) {
	if selected {
		cd.selectedTypes[t] = true
	} else {
		delete(cd.selectedTypes, t)
	}
}

func (cd *CollisionDebugger) matches(c scene.Contact) bool {
	if len(cd.selectedTypes) == 0 {
		return true
	}
	return cd.selectedTypes[cd.types[c.A]] || cd.selectedTypes[cd.types[c.B]]
}

func (cd *CollisionDebugger) Draw(frame *scene.UpdateFrame) {
	if !imgui.BeginV("Collision Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.Checkbox("Track collisions", &cd.Enabled)
	imgui.Separator()

	imgui.Text("Filter Types:")
	if imgui.Button("Clear All") {
		clear(cd.selectedTypes)
	}
	for _, t := range frame.Scene.Registry().Types() {
		selected := cd.selectedTypes[t]
		if imgui.Checkbox(t.String(), &selected) {
			cd.SelectType(t, selected)
		}
	}

	imgui.Separator()

	if !cd.Enabled {
		imgui.Text("Tracking disabled")
		imgui.End()
		return
	}
	if cd.err != nil {
		imgui.Text(fmt.Sprintf("Query failed: %v", cd.err))
	}

	imgui.Text(fmt.Sprintf("Contacts: %d", len(cd.contacts)))

	if imgui.TreeNodeStr("Contact Details") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("ContactTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("A")
			imgui.TableSetupColumn("B")
			imgui.TableSetupColumn("Side")
			imgui.TableSetupColumn("Code")
			imgui.TableHeadersRow()

			for _, c := range cd.contacts {
				imgui.TableNextRow()

				imgui.TableSetColumnIndex(0)
				imgui.Text(c.A)

				imgui.TableSetColumnIndex(1)
				imgui.Text(c.B)

				imgui.TableSetColumnIndex(2)
				imgui.Text(c.Collision.String())

				imgui.TableSetColumnIndex(3)
				imgui.Text(fmt.Sprintf("%d", c.Collision.Code()))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	imgui.End()
}
