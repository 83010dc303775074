// Package debugui provides Dear ImGui panels for inspecting a running scene.
// Panels are drawn from deferred frame commands, so they always see the scene after
// the frame's structural changes have been applied.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/scenery/scene"
)

// ImguiItem holds a Dear ImGui render function drawn once per frame.
type ImguiItem struct {
	Render func(frame *scene.UpdateFrame)
}

// ImguiInputState tracks whether Dear ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem defers the render function of every item to the frame barrier and
// records the current input capture state.
type ImguiSystem struct {
	Items      []*ImguiItem
	InputState ImguiInputState
}

// Add appends an item drawing render.
func (i *ImguiSystem) Add(render func(frame *scene.UpdateFrame)) *ImguiItem {
	item := &ImguiItem{Render: render}
	i.Items = append(i.Items, item)
	return item
}

func (i *ImguiSystem) Update(frame *scene.UpdateFrame) {
	io := imgui.CurrentIO()
	i.InputState.WantCaptureMouse = io.WantCaptureMouse()
	i.InputState.WantCaptureKeyboard = io.WantCaptureKeyboard()

	for _, item := range i.Items {
		frame.Commands.Defer(func() { item.Render(frame) })
	}
}
