package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/plus3/scenery/scene"
)

func NewSpawner() *Spawner {
	return &Spawner{selected: scene.TypeGameObject}
}

// Queue schedules an entity built from d for the next frame. An empty name is
// replaced with "<type>.<n>".
func (sp *Spawner) Queue(d scene.Descriptor) {
	if d.Name == "" {
		sp.spawned++
		d.Name = fmt.Sprintf("%s.%d", d.Type, sp.spawned)
	}
	sp.pending = append(sp.pending, d)
}

// Update builds queued descriptors with the scene registry and adds them through the
// frame's commands.
func (sp *Spawner) Update(frame *scene.UpdateFrame) {
	s := frame.Scene
	for _, d := range sp.pending {
		e, err := s.Registry().Build(s, d)
		if err != nil {
			sp.err = err
			s.Logger().Warn("debug spawn failed", zap.String("entity", d.Name), zap.Error(err))
			continue
		}
		frame.Commands.Add(e)
	}
	clear(sp.pending)
	sp.pending = sp.pending[:0]
}

func (sp *Spawner) Draw(frame *scene.UpdateFrame) {
	if !imgui.BeginV("Spawn", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	for _, t := range frame.Scene.Registry().Types() {
		// Cameras need a target before they can render.
		if t == scene.TypeCamera {
			continue
		}
		if imgui.SelectableBoolV(t.String(), sp.selected == t, imgui.SelectableFlagsNone, imgui.NewVec2(0, 0)) {
			sp.selected = t
		}
	}

	imgui.Separator()
	imgui.InputTextWithHint("##name", "Name (optional)", &sp.name, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Spawn") {
		d := scene.Descriptor{Name: sp.name, Type: sp.selected}
		if c := frame.Camera; c != nil {
			if target := c.Target(); target != nil {
				if t := target.Transform().Get(); t != nil {
					d.Position = t.Position
				}
			}
		}
		sp.Queue(d)
		sp.name = ""
	}

	if sp.err != nil {
		imgui.Text(fmt.Sprintf("Last error: %v", sp.err))
	}

	imgui.End()
}

// Panels bundles the debug windows of one loop.
type Panels struct {
	Browser    *SceneBrowser
	Inspector  *EntityInspector
	Priorities *PriorityViewer
	Stats      *PerformanceStats
	Collisions *CollisionDebugger
	Spawner    *Spawner
	System     *ImguiSystem
}

// Install creates the debug panels and registers their systems with loop. The spawner
// runs first so queued entities join the frame that follows the click.
func Install(loop *scene.Loop) *Panels {
	p := &Panels{
		Browser:    NewSceneBrowser(100),
		Inspector:  NewEntityInspector(),
		Priorities: NewPriorityViewer(),
		Stats:      NewPerformanceStats(120),
		Collisions: NewCollisionDebugger(),
		Spawner:    NewSpawner(),
		System:     &ImguiSystem{},
	}

	p.System.Add(p.Browser.Render)
	p.System.Add(func(frame *scene.UpdateFrame) {
		p.Inspector.Render(frame, p.Browser.Selected())
	})
	p.System.Add(func(frame *scene.UpdateFrame) {
		if clicked := p.Priorities.Render(frame); clicked != nil {
			p.Browser.FilterPriority(clicked)
		}
	})
	p.System.Add(func(frame *scene.UpdateFrame) {
		p.Stats.Render(frame, loop.Stats())
	})
	p.System.Add(p.Collisions.Draw)
	p.System.Add(p.Spawner.Draw)

	loop.Register(p.Spawner)
	loop.Register(p.System)
	loop.Register(p.Collisions)
	return p
}
