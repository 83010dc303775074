package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/scenery/scene"
)

func NewPerformanceStats(historyFrames int) *PerformanceStats {
	historyFrames = max(1, historyFrames)
	return &PerformanceStats{
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
	}
}

func (ps *PerformanceStats) Render(frame *scene.UpdateFrame, stats *scene.LoopStats) {
	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ps.record(frame.DeltaTime)

	s := frame.Scene
	imgui.Text(fmt.Sprintf("Frame: %d", frame.Number))
	imgui.Text(fmt.Sprintf("Entities: %d", s.Len()))
	imgui.Text(fmt.Sprintf("Priorities: %d", len(s.Priorities())))
	imgui.Text(fmt.Sprintf("Transforms: %d", s.Transforms().Len()))

	avg := ps.average()
	fps := float32(0)
	if avg > 0 {
		fps = 1000.0 / avg
	}
	imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avg, fps))

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &ps.frameHistory[0], int32(len(ps.frameHistory)))

	if stats != nil {
		if imgui.TreeNodeStr("Phases") {
			renderTimings("PhaseTable", stats.Phases)
			imgui.TreePop()
		}
		if imgui.TreeNodeStr("Systems") {
			renderTimings("SystemTable", stats.Systems)
			imgui.TreePop()
		}
	}

	imgui.End()
}

func renderTimings(id string, rows []scene.SystemStats) {
	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if !imgui.BeginTableV(id, 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		return
	}
	imgui.TableSetupColumn("Name")
	imgui.TableSetupColumn("Runs")
	imgui.TableSetupColumn("Last")
	imgui.TableSetupColumn("Avg")
	imgui.TableHeadersRow()

	for _, row := range rows {
		imgui.TableNextRow()
		imgui.TableNextColumn()
		imgui.Text(row.Name)
		imgui.TableNextColumn()
		imgui.Text(fmt.Sprintf("%d", row.ExecutionCount))
		imgui.TableNextColumn()
		imgui.Text(row.LastDuration.String())
		imgui.TableNextColumn()
		imgui.Text(row.AvgDuration.String())
	}

	imgui.EndTable()
}

func (ps *PerformanceStats) record(dt float64) {
	ps.frameHistory[ps.frameIndex] = float32(dt * 1000.0)
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames
}

// average is the mean frame time in milliseconds over the history window.
func (ps *PerformanceStats) average() float32 {
	var total float32
	for _, ft := range ps.frameHistory {
		total += ft
	}
	return total / float32(ps.historyFrames)
}
