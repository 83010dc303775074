package debugui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/scenery/scene"
)

// PriorityInfo summarizes one render-priority bucket.
type PriorityInfo struct {
	Priority uint32
	Types    []string
	Count    int
}

type PriorityViewerCache struct {
	buckets       []PriorityInfo
	lastFrame     uint64
	sortColumn    int
	sortAscending bool
}

func NewPriorityViewer() *PriorityViewer {
	return &PriorityViewer{
		cache: &PriorityViewerCache{
			sortColumn:    0,
			sortAscending: true,
		},
	}
}

// Render draws the render-priority buckets and returns the priority clicked this
// frame, if any.
func (pv *PriorityViewer) Render(frame *scene.UpdateFrame) *uint32 {
	if !imgui.BeginV("Render Priorities", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return nil
	}

	pv.rebuildCacheIfNeeded(frame)

	maxCount := 0
	for _, b := range pv.cache.buckets {
		maxCount = max(maxCount, b.Count)
	}

	var clicked *uint32

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("PriorityTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Priority")
		imgui.TableSetupColumn("Types")
		imgui.TableSetupColumn("Entities")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			pv.cache.sortColumn = int(spec.ColumnIndex())
			pv.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			pv.sortBuckets()
			sortSpecs.SetSpecsDirty(false)
		}

		for _, b := range pv.cache.buckets {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := pv.selectedPriority != nil && *pv.selectedPriority == b.Priority
			if imgui.SelectableBoolV(fmt.Sprintf("%d", b.Priority), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				p := b.Priority
				clicked = &p
				pv.selectedPriority = &p
			}

			imgui.TableNextColumn()
			imgui.Text(strings.Join(b.Types, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", b.Count))

			if maxCount > 0 {
				barWidth := float32(b.Count) / float32(maxCount) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}
		}

		imgui.EndTable()
	}

	imgui.End()
	return clicked
}

// Buckets returns the cached rows in display order.
func (pv *PriorityViewer) Buckets() []PriorityInfo {
	return pv.cache.buckets
}

func (pv *PriorityViewer) rebuildCacheIfNeeded(frame *scene.UpdateFrame) {
	if pv.cache.buckets != nil && pv.cache.lastFrame == frame.Number {
		return
	}
	pv.rebuildCache(frame.Scene)
	pv.cache.lastFrame = frame.Number
}

func (pv *PriorityViewer) rebuildCache(s *scene.Scene) {
	priorities := s.Priorities()
	pv.cache.buckets = make([]PriorityInfo, 0, len(priorities))

	for _, p := range priorities {
		bucket := s.Bucket(p)
		seen := make(map[scene.EntityType]bool)
		var types []string
		for _, e := range bucket {
			if !seen[e.Type()] {
				seen[e.Type()] = true
				types = append(types, e.Type().String())
			}
		}
		sort.Strings(types)

		pv.cache.buckets = append(pv.cache.buckets, PriorityInfo{
			Priority: p,
			Types:    types,
			Count:    len(bucket),
		})
	}

	pv.sortBuckets()
}

func (pv *PriorityViewer) sortBuckets() {
	sort.SliceStable(pv.cache.buckets, func(i, j int) bool {
		a, b := pv.cache.buckets[i], pv.cache.buckets[j]
		var less bool

		switch pv.cache.sortColumn {
		case 1:
			less = strings.Join(a.Types, ",") < strings.Join(b.Types, ",")
		case 2:
			less = a.Count < b.Count
		default:
			less = a.Priority < b.Priority
		}

		if !pv.cache.sortAscending {
			return !less
		}
		return less
	})
}
