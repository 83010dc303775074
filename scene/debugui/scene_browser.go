package debugui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/scenery/scene"
)

type EntityInfo struct {
	Name      string
	Type      scene.EntityType
	Priority  uint32
	Colliders int
	Position  mgl32.Vec3
}

type SceneBrowserCache struct {
	entities      []EntityInfo
	lastFrame     uint64
	sortColumn    int
	sortAscending bool
}

func NewSceneBrowser(maxEntitiesPerPage int) *SceneBrowser {
	return &SceneBrowser{
		cache: &SceneBrowserCache{
			sortColumn:    2,
			sortAscending: true,
		},
		maxEntitiesPerPage: maxEntitiesPerPage,
	}
}

func (sb *SceneBrowser) Render(frame *scene.UpdateFrame) {
	if !imgui.BeginV("Scene Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	sb.rebuildCacheIfNeeded(frame)

	imgui.InputTextWithHint("##search", "Search...", &sb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		sb.filterText = ""
		sb.filterPriority = nil
	}

	filtered := sb.filtered()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Name")
		imgui.TableSetupColumn("Type")
		imgui.TableSetupColumn("Priority")
		imgui.TableSetupColumn("Colliders")
		imgui.TableSetupColumn("Position")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			sb.cache.sortColumn = int(spec.ColumnIndex())
			sb.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sb.sortEntities()
			filtered = sb.filtered()
			sortSpecs.SetSpecsDirty(false)
		}

		start, end := sb.pageBounds(len(filtered))
		for _, entity := range filtered[start:end] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(entity.Name, sb.selected == entity.Name, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				sb.selected = entity.Name
			}

			imgui.TableNextColumn()
			imgui.Text(entity.Type.String())

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", entity.Priority))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", entity.Colliders))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.2f, %.2f, %.2f", entity.Position.X(), entity.Position.Y(), entity.Position.Z()))
		}

		imgui.EndTable()
	}

	if len(filtered) > sb.maxEntitiesPerPage {
		totalPages := sb.totalPages(len(filtered))
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", sb.currentPage+1, totalPages, len(filtered)))
		imgui.SameLine()
		if imgui.Button("Prev") && sb.currentPage > 0 {
			sb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && sb.currentPage < totalPages-1 {
			sb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(filtered)))
	}

	imgui.End()
}

// Selected returns the name of the selected entity, or "" when nothing is selected.
func (sb *SceneBrowser) Selected() string {
	return sb.selected
}

// Select changes the selection.
func (sb *SceneBrowser) Select(name string) {
	sb.selected = name
}

// FilterPriority restricts the browser to one render priority. Nil clears the filter.
func (sb *SceneBrowser) FilterPriority(p *uint32) {
	sb.filterPriority = p
	sb.currentPage = 0
}

func (sb *SceneBrowser) rebuildCacheIfNeeded(frame *scene.UpdateFrame) {
	if sb.cache.entities != nil && sb.cache.lastFrame == frame.Number {
		return
	}
	sb.rebuildCache(frame.Scene)
	sb.cache.lastFrame = frame.Number
}

func (sb *SceneBrowser) rebuildCache(s *scene.Scene) {
	ordered := s.Ordered()
	sb.cache.entities = make([]EntityInfo, 0, len(ordered))

	for _, e := range ordered {
		info := EntityInfo{
			Name:     e.Name(),
			Type:     e.Type(),
			Priority: e.Priority(),
		}
		if t := e.Transform().Get(); t != nil {
			info.Position = t.Position
		}
		if set, ok := scene.CollidersOf(e); ok {
			info.Colliders = set.Len()
		}
		sb.cache.entities = append(sb.cache.entities, info)
	}

	sb.sortEntities()
}

func (sb *SceneBrowser) sortEntities() {
	sort.SliceStable(sb.cache.entities, func(i, j int) bool {
		a, b := sb.cache.entities[i], sb.cache.entities[j]
		var less bool

		switch sb.cache.sortColumn {
		case 0:
			less = a.Name < b.Name
		case 1:
			less = a.Type < b.Type
		case 3:
			less = a.Colliders < b.Colliders
		case 4:
			less = a.Position.Len() < b.Position.Len()
		default:
			less = a.Priority < b.Priority
		}

		if !sb.cache.sortAscending {
			return !less
		}
		return less
	})
}

func (sb *SceneBrowser) filtered() []EntityInfo {
	if sb.filterText == "" && sb.filterPriority == nil {
		return sb.cache.entities
	}

	filtered := make([]EntityInfo, 0, len(sb.cache.entities))
	filterLower := strings.ToLower(sb.filterText)

	for _, entity := range sb.cache.entities {
		if sb.filterPriority != nil && entity.Priority != *sb.filterPriority {
			continue
		}

		if sb.filterText != "" &&
			!strings.Contains(strings.ToLower(entity.Name), filterLower) &&
			!strings.Contains(entity.Type.String(), filterLower) {
			continue
		}

		filtered = append(filtered, entity)
	}

	return filtered
}

func (sb *SceneBrowser) totalPages(n int) int {
	return max(1, (n+sb.maxEntitiesPerPage-1)/sb.maxEntitiesPerPage)
}

func (sb *SceneBrowser) pageBounds(n int) (start, end int) {
	sb.currentPage = min(sb.currentPage, sb.totalPages(n)-1)
	start = sb.currentPage * sb.maxEntitiesPerPage
	end = min(start+sb.maxEntitiesPerPage, n)
	return start, end
}
