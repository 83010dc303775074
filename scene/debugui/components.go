package debugui

import "github.com/plus3/scenery/scene"

type SceneBrowser struct {
	cache              *SceneBrowserCache
	selected           string
	filterText         string
	filterPriority     *uint32
	maxEntitiesPerPage int
	currentPage        int
}

type EntityInspector struct {
	selected string
}

type PriorityViewer struct {
	cache            *PriorityViewerCache
	selectedPriority *uint32
}

type PerformanceStats struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}

type CollisionDebugger struct {
	// Enabled turns on the per-frame collision query.
	Enabled       bool
	selectedTypes map[scene.EntityType]bool
	types         map[string]scene.EntityType
	contacts      []scene.Contact
	err           error
}

type Spawner struct {
	name     string
	selected scene.EntityType
	pending  []scene.Descriptor
	spawned  int
	err      error
}
