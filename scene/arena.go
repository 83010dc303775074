package scene

import (
	"iter"
	"sync"
)

const (
	arenaBlockSize = 64
)

type transformBlock struct {
	items       [arenaBlockSize]Transform
	filled      [arenaBlockSize]bool
	generations [arenaBlockSize]uint32
}

// TransformArena stores transforms in fixed-size blocks. Indices are stable for the
// lifetime of a slot and freed slots are reused with a bumped generation, so a handle
// to a released transform can never observe the slot's next occupant.
//
// Blocks are allocated individually and never move, which keeps pointers returned by
// Get valid while other slots are allocated.
type TransformArena struct {
	mu        sync.RWMutex
	blocks    []*transformBlock
	freeSlots []int
	nextIndex int
	live      int
}

// NewTransformArena creates an empty arena.
func NewTransformArena() *TransformArena {
	return &TransformArena{}
}

// Alloc stores t in a free slot and returns a reference to it.
func (a *TransformArena) Alloc(t Transform) TransformRef {
	a.mu.Lock()
	defer a.mu.Unlock()

	var index int
	if len(a.freeSlots) > 0 {
		index = a.freeSlots[len(a.freeSlots)-1]
		a.freeSlots = a.freeSlots[:len(a.freeSlots)-1]
	} else {
		index = a.nextIndex
		a.nextIndex++
	}

	blockIdx := index / arenaBlockSize
	slotIdx := index % arenaBlockSize

	if blockIdx >= len(a.blocks) {
		a.blocks = append(a.blocks, &transformBlock{})
	}

	block := a.blocks[blockIdx]
	block.items[slotIdx] = t
	block.filled[slotIdx] = true
	block.generations[slotIdx]++
	if block.generations[slotIdx] == 0 {
		block.generations[slotIdx] = 1
	}
	a.live++

	return TransformRef{
		Arena:  a,
		Handle: NewTransformHandle(block.generations[slotIdx], uint32(index)),
	}
}

// Get returns a pointer to the transform for h, or nil when h is stale.
func (a *TransformArena) Get(h TransformHandle) *Transform {
	a.mu.RLock()
	defer a.mu.RUnlock()

	block, slotIdx, ok := a.slot(h)
	if !ok {
		return nil
	}
	return &block.items[slotIdx]
}

// Release frees the slot for h. It returns false when h was already stale.
func (a *TransformArena) Release(h TransformHandle) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	block, slotIdx, ok := a.slot(h)
	if !ok {
		return false
	}

	block.filled[slotIdx] = false
	block.items[slotIdx] = Transform{}
	a.freeSlots = append(a.freeSlots, int(h.Index()))
	a.live--
	return true
}

// Len returns the number of live transforms.
func (a *TransformArena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.live
}

// Iter yields every live handle. The arena is read-locked for the duration of the
// iteration, so the callback must not call back into the arena.
func (a *TransformArena) Iter() iter.Seq2[TransformHandle, *Transform] {
	return func(yield func(TransformHandle, *Transform) bool) {
		a.mu.RLock()
		defer a.mu.RUnlock()

		for i := 0; i < a.nextIndex; i++ {
			block := a.blocks[i/arenaBlockSize]
			slotIdx := i % arenaBlockSize
			if !block.filled[slotIdx] {
				continue
			}
			h := NewTransformHandle(block.generations[slotIdx], uint32(i))
			if !yield(h, &block.items[slotIdx]) {
				return
			}
		}
	}
}

func (a *TransformArena) slot(h TransformHandle) (*transformBlock, int, bool) {
	index := int(h.Index())
	if h.Generation() == 0 || index >= a.nextIndex {
		return nil, 0, false
	}

	block := a.blocks[index/arenaBlockSize]
	slotIdx := index % arenaBlockSize
	if !block.filled[slotIdx] || block.generations[slotIdx] != h.Generation() {
		return nil, 0, false
	}
	return block, slotIdx, true
}
