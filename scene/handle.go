package scene

// TransformHandle encodes the slot generation (upper 32 bits) and the arena index (lower 32 bits).
// Generations start at 1, so the zero handle never resolves.
type TransformHandle uint64

// NewTransformHandle creates a TransformHandle from a slot generation and arena index
func NewTransformHandle(generation uint32, index uint32) TransformHandle {
	return TransformHandle(uint64(generation)<<32 | uint64(index))
}

// Generation extracts the slot generation from the handle
func (h TransformHandle) Generation() uint32 {
	return uint32(h >> 32)
}

// Index extracts the arena index from the handle
func (h TransformHandle) Index() uint32 {
	return uint32(h & 0xFFFFFFFF)
}

// TransformRef is a stable reference to a transform slot. It never aliases the
// transform memory directly; every access goes through the arena and is checked
// against the slot generation.
type TransformRef struct {
	Arena  *TransformArena
	Handle TransformHandle
}

// Get resolves the reference, returning nil when the slot was released.
func (r TransformRef) Get() *Transform {
	if r.Arena == nil {
		return nil
	}
	return r.Arena.Get(r.Handle)
}

// Valid reports whether the reference still resolves.
func (r TransformRef) Valid() bool {
	return r.Get() != nil
}
