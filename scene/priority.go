package scene

import (
	"slices"

	"github.com/kamstrup/intmap"
)

// priorityIndex groups entities into render buckets. Buckets are walked in ascending
// priority and each bucket holds its entities in scene insertion order.
type priorityIndex struct {
	buckets *intmap.Map[uint32, []Entity]
	keys    []uint32
}

func newPriorityIndex() *priorityIndex {
	return &priorityIndex{
		buckets: intmap.New[uint32, []Entity](16),
	}
}

func (p *priorityIndex) insert(e Entity) {
	prio := e.Priority()
	bucket, ok := p.buckets.Get(prio)
	if !ok {
		i, _ := slices.BinarySearch(p.keys, prio)
		p.keys = slices.Insert(p.keys, i, prio)
	}
	p.buckets.Put(prio, append(bucket, e))
}

// purge removes e from whichever bucket holds it. The entity's current priority may
// differ from its bucket when the index is stale, so every bucket is searched.
func (p *priorityIndex) purge(e Entity) {
	target := e.object()
	for k := 0; k < len(p.keys); k++ {
		prio := p.keys[k]
		bucket, _ := p.buckets.Get(prio)
		i := slices.IndexFunc(bucket, func(x Entity) bool { return x.object() == target })
		if i < 0 {
			continue
		}
		bucket = slices.Delete(bucket, i, i+1)
		if len(bucket) == 0 {
			p.buckets.Del(prio)
			p.keys = slices.Delete(p.keys, k, k+1)
		} else {
			p.buckets.Put(prio, bucket)
		}
		return
	}
}

func (p *priorityIndex) rebuild(objects map[string]Entity) {
	p.buckets.Clear()
	p.keys = p.keys[:0]

	all := make([]Entity, 0, len(objects))
	for _, e := range objects {
		all = append(all, e)
	}
	slices.SortFunc(all, func(a, b Entity) int {
		if pa, pb := a.Priority(), b.Priority(); pa != pb {
			if pa < pb {
				return -1
			}
			return 1
		}
		sa, sb := a.object().seq, b.object().seq
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	})
	for _, e := range all {
		p.insert(e)
	}
}

func (p *priorityIndex) bucket(prio uint32) []Entity {
	bucket, _ := p.buckets.Get(prio)
	return slices.Clone(bucket)
}

func (p *priorityIndex) priorities() []uint32 {
	return slices.Clone(p.keys)
}

// ordered returns every indexed entity, lowest priority first.
func (p *priorityIndex) ordered() []Entity {
	out := make([]Entity, 0, p.buckets.Len())
	for _, prio := range p.keys {
		bucket, _ := p.buckets.Get(prio)
		out = append(out, bucket...)
	}
	return out
}
