package scene

import (
	"errors"
	"fmt"
)

// Commands buffers structural changes requested during the update phase. They are
// applied to the scene at the frame barrier, so entity and system updates never
// change the scene's membership while it is being walked.
type Commands struct {
	adds       []Entity
	removes    []string
	priorities []priorityCommand
	defers     []func()
}

type priorityCommand struct {
	name     string
	priority uint32
}

func newCommands() *Commands {
	return &Commands{}
}

// Add queues e for insertion into the scene.
func (c *Commands) Add(e Entity) {
	if e == nil {
		panic("scene: Commands.Add called with a nil entity")
	}
	c.adds = append(c.adds, e)
}

// Remove queues the removal of the named entity.
func (c *Commands) Remove(name string) {
	c.removes = append(c.removes, name)
}

// SetPriority queues a render priority change for the named entity.
func (c *Commands) SetPriority(name string, priority uint32) {
	c.priorities = append(c.priorities, priorityCommand{name: name, priority: priority})
}

// Defer queues fn to run after the other commands have been applied.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.adds) + len(c.removes) + len(c.priorities) + len(c.defers)
}

// Flush applies queued commands to s in order: removals, additions, priority changes,
// then deferred functions. Failures do not stop the flush; they are joined and
// returned. The buffer is reset afterwards.
func (c *Commands) Flush(s *Scene) error {
	var errs []error

	for _, name := range c.removes {
		s.Remove(name)
	}

	for _, e := range c.adds {
		if err := s.Add(e); err != nil {
			errs = append(errs, fmt.Errorf("add %s: %w", e.Name(), err))
		}
	}

	for _, cmd := range c.priorities {
		e := s.Get(cmd.name)
		if e == nil {
			errs = append(errs, fmt.Errorf("set priority of %s: %w", cmd.name, ErrNotFound))
			continue
		}
		e.object().SetPriority(cmd.priority)
	}

	for _, fn := range c.defers {
		fn()
	}

	clear(c.adds)
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.priorities = c.priorities[:0]
	clear(c.defers)
	c.defers = c.defers[:0]

	return errors.Join(errs...)
}
