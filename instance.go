package rack

import (
	"fmt"

	"github.com/dudk/rack/graph"
	"github.com/dudk/rack/module"
	"github.com/dudk/rack/value"
)

// instance is a live module with its evaluation context.
type instance struct {
	handle graph.Handle
	desc   *module.Description
	module module.Module
	sink   module.Sink
	panel  int
	ctx    processContext
}

// arena keeps instances in slots addressed by stable indices. Freed slots
// are reused.
type arena struct {
	slots []*instance
	free  []int
	index map[graph.Handle]int
}

func newArena() arena {
	return arena{index: make(map[graph.Handle]int)}
}

func (a *arena) insert(inst *instance) {
	var slot int
	if n := len(a.free); n > 0 {
		slot = a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[slot] = inst
	} else {
		slot = len(a.slots)
		a.slots = append(a.slots, inst)
	}
	a.index[inst.handle] = slot
}

func (a *arena) get(h graph.Handle) (*instance, bool) {
	slot, ok := a.index[h]
	if !ok {
		return nil, false
	}
	return a.slots[slot], true
}

func (a *arena) remove(h graph.Handle) bool {
	slot, ok := a.index[h]
	if !ok {
		return false
	}
	a.slots[slot] = nil
	a.free = append(a.free, slot)
	delete(a.index, h)
	return true
}

func (a *arena) len() int {
	return len(a.index)
}

// processContext is handed to the module during evaluation. It resolves
// ports of the owning instance only. Access to undeclared ports is a bug
// in the module and panics.
type processContext struct {
	io         *graph.Io
	handle     graph.Handle
	sampleRate int
}

// SampleRate implements module.Context.
func (c *processContext) SampleRate() int {
	return c.sampleRate
}

// Input implements module.Context.
func (c *processContext) Input(id module.PortID) value.Value {
	v, err := c.io.Input(graph.Port{ID: id, Instance: c.handle})
	if err != nil {
		panic(fmt.Sprintf("read %v: %v", id, err))
	}
	return v
}

// Output implements module.Context.
func (c *processContext) Output(id module.PortID, v value.Value) {
	if err := c.io.SetOutput(graph.Port{ID: id, Instance: c.handle}, v); err != nil {
		panic(fmt.Sprintf("write %v: %v", id, err))
	}
}
