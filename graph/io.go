// Package graph owns connections between module instances, the values
// staged on their inputs and the order in which instances are processed.
//
// Graph is not safe for concurrent use. It's mutated and processed by a
// single owner.
package graph

import (
	"fmt"

	"github.com/dudk/rack/module"
	"github.com/dudk/rack/value"
)

// node is a registered instance.
type node struct {
	desc  *module.Description
	ports map[module.PortID]module.PortDescription
}

// Io is the connection graph.
type Io struct {
	conversions *value.Conversions
	nodes       map[Handle]*node
	// instances in insertion order.
	instances []Handle
	// staged input values.
	inputs map[Port]value.Value
	// last written output values.
	outputs map[Port]value.Value
	// input to its single source.
	sources map[Port]Port
	// output to its targets in connection order.
	targets map[Port][]Port

	passes   [][]Handle
	order    []Handle
	orderErr error
	revision uint64
}

// New returns an empty graph. Conversions can be nil, then only ports of
// the same type and port-declared conversions are accepted.
func New(conversions *value.Conversions) *Io {
	return &Io{
		conversions: conversions,
		nodes:       make(map[Handle]*node),
		inputs:      make(map[Port]value.Value),
		outputs:     make(map[Port]value.Value),
		sources:     make(map[Port]Port),
		targets:     make(map[Port][]Port),
	}
}

// AddInstance registers ports of the instance.
func (io *Io) AddInstance(h Handle, desc *module.Description) error {
	if h.IsZero() {
		return fmt.Errorf("%w: zero handle", ErrUnknownInstance)
	}
	if _, ok := io.nodes[h]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateInstance, h)
	}
	n := node{
		desc:  desc,
		ports: make(map[module.PortID]module.PortDescription, len(desc.Inputs)+len(desc.Outputs)),
	}
	for _, p := range desc.Inputs {
		n.ports[p.ID] = p
	}
	for _, p := range desc.Outputs {
		n.ports[p.ID] = p
	}
	io.nodes[h] = &n
	io.instances = append(io.instances, h)
	io.ComputeOrder()
	return nil
}

// RemoveInstance removes every edge of the instance, its staged values
// and the instance itself.
func (io *Io) RemoveInstance(h Handle) error {
	n, ok := io.nodes[h]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownInstance, h)
	}
	for _, p := range n.desc.Inputs {
		in := Port{ID: p.ID, Instance: h}
		if src, ok := io.sources[in]; ok {
			io.unlink(src, in)
		}
		delete(io.inputs, in)
	}
	for _, p := range n.desc.Outputs {
		out := Port{ID: p.ID, Instance: h}
		for _, in := range append([]Port(nil), io.targets[out]...) {
			io.unlink(out, in)
		}
		delete(io.outputs, out)
	}
	delete(io.nodes, h)
	for i := range io.instances {
		if io.instances[i] == h {
			io.instances = append(io.instances[:i], io.instances[i+1:]...)
			break
		}
	}
	io.ComputeOrder()
	return nil
}

// Contains reports if instance is added.
func (io *Io) Contains(h Handle) bool {
	_, ok := io.nodes[h]
	return ok
}

// Instances returns handles in insertion order.
func (io *Io) Instances() []Handle {
	return append([]Handle(nil), io.instances...)
}

// port returns description of the port in the expected direction.
func (io *Io) port(p Port, dir module.Direction) (module.PortDescription, error) {
	n, ok := io.nodes[p.Instance]
	if !ok {
		return module.PortDescription{}, fmt.Errorf("%w: %v", ErrUnknownInstance, p.Instance)
	}
	desc, ok := n.ports[p.ID]
	if !ok || desc.Direction != dir {
		return module.PortDescription{}, fmt.Errorf("%w: %v %v", ErrUnknownPort, dir, p)
	}
	return desc, nil
}

// conversion returns the function which adapts values of type from to the
// input. Registered conversions are looked up first, port-specific entry
// before the type-general one.
func (io *Io) conversion(from value.Type, to module.PortDescription) (value.ConvertFunc, bool) {
	if fn, ok := io.conversions.Lookup(from, to.ID.Type, to.ID.Role); ok {
		return fn, true
	}
	// conversions of descriptions added directly to Io aren't registered
	for _, c := range to.Conversions {
		if c.From == from {
			return c.Convert, true
		}
	}
	return nil, false
}

// accepts reports if values of type from can be delivered to the input.
func (io *Io) accepts(from value.Type, to module.PortDescription) bool {
	if from == to.ID.Type {
		return true
	}
	_, ok := io.conversion(from, to)
	return ok
}

// CanConnect checks if output from can be connected to input to.
func (io *Io) CanConnect(from, to Port) Result {
	if from.Instance == to.Instance {
		return Result{Status: SameInstance}
	}
	if _, err := io.port(from, module.Out); err != nil {
		return Result{Status: Incompatible}
	}
	in, err := io.port(to, module.In)
	if err != nil {
		return Result{Status: Incompatible}
	}
	if !io.accepts(from.ID.Type, in) {
		return Result{Status: Incompatible}
	}
	if src, ok := io.sources[to]; ok && src != from {
		return Result{Status: Replace, Replaced: src}
	}
	return Result{Status: OK}
}

// Connect adds the edge. Existing edge into the input is replaced. The
// graph is left untouched if connection is rejected or if it would make
// instances depend on each other.
func (io *Io) Connect(from, to Port) (Result, error) {
	res := io.CanConnect(from, to)
	if err := res.Err(); err != nil {
		return res, &ConnectError{From: from, To: to, Err: err}
	}
	if src, ok := io.sources[to]; ok && src == from {
		return res, nil
	}
	if io.reachable(to.Instance, from.Instance) {
		return res, &ConnectError{From: from, To: to, Err: ErrCyclicDependency}
	}
	if res.Status == Replace {
		io.unlink(res.Replaced, to)
	}
	io.link(from, to)
	if v, ok := io.outputs[from]; ok {
		io.inputs[to] = v.Clone()
	}
	io.ComputeOrder()
	return res, nil
}

// Disconnect removes the edge if present. The input falls back to its
// default value.
func (io *Io) Disconnect(from, to Port) bool {
	if src, ok := io.sources[to]; !ok || src != from {
		return false
	}
	io.unlink(from, to)
	io.ComputeOrder()
	return true
}

// link adds edge without any checks.
func (io *Io) link(from, to Port) {
	io.sources[to] = from
	io.targets[from] = append(io.targets[from], to)
}

// unlink removes edge and staged value of the input.
func (io *Io) unlink(from, to Port) {
	delete(io.sources, to)
	delete(io.inputs, to)
	targets := io.targets[from]
	for i := range targets {
		if targets[i] == to {
			targets = append(targets[:i], targets[i+1:]...)
			break
		}
	}
	if len(targets) == 0 {
		delete(io.targets, from)
		return
	}
	io.targets[from] = targets
}

// SetInput stages value on unconnected input.
func (io *Io) SetInput(p Port, v value.Value) error {
	desc, err := io.port(p, module.In)
	if err != nil {
		return err
	}
	if _, ok := io.sources[p]; ok {
		return fmt.Errorf("%w: %v", ErrInputConnected, p)
	}
	if !io.accepts(v.Type(), desc) {
		return fmt.Errorf("%w: %v doesn't accept %s", ErrIncompatible, p, v.Type())
	}
	io.inputs[p] = v
	return nil
}

// Input returns the value of the input converted to the declared type.
// Declared default is returned if nothing is staged.
func (io *Io) Input(p Port) (value.Value, error) {
	desc, err := io.port(p, module.In)
	if err != nil {
		return nil, err
	}
	v, ok := io.inputs[p]
	if !ok {
		return desc.DefaultValue(), nil
	}
	if v.Type() == desc.ID.Type {
		return v, nil
	}
	if fn, ok := io.conversion(v.Type(), desc); ok {
		return fn(v), nil
	}
	return desc.DefaultValue(), nil
}

// SetOutput stores the value and stages it on every connected input.
func (io *Io) SetOutput(p Port, v value.Value) error {
	if _, err := io.port(p, module.Out); err != nil {
		return err
	}
	if v.Type() != p.ID.Type {
		return fmt.Errorf("%w: %v expects %s, got %s", ErrIncompatible, p, p.ID.Type, v.Type())
	}
	io.outputs[p] = v
	for _, to := range io.targets[p] {
		io.inputs[to] = v.Clone()
	}
	return nil
}

// InputBoxed returns the staged value of the input as is.
func (io *Io) InputBoxed(p Port) (value.Value, bool) {
	v, ok := io.inputs[p]
	return v, ok
}

// OutputBoxed returns the last written value of the output.
func (io *Io) OutputBoxed(p Port) (value.Value, bool) {
	v, ok := io.outputs[p]
	return v, ok
}

// HasConnection reports if port has incoming or outgoing edge.
func (io *Io) HasConnection(p Port) bool {
	if _, ok := io.sources[p]; ok {
		return true
	}
	return len(io.targets[p]) > 0
}

// Source returns the output connected to the input.
func (io *Io) Source(in Port) (Port, bool) {
	p, ok := io.sources[in]
	return p, ok
}

// Targets returns the inputs connected to the output.
func (io *Io) Targets(out Port) []Port {
	return append([]Port(nil), io.targets[out]...)
}

// Edges returns all edges ordered by source instance insertion, then by
// declared output order, then by connection order.
func (io *Io) Edges() []Edge {
	var edges []Edge
	for _, h := range io.instances {
		for _, p := range io.nodes[h].desc.Outputs {
			out := Port{ID: p.ID, Instance: h}
			for _, in := range io.targets[out] {
				edges = append(edges, Edge{From: out, To: in})
			}
		}
	}
	return edges
}

// Description returns description of the instance.
func (io *Io) Description(h Handle) (*module.Description, bool) {
	n, ok := io.nodes[h]
	if !ok {
		return nil, false
	}
	return n.desc, true
}
