// Package module describes module kinds: their ports, their state factory
// and the narrow context handed to a module during evaluation.
package module

import (
	"errors"
	"fmt"

	"github.com/dudk/rack/value"
)

// ErrInvalidDescription is returned when module description is malformed.
var ErrInvalidDescription = errors.New("invalid module description")

// Context is passed to Process. It gives the module access to its own
// declared ports only.
type Context interface {
	// SampleRate of the current evaluation.
	SampleRate() int
	// Input returns current value of the declared input, already coerced
	// to the declared type.
	Input(PortID) value.Value
	// Output writes the declared output. Connected inputs receive the
	// value immediately.
	Output(PortID, value.Value)
}

// Module is a per-instance state of a module kind.
type Module interface {
	Process(Context)
}

// Sink is implemented by modules which contribute a frame to the audio
// output after every evaluation.
type Sink interface {
	Module
	Frame() (value.Frame, bool)
}

// Describer is implemented by modules which expose a status line.
type Describer interface {
	Describe() string
}

// Get reads the typed input. Default is returned if the context holds a
// value of unexpected type.
func Get[T value.Value](ctx Context, in Input[T]) T {
	if v, ok := ctx.Input(in.ID()).(T); ok {
		return v
	}
	return in.Default()
}

// Set writes the typed output.
func Set[T value.Value](ctx Context, out Output[T], v T) {
	ctx.Output(out.ID(), v)
}

// Factory instantiates fresh module state.
type Factory func() Module

// Description is a static metadata of a module kind.
type Description struct {
	Kind    string
	Name    string
	New     Factory
	Inputs  []PortDescription
	Outputs []PortDescription
}

// Describe starts a description of module kind.
func Describe(kind, name string, factory Factory) *Description {
	return &Description{
		Kind: kind,
		Name: name,
		New:  factory,
	}
}

// Input adds input ports.
func (d *Description) Input(ports ...Port) *Description {
	for _, p := range ports {
		d.Inputs = append(d.Inputs, p.Description())
	}
	return d
}

// Output adds output ports.
func (d *Description) Output(ports ...Port) *Description {
	for _, p := range ports {
		d.Outputs = append(d.Outputs, p.Description())
	}
	return d
}

// Port returns description of the port with provided id.
func (d *Description) Port(id PortID) (PortDescription, bool) {
	for _, p := range d.Inputs {
		if p.ID == id {
			return p, true
		}
	}
	for _, p := range d.Outputs {
		if p.ID == id {
			return p, true
		}
	}
	return PortDescription{}, false
}

// Validate checks that description can be instantiated.
func (d *Description) Validate() error {
	if d.Kind == "" {
		return fmt.Errorf("%w: empty kind", ErrInvalidDescription)
	}
	if d.New == nil {
		return fmt.Errorf("%w: %s: nil factory", ErrInvalidDescription, d.Kind)
	}
	seen := make(map[PortID]struct{}, len(d.Inputs)+len(d.Outputs))
	check := func(ports []PortDescription, dir Direction) error {
		for _, p := range ports {
			if p.Direction != dir {
				return fmt.Errorf("%w: %s: port %v must be %v", ErrInvalidDescription, d.Kind, p.ID, dir)
			}
			if dir == In && p.Default == nil {
				return fmt.Errorf("%w: %s: input %v has no default", ErrInvalidDescription, d.Kind, p.ID)
			}
			if _, ok := seen[p.ID]; ok {
				return fmt.Errorf("%w: %s: duplicate port %v", ErrInvalidDescription, d.Kind, p.ID)
			}
			seen[p.ID] = struct{}{}
		}
		return nil
	}
	if err := check(d.Inputs, In); err != nil {
		return err
	}
	return check(d.Outputs, Out)
}
