package module

import (
	"fmt"

	"github.com/dudk/rack/value"
)

// Direction of the port.
type Direction int

const (
	// In is an input port, it consumes values.
	In Direction = iota
	// Out is an output port, it produces values.
	Out
)

func (d Direction) String() string {
	if d == In {
		return "input"
	}
	return "output"
}

// PortID identifies a port role together with the value type it carries.
// It's comparable and can be used as a map key.
type PortID struct {
	Role string
	Type value.Type
}

// Compatible reports if both ports carry the same value type.
func (id PortID) Compatible(other PortID) bool {
	return id.Type == other.Type
}

func (id PortID) String() string {
	return fmt.Sprintf("%s<%s>", id.Role, id.Type)
}

// Conversion is accepted by an input port for values of another type.
type Conversion struct {
	From    value.Type
	Convert value.ConvertFunc
}

// PortDescription is a static metadata of a single port.
type PortDescription struct {
	ID        PortID
	Name      string
	Direction Direction
	// Default supplies the value of unconnected input. Nil for outputs.
	Default func() value.Value
	// Conversions accepted by the input in addition to registered
	// type-general ones.
	Conversions []Conversion
	// Min and Max are edit hints for controllers. Zero range means no hint.
	Min, Max float64
	// Inspect formats value for the live display. String is used if nil.
	Inspect func(value.Value) string
}

// DefaultValue returns the port default or nil for outputs.
func (p PortDescription) DefaultValue() value.Value {
	if p.Default == nil {
		return nil
	}
	return p.Default()
}

// Format returns a display form of the value.
func (p PortDescription) Format(v value.Value) string {
	if v == nil {
		return "-"
	}
	if p.Inspect != nil {
		return p.Inspect(v)
	}
	return v.String()
}

// Port is implemented by typed ports.
type Port interface {
	ID() PortID
	Description() PortDescription
}

// Input is a typed input port role.
type Input[T value.Value] struct {
	desc PortDescription
}

// InputOption customizes input description.
type InputOption func(*PortDescription)

// NewInput declares an input role carrying T.
func NewInput[T value.Value](role, name string, def T, options ...InputOption) Input[T] {
	desc := PortDescription{
		ID:        PortID{Role: role, Type: value.TypeOf[T]()},
		Name:      name,
		Direction: In,
		Default:   func() value.Value { return def.Clone() },
	}
	for _, option := range options {
		option(&desc)
	}
	return Input[T]{desc: desc}
}

// Accept allows the input to receive values of type F.
func Accept[F, T value.Value](fn func(F) T) InputOption {
	return func(d *PortDescription) {
		d.Conversions = append(d.Conversions, Conversion{
			From:    value.TypeOf[F](),
			Convert: value.Converter(fn),
		})
	}
}

// Range sets edit hint.
func Range(min, max float64) InputOption {
	return func(d *PortDescription) {
		d.Min, d.Max = min, max
	}
}

// Inspect sets display formatter.
func Inspect(fn func(value.Value) string) InputOption {
	return func(d *PortDescription) {
		d.Inspect = fn
	}
}

// ID implements Port.
func (in Input[T]) ID() PortID { return in.desc.ID }

// Description implements Port.
func (in Input[T]) Description() PortDescription { return in.desc }

// Default returns a fresh default value.
func (in Input[T]) Default() T {
	return in.desc.Default().(T)
}

// Output is a typed output port role.
type Output[T value.Value] struct {
	desc PortDescription
}

// NewOutput declares an output role carrying T.
func NewOutput[T value.Value](role, name string) Output[T] {
	return Output[T]{
		desc: PortDescription{
			ID:        PortID{Role: role, Type: value.TypeOf[T]()},
			Name:      name,
			Direction: Out,
		},
	}
}

// ID implements Port.
func (out Output[T]) ID() PortID { return out.desc.ID }

// Description implements Port.
func (out Output[T]) Description() PortDescription { return out.desc }
