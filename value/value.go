// Package value defines the values that flow through rack ports and the
// registry of conversions between them.
//
// A value type is admitted to ports if it provides the small capability set
// of Value: a type tag, cloning, a human-readable form and a scalar preview.
// Ports of different value types can be connected only when a conversion
// between the two tags is registered.
package value

// Type tags a concrete value type.
type Type string

// Value is implemented by every type that can be carried by a port.
type Value interface {
	// Type returns the tag of the concrete type.
	Type() Type
	// Clone returns an independent copy of the value.
	Clone() Value
	// String returns a short human-readable form.
	String() string
	// Preview projects the value to a scalar for live display.
	Preview() float64
}

// TypeOf returns the type tag of T.
func TypeOf[T Value]() Type {
	var zero T
	return zero.Type()
}
