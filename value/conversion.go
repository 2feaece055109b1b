package value

import "fmt"

// ConvertFunc adapts a value of one type to another. It must be pure.
type ConvertFunc func(Value) Value

// Converter wraps typed adapter into ConvertFunc. The returned function
// panics if it receives a value of unexpected type, which means the
// registry was populated with a mismatched entry.
func Converter[F, T Value](fn func(F) T) ConvertFunc {
	return func(v Value) Value {
		from, ok := v.(F)
		if !ok {
			panic(fmt.Sprintf("conversion expects %s, got %s", TypeOf[F](), v.Type()))
		}
		return fn(from)
	}
}

// conversionKey identifies registered conversion. Empty role means the
// conversion applies to any port of the destination type.
type conversionKey struct {
	from Type
	to   Type
	role string
}

// Conversions is a registry of adapters between value types. Port-specific
// entries take precedence over type-general ones. It's not safe for
// concurrent use.
type Conversions struct {
	m map[conversionKey]ConvertFunc
}

// NewConversions returns an empty registry.
func NewConversions() *Conversions {
	return &Conversions{m: make(map[conversionKey]ConvertFunc)}
}

// Register adds conversion from one type to another. Role restricts the
// conversion to the port role, empty role registers a type-general entry.
// Registering the same key again replaces the previous entry.
func (c *Conversions) Register(from, to Type, role string, fn ConvertFunc) {
	c.m[conversionKey{from: from, to: to, role: role}] = fn
}

// Lookup returns conversion for the port role. Port-specific entry is
// tried first, then the type-general one.
func (c *Conversions) Lookup(from, to Type, role string) (ConvertFunc, bool) {
	if c == nil {
		return nil, false
	}
	if role != "" {
		if fn, ok := c.m[conversionKey{from: from, to: to, role: role}]; ok {
			return fn, true
		}
	}
	fn, ok := c.m[conversionKey{from: from, to: to}]
	return fn, ok
}

// Has reports if value of type from can be delivered to the port role of
// type to.
func (c *Conversions) Has(from, to Type, role string) bool {
	if from == to {
		return true
	}
	_, ok := c.Lookup(from, to, role)
	return ok
}

// Convert adapts v to the type. Values of matching type are returned as is.
func (c *Conversions) Convert(v Value, to Type, role string) (Value, bool) {
	if v.Type() == to {
		return v, true
	}
	fn, ok := c.Lookup(v.Type(), to, role)
	if !ok {
		return nil, false
	}
	return fn(v), true
}

// Len returns number of registered entries.
func (c *Conversions) Len() int {
	return len(c.m)
}

// RegisterDefaults adds the type-general conversions between built-in
// scalar types.
func RegisterDefaults(c *Conversions) {
	c.Register(BoolType, FloatType, "", Converter(func(b Bool) Float {
		return Float(b.Preview())
	}))
	c.Register(FloatType, BoolType, "", Converter(func(f Float) Bool {
		return f > 0
	}))
}
