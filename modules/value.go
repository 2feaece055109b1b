package modules

import (
	"github.com/dudk/rack/module"
	"github.com/dudk/rack/value"
)

var (
	// ValueOut is the constant.
	ValueOut = module.NewOutput[value.Float]("value.out", "Value")

	// ValueModule emits a constant set by controller.
	ValueModule = module.Describe("value", "Value", func() module.Module {
		return &Value{}
	}).Output(ValueOut)
)

// Value emits its Value every sample.
type Value struct {
	Value float64
}

// Process implements module.Module.
func (v *Value) Process(ctx module.Context) {
	module.Set(ctx, ValueOut, value.Float(v.Value))
}

// Describe implements module.Describer.
func (v *Value) Describe() string {
	return value.Float(v.Value).String()
}
