package modules

import (
	"fmt"

	"github.com/dudk/rack/module"
	"github.com/dudk/rack/value"
)

// Operator of the operation module.
type Operator int

const (
	// Add sums operands.
	Add Operator = iota
	// Sub subtracts b from a.
	Sub
	// Mul multiplies operands.
	Mul
	// Div divides a by b. Division by zero results in zero.
	Div
)

var operatorNames = [...]string{"add", "sub", "mul", "div"}

func (o Operator) String() string {
	if o < 0 || int(o) >= len(operatorNames) {
		return fmt.Sprintf("operator(%d)", int(o))
	}
	return operatorNames[o]
}

// Apply returns the result of operator.
func (o Operator) Apply(a, b float64) float64 {
	switch o {
	case Sub:
		return a - b
	case Mul:
		return a * b
	case Div:
		if b == 0 {
			return 0
		}
		return a / b
	}
	return a + b
}

var (
	// OperationA is the left operand.
	OperationA = module.NewInput("operation.a", "A", value.Float(0))
	// OperationB is the right operand.
	OperationB = module.NewInput("operation.b", "B", value.Float(0))
	// OperationOut is the result.
	OperationOut = module.NewOutput[value.Float]("operation.out", "Out")

	// OperationModule applies arithmetic operator to its inputs.
	OperationModule = module.Describe("operation", "Operation", func() module.Module {
		return &Operation{}
	}).Input(OperationA, OperationB).Output(OperationOut)
)

// Operation applies Operator to inputs.
type Operation struct {
	Operator Operator
}

// Process implements module.Module.
func (o *Operation) Process(ctx module.Context) {
	a, b := module.Get(ctx, OperationA), module.Get(ctx, OperationB)
	module.Set(ctx, OperationOut, value.Float(o.Operator.Apply(float64(a), float64(b))))
}

// Describe implements module.Describer.
func (o *Operation) Describe() string {
	return o.Operator.String()
}
