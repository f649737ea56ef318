package graph

import (
	"fmt"
	"sync/atomic"

	"github.com/born-ml/lazyopt/internal/tensor"
)

// VarID identifies a variable for the lifetime of the process.
type VarID int64

var nextVarID atomic.Int64

// Variable is mutable state read by graphs and written by updates.
//
// Trainable variables are model parameters. Non-trainable variables hold
// optimizer state such as the learning rate, momentum slots and counters.
type Variable struct {
	id        VarID
	name      string
	value     *tensor.Tensor[float32]
	trainable bool
}

// NewVariable creates a trainable parameter.
func NewVariable(name string, value *tensor.Tensor[float32]) *Variable {
	return newVariable(name, value, true)
}

// NewState creates a non-trainable variable.
func NewState(name string, value *tensor.Tensor[float32]) *Variable {
	return newVariable(name, value, false)
}

func newVariable(name string, value *tensor.Tensor[float32], trainable bool) *Variable {
	if value == nil {
		panic(fmt.Sprintf("variable %q: nil value", name))
	}
	return &Variable{
		id:        VarID(nextVarID.Add(1)),
		name:      name,
		value:     value,
		trainable: trainable,
	}
}

// ID returns the variable's identifier.
func (v *Variable) ID() VarID {
	return v.id
}

// Name returns the variable name.
func (v *Variable) Name() string {
	return v.name
}

// Value returns the current value.
func (v *Variable) Value() *tensor.Tensor[float32] {
	return v.value
}

// Shape returns the shape of the current value.
func (v *Variable) Shape() tensor.Shape {
	return v.value.Shape()
}

// Trainable reports whether the variable is a model parameter.
func (v *Variable) Trainable() bool {
	return v.trainable
}

// Assign replaces the value. The shape must not change.
//
// The previous tensor is left untouched, so results evaluated before the
// assignment keep seeing the old value.
func (v *Variable) Assign(t *tensor.Tensor[float32]) error {
	if !t.Shape().Equal(v.value.Shape()) {
		return fmt.Errorf("assign %q: %w: got %v, want %v", v.name, tensor.ErrShapeMismatch, t.Shape(), v.value.Shape())
	}
	v.value = t
	return nil
}

// String returns the variable name and ID.
func (v *Variable) String() string {
	return fmt.Sprintf("%s(%d)", v.name, v.id)
}
