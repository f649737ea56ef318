package nn

import (
	"fmt"

	"github.com/born-ml/lazyopt/internal/graph"
	"github.com/born-ml/lazyopt/internal/tensor"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewEmbedding(vocab, 32, rng),
//	    nn.NewTanh(),
//	    nn.NewLinear(32, 1, rng),
//	)
//
//	pred := model.Forward(ids)
type Sequential struct {
	modules []Module
}

// NewSequential creates a new Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{modules: modules}
}

// Forward applies all modules in sequence.
func (s *Sequential) Forward(input *graph.Node) *graph.Node {
	output := input
	for _, module := range s.modules {
		output = module.Forward(output)
	}
	return output
}

// Parameters returns all trainable parameters from all modules, in module order.
func (s *Sequential) Parameters() []*graph.Variable {
	var params []*graph.Variable
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// Add appends a module to the sequence.
func (s *Sequential) Add(module Module) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Module(index int) Module {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// StateDict returns the current parameter values by name.
//
// Names are prefixed with their module index (e.g., "0.embedding.weight",
// "2.linear.bias") to avoid name collisions.
func (s *Sequential) StateDict() map[string]*tensor.Tensor[float32] {
	stateDict := make(map[string]*tensor.Tensor[float32])
	for i, module := range s.modules {
		for _, p := range module.Parameters() {
			stateDict[fmt.Sprintf("%d.%s", i, p.Name())] = p.Value()
		}
	}
	return stateDict
}

// LoadStateDict assigns parameter values from a state dictionary.
//
// Every parameter must be present with its current shape; extra entries are
// an error too, so a checkpoint of a different model is never half-loaded.
func (s *Sequential) LoadStateDict(stateDict map[string]*tensor.Tensor[float32]) error {
	type pending struct {
		param *graph.Variable
		value *tensor.Tensor[float32]
	}
	assign := make([]pending, 0, len(stateDict))
	for i, module := range s.modules {
		for _, p := range module.Parameters() {
			key := fmt.Sprintf("%d.%s", i, p.Name())
			value, ok := stateDict[key]
			if !ok {
				return fmt.Errorf("missing parameter %q", key)
			}
			if !value.Shape().Equal(p.Shape()) {
				return fmt.Errorf("parameter %q: %w: got %v, want %v", key, tensor.ErrShapeMismatch, value.Shape(), p.Shape())
			}
			assign = append(assign, pending{param: p, value: value})
		}
	}
	if len(assign) != len(stateDict) {
		return fmt.Errorf("state dict has %d entries, model has %d parameters", len(stateDict), len(assign))
	}

	for _, a := range assign {
		if err := a.param.Assign(a.value.Clone()); err != nil {
			return err
		}
	}
	return nil
}
