package optim

import (
	"github.com/born-ml/lazyopt/internal/graph"
)

// Adagrad adapts the learning rate per element by the history of squared gradients.
//
// Update rule:
//
//	accum = accum + gradient²
//	param = param - lr * gradient / (sqrt(accum) + eps)
type Adagrad struct {
	hyper
	eps     float32
	initial float32
}

// AdagradConfig holds configuration for Adagrad optimizer.
type AdagradConfig struct {
	LR                      float32 // Learning rate (default: 0.01)
	Eps                     float32 // Term for numerical stability (default: 1e-7)
	InitialAccumulatorValue float32 // Starting value of the accumulators (default: 0.1)
}

// NewAdagrad creates a new Adagrad optimizer.
func NewAdagrad(config AdagradConfig) *Adagrad {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Eps == 0 {
		config.Eps = 1e-7
	}
	if config.InitialAccumulatorValue == 0 {
		config.InitialAccumulatorValue = 0.1
	}

	return &Adagrad{
		hyper:   newHyper("Adagrad", config.LR),
		eps:     config.Eps,
		initial: config.InitialAccumulatorValue,
	}
}

// Updates builds one Adagrad step for params.
func (a *Adagrad) Updates(loss *graph.Node, params []*graph.Variable, opts ...UpdateOption) ([]graph.Update, error) {
	grads, err := a.gradients(loss, params)
	if err != nil {
		return nil, err
	}

	g := loss.Graph()
	lr := a.learningRate(g, collectOptions(opts))
	updates := make([]graph.Update, 0, 2*len(params))

	for i, param := range params {
		accum := a.slot("accumulator", param, a.initial)
		newAccum := graph.Add(g.Var(accum), graph.Square(grads[i]))
		step := graph.Div(graph.Mul(lr, grads[i]), graph.AddScalar(graph.Sqrt(newAccum), a.eps))

		updates = append(updates,
			graph.Update{Target: accum, Value: newAccum},
			graph.Update{Target: param, Value: graph.Sub(g.Var(param), step)},
		)
	}
	return updates, nil
}

// Config reports the Adagrad options.
func (a *Adagrad) Config() map[string]any {
	return map[string]any{
		"name":                      a.name,
		"learning_rate":             a.LearningRate(),
		"epsilon":                   a.eps,
		"initial_accumulator_value": a.initial,
	}
}
