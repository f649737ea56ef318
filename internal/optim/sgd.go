package optim

import (
	"github.com/born-ml/lazyopt/internal/graph"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity - lr * gradient
//	param = param + velocity
//
// With Nesterov momentum the parameter step looks ahead:
//
//	param = param + momentum * velocity - lr * gradient
//
// Momentum helps accelerate SGD in relevant directions and dampens oscillations.
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
//	updates, err := optimizer.Updates(loss, params)
type SGD struct {
	hyper
	momentum float32
	nesterov bool
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
	Nesterov bool    // Use Nesterov momentum
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	// Set defaults
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD{
		hyper:    newHyper("SGD", config.LR),
		momentum: config.Momentum,
		nesterov: config.Nesterov,
	}
}

// Updates builds one SGD step for params.
func (s *SGD) Updates(loss *graph.Node, params []*graph.Variable, opts ...UpdateOption) ([]graph.Update, error) {
	grads, err := s.gradients(loss, params)
	if err != nil {
		return nil, err
	}

	g := loss.Graph()
	lr := s.learningRate(g, collectOptions(opts))
	updates := make([]graph.Update, 0, 2*len(params))

	for i, param := range params {
		p := g.Var(param)
		step := graph.Mul(lr, grads[i])

		if s.momentum == 0 {
			// Simple SGD: param -= lr * grad
			updates = append(updates, graph.Update{Target: param, Value: graph.Sub(p, step)})
			continue
		}

		velocity := s.slot("momentum", param, 0)
		v := graph.Sub(graph.Scale(g.Var(velocity), s.momentum), step)
		updates = append(updates, graph.Update{Target: velocity, Value: v})

		if s.nesterov {
			updates = append(updates, graph.Update{
				Target: param,
				Value:  graph.Sub(graph.Add(p, graph.Scale(v, s.momentum)), step),
			})
		} else {
			updates = append(updates, graph.Update{Target: param, Value: graph.Add(p, v)})
		}
	}
	return updates, nil
}

// Config reports the SGD options.
func (s *SGD) Config() map[string]any {
	return map[string]any{
		"name":          s.name,
		"learning_rate": s.LearningRate(),
		"momentum":      s.momentum,
		"nesterov":      s.nesterov,
	}
}
