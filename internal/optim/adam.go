package optim

import (
	"github.com/born-ml/lazyopt/internal/graph"
	"github.com/born-ml/lazyopt/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Adam combines ideas from RMSprop and momentum:
//   - Maintains exponential moving averages of gradients (first moment)
//   - Maintains exponential moving averages of squared gradients (second moment)
//   - Applies bias correction to compensate for initialization at zero
//
// Update rule:
//
//	t = iterations + 1
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	lr_t = lr * sqrt(1 - beta2^t) / (1 - beta1^t)      // Bias correction
//	param = param - lr_t * m_t / (sqrt(v_t) + eps)     // Parameter update
//
// The iteration counter is assigned t rather than incremented, so several
// update sets built for the same step agree on it.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float32{0.9, 0.999},
//	    Eps:   1e-8,
//	})
type Adam struct {
	hyper
	beta1      float32
	beta2      float32
	eps        float32
	iterations *graph.Variable // Timestep for bias correction
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(config AdamConfig) *Adam {
	// Set defaults
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		hyper:      newHyper("Adam", config.LR),
		beta1:      config.Betas[0],
		beta2:      config.Betas[1],
		eps:        config.Eps,
		iterations: graph.NewState("Adam.iterations", tensor.Scalar[float32](0)),
	}
}

// Updates builds one Adam step for params, including the counter update.
func (a *Adam) Updates(loss *graph.Node, params []*graph.Variable, opts ...UpdateOption) ([]graph.Update, error) {
	grads, err := a.gradients(loss, params)
	if err != nil {
		return nil, err
	}

	g := loss.Graph()
	t := graph.AddScalar(g.Var(a.iterations), 1)
	updates := make([]graph.Update, 0, 1+3*len(params))
	updates = append(updates, graph.Update{Target: a.iterations, Value: t})

	// lr_t = lr * sqrt(1 - beta2^t) / (1 - beta1^t)
	correction1 := graph.AddScalar(graph.Neg(graph.PowBase(a.beta1, t)), 1)
	correction2 := graph.AddScalar(graph.Neg(graph.PowBase(a.beta2, t)), 1)
	lrT := graph.Div(graph.Mul(a.learningRate(g, collectOptions(opts)), graph.Sqrt(correction2)), correction1)

	for i, param := range params {
		grad := grads[i]
		m := a.slot("m", param, 0)
		v := a.slot("v", param, 0)

		mT := graph.Add(graph.Scale(g.Var(m), a.beta1), graph.Scale(grad, 1-a.beta1))
		vT := graph.Add(graph.Scale(g.Var(v), a.beta2), graph.Scale(graph.Square(grad), 1-a.beta2))
		step := graph.Div(graph.Mul(lrT, mT), graph.AddScalar(graph.Sqrt(vT), a.eps))

		updates = append(updates,
			graph.Update{Target: m, Value: mT},
			graph.Update{Target: v, Value: vT},
			graph.Update{Target: param, Value: graph.Sub(g.Var(param), step)},
		)
	}
	return updates, nil
}

// Timestep returns the number of steps applied so far.
func (a *Adam) Timestep() int {
	return int(a.iterations.Value().Item())
}

// Config reports the Adam options.
func (a *Adam) Config() map[string]any {
	return map[string]any{
		"name":          a.name,
		"learning_rate": a.LearningRate(),
		"beta_1":        a.beta1,
		"beta_2":        a.beta2,
		"epsilon":       a.eps,
	}
}
