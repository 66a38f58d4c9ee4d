// Package opt provides optimization algorithms.
package opt

import "math"

// Param is one learnable tensor viewed as a flat slice.
// Value and Grad alias the owning layer's storage, so updates are in place.
type Param struct {
	Name  string
	Value []float64
	Grad  []float64
}

// Optimizer updates network parameters based on gradients.
type Optimizer interface {
	// Step applies one update to every param in place.
	// Callers must pass the params in the same order on every step.
	Step(params []Param)

	// Steps returns how many updates have been applied.
	Steps() int
}

// SGD (Stochastic Gradient Descent) optimizer.
type SGD struct {
	LearningRate float64

	steps int
}

// Step updates params in-place: params = params - lr * gradients
func (s *SGD) Step(params []Param) {
	for _, p := range params {
		for i := range p.Value {
			p.Value[i] -= s.LearningRate * p.Grad[i]
		}
	}
	s.steps++
}

// Steps returns the number of applied updates.
func (s *SGD) Steps() int { return s.steps }

// Adam optimizer, with the defaults Keras uses.
type Adam struct {
	LearningRate float64
	Beta1        float64 // Exponential decay rate for first moment
	Beta2        float64 // Exponential decay rate for second moment
	Epsilon      float64 // Small constant for numerical stability

	steps int
	m, v  [][]float64
}

// NewAdam creates a new Adam optimizer with default values.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
	}
}

// Step applies one bias-corrected Adam update.
func (a *Adam) Step(params []Param) {
	if a.m == nil {
		a.m = make([][]float64, len(params))
		a.v = make([][]float64, len(params))
		for i, p := range params {
			a.m[i] = make([]float64, len(p.Value))
			a.v[i] = make([]float64, len(p.Value))
		}
	}
	if len(params) != len(a.m) {
		panic("Adam: parameter list changed between steps")
	}

	a.steps++
	t := float64(a.steps)
	lr := a.LearningRate * math.Sqrt(1-math.Pow(a.Beta2, t)) / (1 - math.Pow(a.Beta1, t))

	for k, p := range params {
		m, v := a.m[k], a.v[k]
		if len(m) != len(p.Value) || len(p.Grad) != len(p.Value) {
			panic("Adam: parameter " + p.Name + " changed shape")
		}
		for i, g := range p.Grad {
			m[i] = a.Beta1*m[i] + (1-a.Beta1)*g
			v[i] = a.Beta2*v[i] + (1-a.Beta2)*g*g
			p.Value[i] -= lr * m[i] / (math.Sqrt(v[i]) + a.Epsilon)
		}
	}
}

// Steps returns the number of applied updates.
func (a *Adam) Steps() int { return a.steps }
