// Package activations provides the activation functions used by the digit classifier.
package activations

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Activation is an activation function applied to a batch of
// pre-activations, one sample per row.
type Activation interface {
	// Name is the Keras-style identifier ("relu", "softmax").
	Name() string

	// Activate computes f(z) for every row of z.
	Activate(z *mat.Dense) *mat.Dense

	// Backward maps dL/da to dL/dz, given the activated output a.
	Backward(a, grad *mat.Dense) *mat.Dense
}

// ReLU activation function.
type ReLU struct{}

// Name returns "relu".
func (ReLU) Name() string { return "relu" }

// Activate computes max(0, x) elementwise.
func (r ReLU) Activate(z *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		return relu(v)
	}, z)
	return &out
}

// Backward passes the gradient where the output is positive.
func (r ReLU) Backward(a, grad *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(i, j int, g float64) float64 {
		if a.At(i, j) > 0 {
			return g
		}
		return 0
	}, grad)
	return &out
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Softmax activation function for the output layer.
//
// Backward is the identity: the trainer pairs Softmax with categorical
// cross-entropy, whose gradient is already taken w.r.t. the logits.
type Softmax struct{}

// Name returns "softmax".
func (Softmax) Name() string { return "softmax" }

// Activate computes a numerically stable softmax over each row.
func (s Softmax) Activate(z *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(z)
	rows, _ := out.Dims()
	for i := 0; i < rows; i++ {
		SoftmaxInPlace(out.RawRowView(i))
	}
	return out
}

// Backward returns grad unchanged.
func (s Softmax) Backward(_, grad *mat.Dense) *mat.Dense {
	return grad
}

// SoftmaxInPlace normalizes x into a probability distribution.
// The maximum is subtracted first so exp never overflows.
func SoftmaxInPlace(x []float64) []float64 {
	if len(x) == 0 {
		return x
	}
	maxVal := floats.Max(x)

	sum := 0.0
	for i := range x {
		x[i] = math.Exp(x[i] - maxVal)
		sum += x[i]
	}

	floats.Scale(1/sum, x)
	return x
}

// ByName returns the activation registered under name.
func ByName(name string) (Activation, bool) {
	switch name {
	case "relu":
		return ReLU{}, true
	case "softmax":
		return Softmax{}, true
	}
	return nil, false
}
