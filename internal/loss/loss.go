// Package loss provides loss functions for classification training.
package loss

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Loss is a batch loss: one sample per row of yPred and yTrue.
type Loss interface {
	// Name is the Keras-style identifier.
	Name() string

	// Forward returns the mean loss over the batch.
	Forward(yPred, yTrue *mat.Dense) float64

	// Backward returns dL/dz for the mean loss, where z is the input
	// of the output activation.
	Backward(yPred, yTrue *mat.Dense) *mat.Dense
}

// Epsilon is the probability clip used to keep log finite.
const Epsilon = 1e-7

// CategoricalCrossEntropy loss for one-hot classification targets.
type CategoricalCrossEntropy struct{}

// Name returns "categorical_crossentropy".
func (CategoricalCrossEntropy) Name() string { return "categorical_crossentropy" }

// Forward computes mean(-sum(y_true * log(clip(y_pred)))).
func (c CategoricalCrossEntropy) Forward(yPred, yTrue *mat.Dense) float64 {
	rows, cols := checkDims("CategoricalCrossEntropy", yPred, yTrue)
	if rows == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < rows; i++ {
		p := yPred.RawRowView(i)
		y := yTrue.RawRowView(i)
		for j := 0; j < cols; j++ {
			if y[j] == 0 {
				continue
			}
			sum -= y[j] * math.Log(clip(p[j]))
		}
	}
	return sum / float64(rows)
}

// Backward computes gradient for cross entropy with softmax.
// For cross entropy + softmax, gradient simplifies to (y_pred - y_true),
// divided by the batch size because Forward is a mean.
func (c CategoricalCrossEntropy) Backward(yPred, yTrue *mat.Dense) *mat.Dense {
	rows, _ := checkDims("CategoricalCrossEntropy", yPred, yTrue)

	var grad mat.Dense
	grad.Sub(yPred, yTrue)
	if rows > 0 {
		grad.Scale(1/float64(rows), &grad)
	}
	return &grad
}

func clip(p float64) float64 {
	if p < Epsilon {
		return Epsilon
	}
	if p > 1-Epsilon {
		return 1 - Epsilon
	}
	return p
}

func checkDims(name string, a, b *mat.Dense) (int, int) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		panic(name + ": prediction and target must have same shape")
	}
	return ar, ac
}
