package net

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/nesai/digitmlp/internal/dataset"
	"github.com/nesai/digitmlp/internal/loss"
	"github.com/nesai/digitmlp/internal/preprocess"
)

// Result is the outcome of an evaluation pass.
type Result struct {
	Loss     float64 // mean loss over all samples
	Accuracy float64 // fraction of arg-max predictions equal to the label
	Samples  int
}

// Evaluate computes loss and accuracy of m over split with dropout
// disabled. batchSize only groups the computation; the result does not
// depend on it beyond floating-point summation order. m is not mutated.
func Evaluate(m *Sequential, lossFn loss.Loss, pre *preprocess.Preprocessor, split dataset.Split, batchSize int) (Result, error) {
	if batchSize <= 0 {
		return Result{}, errors.Errorf("evaluate: batch size must be > 0 (got %d)", batchSize)
	}
	n := split.Len()
	if n == 0 {
		return Result{}, errors.Errorf("evaluate: %s split is empty", split.Name)
	}
	if err := preprocess.CheckRange(split, pre.NumClasses); err != nil {
		return Result{}, errors.Wrap(err, "evaluate")
	}

	var lossSum float64
	var correct int
	for lo := 0; lo < n; lo += batchSize {
		hi := lo + batchSize
		if hi > n {
			hi = n
		}
		x, y := pre.Batch(split.Samples[lo:hi])
		pred := m.Predict(x)
		lossSum += lossFn.Forward(pred, y) * float64(hi-lo)
		correct += countCorrect(pred, y)
	}

	return Result{
		Loss:     lossSum / float64(n),
		Accuracy: float64(correct) / float64(n),
		Samples:  n,
	}, nil
}

// Classify returns the arg-max class and the probability vector for one
// feature vector.
func (s *Sequential) Classify(features []float64) (int, []float64) {
	probs := s.Predict(mat.NewDense(1, len(features), features)).RawRowView(0)
	return floats.MaxIdx(probs), probs
}
