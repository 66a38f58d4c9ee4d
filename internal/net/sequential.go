package net

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/nesai/digitmlp/internal/activations"
	"github.com/nesai/digitmlp/internal/layer"
)

// Architecture declares the classifier's shape.
type Architecture struct {
	InputSide   int     // downsampled image side; the input size is InputSide²
	Hidden1     int     // width of the first hidden layer
	Hidden2     int     // width of the second hidden layer
	NumClasses  int     // output width
	DropoutRate float64 // training-time drop probability after each hidden layer
}

// DefaultArchitecture is 49 → 24 → 24 → 10 with dropout 0.4.
func DefaultArchitecture() Architecture {
	return Architecture{
		InputSide:   7,
		Hidden1:     24,
		Hidden2:     24,
		NumClasses:  10,
		DropoutRate: 0.4,
	}
}

// InputSize returns InputSide².
func (a Architecture) InputSize() int { return a.InputSide * a.InputSide }

// Validate verifies the architecture can be built.
func (a Architecture) Validate() error {
	if a.InputSide <= 0 {
		return errors.Errorf("input side must be > 0 (got %d)", a.InputSide)
	}
	if a.Hidden1 <= 0 || a.Hidden2 <= 0 {
		return errors.Errorf("hidden widths must be > 0 (got %d, %d)", a.Hidden1, a.Hidden2)
	}
	if a.NumClasses < 2 {
		return errors.Errorf("class count must be >= 2 (got %d)", a.NumClasses)
	}
	if a.DropoutRate < 0 || a.DropoutRate >= 1 {
		return errors.Errorf("dropout rate must be in [0,1) (got %v)", a.DropoutRate)
	}
	return nil
}

// Build creates the model:
//
//	Dense(in→h1) → ReLU → Dropout → Dense(h1→h2) → ReLU → Dropout → Dense(h2→classes) → Softmax
//
// rng drives both weight initialization and the dropout masks.
func Build(a Architecture, rng *rand.Rand) (*Sequential, error) {
	if err := a.Validate(); err != nil {
		return nil, errors.Wrap(err, "net: invalid architecture")
	}
	return NewSequential(a.InputSize(),
		layer.NewDense(a.InputSize(), a.Hidden1, rng),
		layer.NewActivation(activations.ReLU{}),
		layer.NewDropout(a.DropoutRate, rng),
		layer.NewDense(a.Hidden1, a.Hidden2, rng),
		layer.NewActivation(activations.ReLU{}),
		layer.NewDropout(a.DropoutRate, rng),
		layer.NewDense(a.Hidden2, a.NumClasses, rng),
		layer.NewActivation(activations.Softmax{}),
	)
}

// layerInfo returns a display name and parameter count for l.
func layerInfo(l layer.Layer, i int) (string, int) {
	switch l := l.(type) {
	case *layer.Dense:
		return fmt.Sprintf("dense_%d", i), l.ParamCount()
	case *layer.Activation:
		return fmt.Sprintf("activation_%d (%s)", i, l.Func.Name()), 0
	case *layer.Dropout:
		return fmt.Sprintf("dropout_%d (%.2g)", i, l.Rate), 0
	default:
		return fmt.Sprintf("%T_%d", l, i), 0
	}
}

// Summary prints a summary of the network architecture.
func (s *Sequential) Summary(w io.Writer) {
	fmt.Fprintln(w, "Model: Sequential")
	fmt.Fprintln(w, "_________________________________________________________________")
	fmt.Fprintf(w, "%-30s %-20s %-10s\n", "Layer (type)", "Output Shape", "Param #")
	fmt.Fprintln(w, "=================================================================")

	totalParams := 0
	width := s.inSize
	for i, l := range s.layers {
		name, params := layerInfo(l, i)
		width = l.OutSize(width)
		totalParams += params

		fmt.Fprintf(w, "%-30s %-20s %-10d\n", name, fmt.Sprintf("(None, %d)", width), params)
	}
	fmt.Fprintln(w, "=================================================================")
	fmt.Fprintf(w, "Total params: %d\n", totalParams)
	fmt.Fprintln(w, "_________________________________________________________________")
}
