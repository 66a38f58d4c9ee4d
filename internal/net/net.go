// Package net provides the sequential digit classifier, its trainer and
// its evaluator.
package net

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/nesai/digitmlp/internal/layer"
	"github.com/nesai/digitmlp/internal/opt"
)

// Sequential is an ordered stack of layers with a fixed input width.
type Sequential struct {
	layers []layer.Layer
	inSize int
}

// NewSequential validates the layer chain and returns the model.
// Each Dense layer's input size must equal the width produced by the
// layers before it; Activation and Dropout pass the width through.
func NewSequential(inSize int, layers ...layer.Layer) (*Sequential, error) {
	if inSize <= 0 {
		return nil, errors.Errorf("net: input size must be > 0 (got %d)", inSize)
	}
	width := inSize
	for i, l := range layers {
		if d, ok := l.(*layer.Dense); ok && d.InSize() != width {
			return nil, errors.Errorf("net: layer %d expects %d inputs but receives %d", i, d.InSize(), width)
		}
		width = l.OutSize(width)
	}
	return &Sequential{layers: layers, inSize: inSize}, nil
}

// Layers returns the model's layers in declaration order.
func (s *Sequential) Layers() []layer.Layer {
	return s.layers
}

// InputSize returns the feature vector length the model accepts.
func (s *Sequential) InputSize() int { return s.inSize }

// OutputSize returns the width of the model's output rows.
func (s *Sequential) OutputSize() int {
	width := s.inSize
	for _, l := range s.layers {
		width = l.OutSize(width)
	}
	return width
}

// DenseLayers returns the parameter-owning layers in order.
func (s *Sequential) DenseLayers() []*layer.Dense {
	var out []*layer.Dense
	for _, l := range s.layers {
		if d, ok := l.(*layer.Dense); ok {
			out = append(out, d)
		}
	}
	return out
}

// Forward performs a forward pass through all layers.
func (s *Sequential) Forward(x *mat.Dense, training bool) *mat.Dense {
	curr := x
	for _, l := range s.layers {
		curr = l.Forward(curr, training)
	}
	return curr
}

// Backward performs a backward pass through all layers, leaving the
// parameter gradients in each layer.
func (s *Sequential) Backward(grad *mat.Dense) *mat.Dense {
	curr := grad
	for i := len(s.layers) - 1; i >= 0; i-- {
		curr = s.layers[i].Backward(curr)
	}
	return curr
}

// Predict returns class probabilities with dropout disabled.
func (s *Sequential) Predict(x *mat.Dense) *mat.Dense {
	return s.Forward(x, false)
}

// Params returns all learnable parameters in layer order.
func (s *Sequential) Params() []opt.Param {
	var params []opt.Param
	for _, l := range s.layers {
		params = append(params, l.Params()...)
	}
	return params
}

// ParamCount returns the number of learnable scalars.
func (s *Sequential) ParamCount() int {
	n := 0
	for _, p := range s.Params() {
		n += len(p.Value)
	}
	return n
}
