// Package infer runs the classifier in float32 directly from exported
// weight file parameters, the way the embedded engine does: ReLU after
// every hidden layer, softmax after the last.
package infer

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nesai/digitmlp/internal/weightfile"
)

// Network is a float32 feed-forward classifier.
type Network struct {
	layers []weightfile.Params
}

// New validates that the layers chain and returns the network.
func New(layers []weightfile.Params) (*Network, error) {
	if len(layers) == 0 {
		return nil, errors.New("infer: no layers")
	}
	for k := 1; k < len(layers); k++ {
		if layers[k].In != layers[k-1].Out {
			return nil, errors.Errorf("infer: layer %d takes %d inputs, layer %d yields %d",
				k, layers[k].In, k-1, layers[k-1].Out)
		}
	}
	return &Network{layers: layers}, nil
}

// Load reads a weight file laid out for shapes.
func Load(path string, shapes []weightfile.Shape) (*Network, error) {
	params, err := weightfile.ReadFile(path, shapes)
	if err != nil {
		return nil, err
	}
	return New(params)
}

// InputSize returns the expected input length.
func (n *Network) InputSize() int { return n.layers[0].In }

// OutputSize returns the number of classes.
func (n *Network) OutputSize() int { return n.layers[len(n.layers)-1].Out }

// Forward returns the class probabilities for input.
func (n *Network) Forward(input []float32) ([]float32, error) {
	if len(input) != n.InputSize() {
		return nil, errors.Errorf("infer: got %d inputs, want %d", len(input), n.InputSize())
	}
	curr := input
	last := len(n.layers) - 1
	for k := range n.layers {
		p := &n.layers[k]
		out := make([]float32, p.Out)
		for j := 0; j < p.Out; j++ {
			sum := p.Biases[j]
			for i, x := range curr {
				sum += x * p.Weight(i, j)
			}
			if k < last {
				sum = math32.Max(sum, 0)
			}
			out[j] = sum
		}
		curr = out
	}
	Softmax(curr)
	return curr, nil
}

// Classify returns the most probable class and the probabilities.
// Ties resolve to the lowest class index.
func (n *Network) Classify(input []float32) (int, []float32, error) {
	probs, err := n.Forward(input)
	if err != nil {
		return 0, nil, err
	}
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best, probs, nil
}

// Softmax replaces v with exp(v-max(v)) normalized to sum 1. A zero sum
// leaves the unnormalized exponentials in place.
func Softmax(v []float32) {
	if len(v) == 0 {
		return
	}
	hi := v[0]
	for _, x := range v[1:] {
		hi = math32.Max(hi, x)
	}
	var sum float32
	for i, x := range v {
		v[i] = math32.Exp(x - hi)
		sum += v[i]
	}
	if sum == 0 {
		sum = 1
	}
	for i := range v {
		v[i] /= sum
	}
}
