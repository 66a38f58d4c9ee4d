// Package layer provides the layer variants of the digit classifier.
//
// The variant set is closed: Dense, Activation and Dropout. Only Dense
// owns learnable parameters. Code that needs to tell the variants apart
// (the exporter, the summary printer) uses a type switch.
package layer

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/nesai/digitmlp/internal/opt"
)

// Layer is a neural network layer operating on batches, one sample per row.
type Layer interface {
	// Forward runs the layer. training enables training-only behavior.
	Forward(x *mat.Dense, training bool) *mat.Dense

	// Backward maps dL/d(output) of the last Forward to dL/d(input)
	// and records parameter gradients.
	Backward(grad *mat.Dense) *mat.Dense

	// Params returns the learnable parameters; nil for stateless layers.
	Params() []opt.Param

	// OutSize returns the width of one output row given the input width.
	OutSize(in int) int

	sealed()
}

// Dense is a fully connected layer: y = x·W + b.
type Dense struct {
	// Weights has shape in×out: row i holds the weights from input i,
	// column j the weights into output neuron j.
	Weights *mat.Dense
	Biases  []float64

	inSize  int
	outSize int

	input *mat.Dense
	gradW *mat.Dense
	gradB []float64
}

// NewDense creates a dense layer with Glorot-uniform weights drawn from rng
// and zero biases.
func NewDense(in, out int, rng *rand.Rand) *Dense {
	if in <= 0 || out <= 0 {
		panic(fmt.Sprintf("layer: invalid dense shape %dx%d", in, out))
	}
	limit := math.Sqrt(6.0 / float64(in+out))
	weights := make([]float64, in*out)
	for i := range weights {
		weights[i] = (rng.Float64()*2 - 1) * limit
	}
	return NewDenseFrom(mat.NewDense(in, out, weights), make([]float64, out))
}

// NewDenseFrom wraps existing parameters. Weights must be in×len(biases).
func NewDenseFrom(weights *mat.Dense, biases []float64) *Dense {
	in, out := weights.Dims()
	if out != len(biases) {
		panic(fmt.Sprintf("layer: %d biases for %d outputs", len(biases), out))
	}
	// Param views rely on a contiguous backing slice.
	weights = mat.DenseCopyOf(weights)
	return &Dense{
		Weights: weights,
		Biases:  biases,
		inSize:  in,
		outSize: out,
		gradW:   mat.NewDense(in, out, nil),
		gradB:   make([]float64, out),
	}
}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int { return d.inSize }

// OutSize returns the number of output neurons.
func (d *Dense) OutSize(int) int { return d.outSize }

// Weight returns the weight from input i into output neuron j.
func (d *Dense) Weight(i, j int) float64 { return d.Weights.At(i, j) }

// Forward computes x·W + b for every row of x.
func (d *Dense) Forward(x *mat.Dense, _ bool) *mat.Dense {
	rows, cols := x.Dims()
	if cols != d.inSize {
		panic(fmt.Sprintf("layer: dense expects %d inputs, got %d", d.inSize, cols))
	}
	d.input = x

	out := mat.NewDense(rows, d.outSize, nil)
	out.Mul(x, d.Weights)
	for i := 0; i < rows; i++ {
		floats.Add(out.RawRowView(i), d.Biases)
	}
	return out
}

// Backward records dL/dW = xᵀ·grad and dL/db = Σ_rows grad,
// and returns dL/dx = grad·Wᵀ.
func (d *Dense) Backward(grad *mat.Dense) *mat.Dense {
	if d.input == nil {
		panic("layer: dense Backward called before Forward")
	}
	rows, _ := grad.Dims()

	d.gradW.Mul(d.input.T(), grad)
	for j := range d.gradB {
		d.gradB[j] = 0
	}
	for i := 0; i < rows; i++ {
		floats.Add(d.gradB, grad.RawRowView(i))
	}

	dx := mat.NewDense(rows, d.inSize, nil)
	dx.Mul(grad, d.Weights.T())
	return dx
}

// Params returns the weight matrix and bias vector as live views.
func (d *Dense) Params() []opt.Param {
	return []opt.Param{
		{Name: "kernel", Value: d.Weights.RawMatrix().Data, Grad: d.gradW.RawMatrix().Data},
		{Name: "bias", Value: d.Biases, Grad: d.gradB},
	}
}

// ParamCount returns in*out + out.
func (d *Dense) ParamCount() int {
	return d.inSize*d.outSize + d.outSize
}

func (*Dense) sealed() {}
