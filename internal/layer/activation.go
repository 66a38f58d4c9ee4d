package layer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/nesai/digitmlp/internal/activations"
	"github.com/nesai/digitmlp/internal/opt"
)

// Activation applies an activation function. It has no parameters.
type Activation struct {
	Func activations.Activation

	output *mat.Dense
}

// NewActivation wraps fn as a layer.
func NewActivation(fn activations.Activation) *Activation {
	return &Activation{Func: fn}
}

// Forward applies the activation to every row.
func (a *Activation) Forward(x *mat.Dense, _ bool) *mat.Dense {
	a.output = a.Func.Activate(x)
	return a.output
}

// Backward delegates to the activation's derivative.
func (a *Activation) Backward(grad *mat.Dense) *mat.Dense {
	if a.output == nil {
		panic("layer: activation Backward called before Forward")
	}
	return a.Func.Backward(a.output, grad)
}

// Params returns nil.
func (a *Activation) Params() []opt.Param { return nil }

// OutSize passes the shape through.
func (a *Activation) OutSize(in int) int { return in }

func (*Activation) sealed() {}
