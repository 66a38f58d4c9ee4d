package layer

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/nesai/digitmlp/internal/opt"
)

// Dropout implements inverted dropout regularization.
// During training, each input is zeroed with probability Rate and the
// survivors are scaled by 1/(1-Rate). During inference, passes inputs
// through unchanged.
type Dropout struct {
	Rate float64

	rng  *rand.Rand
	mask *mat.Dense // nil when the last Forward was not training
}

// NewDropout creates a dropout layer drawing its masks from rng.
func NewDropout(rate float64, rng *rand.Rand) *Dropout {
	if rate < 0 || rate >= 1 {
		panic(fmt.Sprintf("layer: dropout rate %v outside [0,1)", rate))
	}
	return &Dropout{Rate: rate, rng: rng}
}

// Forward masks x when training; otherwise x is returned as is.
func (d *Dropout) Forward(x *mat.Dense, training bool) *mat.Dense {
	if !training || d.Rate == 0 {
		d.mask = nil
		return x
	}

	rows, cols := x.Dims()
	scale := 1 / (1 - d.Rate)
	d.mask = mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		row := d.mask.RawRowView(i)
		for j := range row {
			if d.rng.Float64() >= d.Rate {
				row[j] = scale
			}
		}
	}

	out := mat.NewDense(rows, cols, nil)
	out.MulElem(x, d.mask)
	return out
}

// Backward routes the gradient through the surviving units.
func (d *Dropout) Backward(grad *mat.Dense) *mat.Dense {
	if d.mask == nil {
		return grad
	}
	rows, cols := grad.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.MulElem(grad, d.mask)
	return out
}

// Params returns nil.
func (d *Dropout) Params() []opt.Param { return nil }

// OutSize passes the shape through.
func (d *Dropout) OutSize(in int) int { return in }

func (*Dropout) sealed() {}
