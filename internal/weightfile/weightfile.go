// Package weightfile reads and writes the flat text weight file consumed
// by the fixed-point inference engine.
//
// The file holds one value per line, '\n'-terminated, with no header or
// footer. Dense layers appear in model order; within a layer, for each
// output neuron j the bias b[j] is followed by the weights W[0..in-1][j].
// Values are written as the shortest decimal text that parses back to the
// same float32, so a Dense(in→out) layer takes out*(1+in) lines.
package weightfile

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/nesai/digitmlp/internal/layer"
)

// Model is anything exposing an ordered layer sequence.
type Model interface {
	Layers() []layer.Layer
}

// Shape is the input and output size of one Dense layer.
type Shape struct {
	In, Out int
}

// Lines returns out*(1+in).
func (s Shape) Lines() int { return s.Out * (1 + s.In) }

// Shapes lists the Dense layer shapes of m in order.
func Shapes(m Model) []Shape {
	var shapes []Shape
	for _, l := range m.Layers() {
		if d, ok := l.(*layer.Dense); ok {
			shapes = append(shapes, Shape{In: d.InSize(), Out: d.OutSize(d.InSize())})
		}
	}
	return shapes
}

// Chain returns the shapes of Dense layers with the given successive
// widths, starting from the input width.
func Chain(widths ...int) []Shape {
	var shapes []Shape
	for k := 1; k < len(widths); k++ {
		shapes = append(shapes, Shape{In: widths[k-1], Out: widths[k]})
	}
	return shapes
}

// LineCount returns the number of lines a file with the given layer
// shapes has.
func LineCount(shapes []Shape) int {
	n := 0
	for _, s := range shapes {
		n += s.Lines()
	}
	return n
}

// FormatValue renders v as the shortest text that round-trips its
// float32 value.
func FormatValue(v float64) string {
	return strconv.FormatFloat(float64(float32(v)), 'g', -1, 32)
}

// Encode writes the parameters of m to w in the weight file layout.
// Activation and Dropout layers contribute nothing.
func Encode(w io.Writer, m Model) error {
	bw := bufio.NewWriter(w)
	for i, l := range m.Layers() {
		switch l := l.(type) {
		case *layer.Dense:
			if err := encodeDense(bw, l); err != nil {
				return errors.Wrapf(err, "layer %d", i)
			}
		case *layer.Activation, *layer.Dropout:
		default:
			return errors.Errorf("layer %d: unsupported layer %T", i, l)
		}
	}
	return errors.Wrap(bw.Flush(), "flush")
}

func encodeDense(w *bufio.Writer, d *layer.Dense) error {
	in, out := d.Weights.Dims()
	for j := 0; j < out; j++ {
		if err := writeLine(w, d.Biases[j]); err != nil {
			return err
		}
		for i := 0; i < in; i++ {
			if err := writeLine(w, d.Weights.At(i, j)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeLine(w *bufio.Writer, v float64) error {
	if _, err := w.WriteString(FormatValue(v)); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// FromModel returns the Dense parameters of m rounded to float32, the
// same values a round trip through the file yields.
func FromModel(m Model) []Params {
	var params []Params
	for _, l := range m.Layers() {
		d, ok := l.(*layer.Dense)
		if !ok {
			continue
		}
		in, out := d.Weights.Dims()
		p := Params{
			Shape:   Shape{In: in, Out: out},
			Weights: make([]float32, in*out),
			Biases:  make([]float32, out),
		}
		for i, v := range d.Weights.RawMatrix().Data {
			p.Weights[i] = float32(v)
		}
		for j, b := range d.Biases {
			p.Biases[j] = float32(b)
		}
		params = append(params, p)
	}
	return params
}
