package weightfile

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Params are the float32 parameters of one Dense layer read back from a
// weight file.
type Params struct {
	Shape
	// Weights is row-major in×out: Weights[i*Out+j] connects input i to
	// output neuron j.
	Weights []float32
	Biases  []float32
}

// Weight returns the weight from input i into output neuron j.
func (p *Params) Weight(i, j int) float32 { return p.Weights[i*p.Out+j] }

// Decode parses a weight file laid out for shapes. The file must hold
// exactly LineCount(shapes) values.
func Decode(r io.Reader, shapes []Shape) ([]Params, error) {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() (float32, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, errors.Wrap(err, "read")
			}
			return 0, errors.Errorf("unexpected end of file after %d lines, want %d", line, LineCount(shapes))
		}
		line++
		text := strings.TrimSpace(sc.Text())
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return 0, errors.Wrapf(err, "line %d", line)
		}
		return float32(v), nil
	}

	params := make([]Params, len(shapes))
	for k, s := range shapes {
		if s.In <= 0 || s.Out <= 0 {
			return nil, errors.Errorf("layer %d: invalid shape %dx%d", k, s.In, s.Out)
		}
		p := Params{
			Shape:   s,
			Weights: make([]float32, s.In*s.Out),
			Biases:  make([]float32, s.Out),
		}
		for j := 0; j < s.Out; j++ {
			b, err := next()
			if err != nil {
				return nil, err
			}
			p.Biases[j] = b
			for i := 0; i < s.In; i++ {
				w, err := next()
				if err != nil {
					return nil, err
				}
				p.Weights[i*s.Out+j] = w
			}
		}
		params[k] = p
	}

	for sc.Scan() {
		line++
		if strings.TrimSpace(sc.Text()) != "" {
			return nil, errors.Errorf("line %d: trailing data, want %d lines", line, LineCount(shapes))
		}
	}
	return params, errors.Wrap(sc.Err(), "read")
}

// ReadFile decodes the weight file at path.
func ReadFile(path string, shapes []Shape) ([]Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	params, err := Decode(f, shapes)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return params, nil
}
