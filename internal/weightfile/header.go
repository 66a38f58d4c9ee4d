package weightfile

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ToFix16 converts v to a 16.16 fixed-point value, rounding half away
// from zero and saturating at the int32 range.
func ToFix16(v float32) int32 {
	r := math.Round(float64(v) * 65536)
	switch {
	case r >= math.MaxInt32:
		return math.MaxInt32
	case r <= math.MinInt32:
		return math.MinInt32
	}
	return int32(r)
}

// EncodeHeader writes a C header declaring the network sizes as MLP_*
// macros and the parameters as a fix16_t WEIGHTS array in weight file
// order. inputSide is the side of the square input image.
func EncodeHeader(w io.Writer, params []Params, inputSide int) error {
	if len(params) == 0 {
		return errors.New("header: no layers")
	}
	if inputSide*inputSide != params[0].In {
		return errors.Errorf("header: input side %d does not match %d inputs", inputSide, params[0].In)
	}

	bw := bufio.NewWriter(w)
	shapes := make([]Shape, len(params))
	for k, p := range params {
		shapes[k] = p.Shape
	}

	fmt.Fprintln(bw, "// Code generated by digitmlp-header. DO NOT EDIT.")
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "#ifndef MLP_WEIGHTS_H")
	fmt.Fprintln(bw, "#define MLP_WEIGHTS_H")
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "#include <fix16.h>")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "#define MLP_INPUT_SIDE %d\n", inputSide)
	fmt.Fprintf(bw, "#define MLP_INPUT_SIZE %d\n", params[0].In)
	for k, s := range shapes {
		fmt.Fprintf(bw, "#define MLP_LAYER%d_INPUT_SIZE %d\n", k+1, s.In)
		fmt.Fprintf(bw, "#define MLP_LAYER%d_OUTPUT_SIZE %d\n", k+1, s.Out)
	}
	fmt.Fprintf(bw, "#define MLP_OUTPUT_SIZE %d\n", shapes[len(shapes)-1].Out)
	fmt.Fprintf(bw, "#define MLP_WEIGHTS_COUNT %d\n", LineCount(shapes))
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "static const fix16_t WEIGHTS[MLP_WEIGHTS_COUNT] = {")

	for k, p := range params {
		for j := 0; j < p.Out; j++ {
			vals := make([]string, 0, 1+p.In)
			vals = append(vals, fmt.Sprint(ToFix16(p.Biases[j])))
			for i := 0; i < p.In; i++ {
				vals = append(vals, fmt.Sprint(ToFix16(p.Weight(i, j))))
			}
			fmt.Fprintf(bw, "    /* layer %d neuron %d */\n", k+1, j)
			fmt.Fprintf(bw, "    %s,\n", strings.Join(vals, ", "))
		}
	}

	fmt.Fprintln(bw, "};")
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "#endif // MLP_WEIGHTS_H")
	return errors.Wrap(bw.Flush(), "header: flush")
}

// WriteHeaderFile writes the C header for params to path atomically.
func WriteHeaderFile(path string, params []Params, inputSide int) error {
	return writeAtomic(path, func(f *os.File) error { return EncodeHeader(f, params, inputSide) })
}
