package weightfile

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestToFix16 tests 16.16 conversion.
func TestToFix16(t *testing.T) {
	tests := []struct {
		in   float32
		want int32
	}{
		{0, 0},
		{1, 65536},
		{-1, -65536},
		{0.5, 32768},
		{1.0 / 131072, 1}, // half a unit rounds away from zero
		{-1.0 / 131072, -1},
		{40000, math.MaxInt32},
		{-40000, math.MinInt32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToFix16(tt.in), "ToFix16(%v)", tt.in)
	}
}

// TestEncodeHeader tests macros and array layout.
func TestEncodeHeader(t *testing.T) {
	params := FromModel(tinyModel(t))

	var buf bytes.Buffer
	require.Error(t, EncodeHeader(&buf, params, 1), "2 inputs are not a 1×1 image")

	one := []Params{{
		Shape:   Shape{In: 1, Out: 2},
		Weights: []float32{0.5, -0.25},
		Biases:  []float32{1, 0},
	}}
	buf.Reset()
	require.NoError(t, EncodeHeader(&buf, one, 1))
	out := buf.String()

	for _, want := range []string{
		"#define MLP_INPUT_SIDE 1\n",
		"#define MLP_INPUT_SIZE 1\n",
		"#define MLP_LAYER1_INPUT_SIZE 1\n",
		"#define MLP_LAYER1_OUTPUT_SIZE 2\n",
		"#define MLP_OUTPUT_SIZE 2\n",
		"#define MLP_WEIGHTS_COUNT 4\n",
		"static const fix16_t WEIGHTS[MLP_WEIGHTS_COUNT] = {",
		"    65536, 32768,\n",
		"    0, -16384,\n",
		"#endif",
	} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 2, strings.Count(out, "neuron"))
}

// TestEncodeHeaderDefaultModel tests the macro set of the default network.
func TestEncodeHeaderDefaultModel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(&buf, FromModel(defaultModel(t, 42)), 7))
	out := buf.String()

	assert.Contains(t, out, "#define MLP_LAYER1_OUTPUT_SIZE 24\n")
	assert.Contains(t, out, "#define MLP_LAYER3_INPUT_SIZE 24\n")
	assert.Contains(t, out, "#define MLP_OUTPUT_SIZE 10\n")
	assert.Contains(t, out, "#define MLP_WEIGHTS_COUNT 2050\n")
	assert.Equal(t, 24+24+10, strings.Count(out, "/* layer"))
}

// TestEncodeHeaderEmpty tests rejection of an empty layer list.
func TestEncodeHeaderEmpty(t *testing.T) {
	assert.Error(t, EncodeHeader(&bytes.Buffer{}, nil, 7))
}
