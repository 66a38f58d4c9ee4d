package net

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/nesai/digitmlp/internal/activations"
	"github.com/nesai/digitmlp/internal/layer"
)

func buildDefault(t *testing.T, seed int64) *Sequential {
	t.Helper()
	m, err := Build(DefaultArchitecture(), rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return m
}

// TestBuildDefaultShapes tests the default 49→24→24→10 layout.
func TestBuildDefaultShapes(t *testing.T) {
	m := buildDefault(t, 42)

	require.Len(t, m.Layers(), 8)
	assert.Equal(t, 49, m.InputSize())
	assert.Equal(t, 10, m.OutputSize())

	dense := m.DenseLayers()
	require.Len(t, dense, 3)
	shapes := [][2]int{{49, 24}, {24, 24}, {24, 10}}
	for i, d := range dense {
		r, c := d.Weights.Dims()
		assert.Equal(t, shapes[i], [2]int{r, c}, "dense %d", i)
		assert.Len(t, d.Biases, shapes[i][1])
	}
	assert.Equal(t, 1200+600+250, m.ParamCount())

	_, ok := m.Layers()[2].(*layer.Dropout)
	assert.True(t, ok, "layer 2 should be dropout")
	act, ok := m.Layers()[7].(*layer.Activation)
	require.True(t, ok)
	assert.Equal(t, "softmax", act.Func.Name())
}

// TestBuildSameSeedSameWeights tests that initialization depends only on the seed.
func TestBuildSameSeedSameWeights(t *testing.T) {
	a, b := buildDefault(t, 7), buildDefault(t, 7)
	assert.Equal(t, snapshot(a), snapshot(b))

	c := buildDefault(t, 8)
	assert.NotEqual(t, snapshot(a), snapshot(c))
}

// TestBuildInvalidArchitecture tests architecture validation.
func TestBuildInvalidArchitecture(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Architecture)
	}{
		{"zero side", func(a *Architecture) { a.InputSide = 0 }},
		{"zero hidden", func(a *Architecture) { a.Hidden2 = 0 }},
		{"one class", func(a *Architecture) { a.NumClasses = 1 }},
		{"dropout one", func(a *Architecture) { a.DropoutRate = 1 }},
		{"negative dropout", func(a *Architecture) { a.DropoutRate = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := DefaultArchitecture()
			tt.modify(&a)
			_, err := Build(a, rand.New(rand.NewSource(1)))
			assert.Error(t, err)
		})
	}
}

// TestNewSequentialRejectsBrokenChain tests Dense width validation.
func TestNewSequentialRejectsBrokenChain(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := NewSequential(4,
		layer.NewDense(4, 3, rng),
		layer.NewActivation(activations.ReLU{}),
		layer.NewDense(5, 2, rng),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layer 2")

	_, err = NewSequential(0)
	assert.Error(t, err)
}

// TestPredictAllZeroInput tests that the all-zero image yields a distribution.
func TestPredictAllZeroInput(t *testing.T) {
	m := buildDefault(t, 42)
	out := m.Predict(mat.NewDense(1, 49, nil))

	row := out.RawRowView(0)
	require.Len(t, row, 10)
	for _, p := range row {
		assert.True(t, p >= 0 && p <= 1, "probability %v out of range", p)
	}
	assert.InDelta(t, 1.0, floats.Sum(row), 1e-9)
}

// TestPredictIgnoresDropout tests that inference is deterministic.
func TestPredictIgnoresDropout(t *testing.T) {
	m := buildDefault(t, 3)
	x := mat.NewDense(2, 49, nil)
	for i := 0; i < 49; i++ {
		x.Set(0, i, float64(i)/49)
		x.Set(1, i, 1-float64(i)/49)
	}

	first := mat.DenseCopyOf(m.Predict(x))
	m.Forward(x, true)
	second := m.Predict(x)
	assert.True(t, mat.Equal(first, second))
}

// TestBackwardShape tests that the input gradient matches the batch.
func TestBackwardShape(t *testing.T) {
	m := buildDefault(t, 5)
	x := mat.NewDense(3, 49, nil)
	out := m.Forward(x, true)

	r, c := out.Dims()
	grad := m.Backward(mat.NewDense(r, c, nil))
	gr, gc := grad.Dims()
	assert.Equal(t, [2]int{3, 49}, [2]int{gr, gc})
}

// TestClassify tests single-sample classification.
func TestClassify(t *testing.T) {
	m := buildDefault(t, 9)
	class, probs := m.Classify(make([]float64, 49))

	assert.Len(t, probs, 10)
	assert.Equal(t, floats.MaxIdx(probs), class)
}

// TestSummary tests the summary table.
func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	buildDefault(t, 42).Summary(&buf)

	out := buf.String()
	assert.Contains(t, out, "dense_0")
	assert.Contains(t, out, "(None, 24)")
	assert.Contains(t, out, "dropout_2 (0.4)")
	assert.Contains(t, out, "activation_7 (softmax)")
	assert.Contains(t, out, "Total params: 2050")
}

// TestDot tests the Graphviz rendering.
func TestDot(t *testing.T) {
	dot, err := buildDefault(t, 42).Dot()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(strings.TrimSpace(dot), "digraph model"))
	assert.Contains(t, dot, "input->layer0")
	assert.Contains(t, dot, "layer6->layer7")
	assert.Contains(t, dot, `"Dense 49→24"`)
	assert.Equal(t, 8, strings.Count(dot, "->"))
}

// TestParamsAreFinite tests that freshly built weights are finite and bounded.
func TestParamsAreFinite(t *testing.T) {
	for _, d := range buildDefault(t, 11).DenseLayers() {
		in, out := d.Weights.Dims()
		limit := math.Sqrt(6.0 / float64(in+out))
		for _, w := range d.Weights.RawMatrix().Data {
			assert.False(t, math.IsNaN(w))
			assert.LessOrEqual(t, math.Abs(w), limit)
		}
	}
}
