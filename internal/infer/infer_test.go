package infer

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/nesai/digitmlp/internal/net"
	"github.com/nesai/digitmlp/internal/weightfile"
)

// TestSoftmax tests normalization and stability.
func TestSoftmax(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
	}{
		{"zeros", []float32{0, 0, 0, 0}},
		{"mixed", []float32{1, 2, 3}},
		{"large", []float32{1000, 1001, 999}},
		{"negative", []float32{-1000, -1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := append([]float32(nil), tt.in...)
			Softmax(v)
			var sum float32
			for _, p := range v {
				assert.False(t, p < 0 || p > 1, "probability %v", p)
				sum += p
			}
			assert.InDelta(t, 1, sum, 1e-5)
		})
	}

	Softmax(nil)
}

// TestForwardMatchesModel tests that exported parameters reproduce the
// trained model's predictions.
func TestForwardMatchesModel(t *testing.T) {
	m, err := net.Build(net.DefaultArchitecture(), rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "weights.txt")
	require.NoError(t, weightfile.WriteFile(path, m))
	n, err := Load(path, weightfile.Shapes(m))
	require.NoError(t, err)
	assert.Equal(t, 49, n.InputSize())
	assert.Equal(t, 10, n.OutputSize())

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		x64 := make([]float64, 49)
		x32 := make([]float32, 49)
		for i := range x64 {
			x32[i] = float32(rng.Float64())
			x64[i] = float64(x32[i])
		}

		want := m.Predict(mat.NewDense(1, 49, x64)).RawRowView(0)
		got, err := n.Forward(x32)
		require.NoError(t, err)
		for j := range want {
			assert.InDelta(t, want[j], got[j], 1e-4, "trial %d class %d", trial, j)
		}
	}
}

// TestClassify tests the arg-max result.
func TestClassify(t *testing.T) {
	n, err := New([]weightfile.Params{{
		Shape:   weightfile.Shape{In: 1, Out: 3},
		Weights: []float32{1, -1, 0},
		Biases:  []float32{0, 0, 0.5},
	}})
	require.NoError(t, err)

	class, probs, err := n.Classify([]float32{2})
	require.NoError(t, err)
	assert.Equal(t, 0, class)
	assert.Len(t, probs, 3)

	class, _, err = n.Classify([]float32{-2})
	require.NoError(t, err)
	assert.Equal(t, 1, class)

	_, _, err = n.Classify([]float32{1, 2})
	assert.Error(t, err)
}

// TestNewRejectsBrokenChain tests layer chaining.
func TestNewRejectsBrokenChain(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]weightfile.Params{
		{Shape: weightfile.Shape{In: 2, Out: 3}},
		{Shape: weightfile.Shape{In: 4, Out: 1}},
	})
	assert.Error(t, err)
}
