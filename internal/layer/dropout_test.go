package layer

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func ones(rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = 1
	}
	return mat.NewDense(rows, cols, data)
}

func TestDropoutForwardTraining(t *testing.T) {
	// Test that dropout zeros out neurons during training
	dropout := NewDropout(0.4, rand.New(rand.NewSource(42)))

	output := dropout.Forward(ones(10, 100), true)

	// Count non-zero outputs and check the survivors' scale
	nonZero := 0
	scale := 1 / (1 - 0.4)
	for _, v := range output.RawMatrix().Data {
		if v == 0 {
			continue
		}
		nonZero++
		if math.Abs(v-scale) > 1e-12 {
			t.Fatalf("surviving activation = %v, want %v", v, scale)
		}
	}

	// Approximately 60% should be non-zero; allow generous variance
	if nonZero < 520 || nonZero > 680 {
		t.Errorf("Expected ~600 non-zero outputs, got %d/1000", nonZero)
	}
}

func TestDropoutForwardInference(t *testing.T) {
	// Test that dropout passes inputs through unchanged during inference
	dropout := NewDropout(0.4, rand.New(rand.NewSource(42)))

	input := mat.NewDense(1, 100, nil)
	for i := 0; i < 100; i++ {
		input.Set(0, i, float64(i))
	}

	output := dropout.Forward(input, false)
	if !mat.Equal(output, input) {
		t.Error("inference output differs from input")
	}
	grad := ones(1, 100)
	if dropout.Backward(grad) != grad {
		t.Error("inference backward must pass the gradient through")
	}
}

func TestDropoutBackward(t *testing.T) {
	// Gradient flows only through the positions kept in Forward
	dropout := NewDropout(0.5, rand.New(rand.NewSource(3)))
	out := dropout.Forward(ones(2, 10), true)
	grad := dropout.Backward(ones(2, 10))

	if !mat.Equal(out, grad) {
		t.Errorf("gradient mask %v does not match forward mask %v",
			mat.Formatted(grad), mat.Formatted(out))
	}
}

func TestDropoutSeeded(t *testing.T) {
	a := NewDropout(0.4, rand.New(rand.NewSource(9))).Forward(ones(4, 24), true)
	b := NewDropout(0.4, rand.New(rand.NewSource(9))).Forward(ones(4, 24), true)
	if !mat.Equal(a, b) {
		t.Error("same seed produced different masks")
	}
}

func TestDropoutParams(t *testing.T) {
	dropout := NewDropout(0.4, rand.New(rand.NewSource(1)))
	if dropout.Params() != nil {
		t.Error("dropout must not own parameters")
	}
	if dropout.OutSize(24) != 24 {
		t.Errorf("OutSize(24) = %d", dropout.OutSize(24))
	}
}

func TestDropoutInvalidRate(t *testing.T) {
	for _, rate := range []float64{-0.1, 1, 1.5} {
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("rate %v: expected panic", rate)
				}
			}()
			NewDropout(rate, rand.New(rand.NewSource(1)))
		}()
	}
}
