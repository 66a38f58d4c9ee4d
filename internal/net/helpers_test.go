package net

import (
	"image"
	"math/rand"

	"github.com/nesai/digitmlp/internal/dataset"
)

// syntheticSplit returns n digit images where label k lights up the
// k-th 4×4 cell of the 28×28 canvas, so the 7×7 features separate
// the classes cleanly.
func syntheticSplit(name string, n, classes int, rng *rand.Rand) dataset.Split {
	samples := make([]dataset.Sample, n)
	for i := range samples {
		label := i % classes
		img := image.NewGray(image.Rect(0, 0, 28, 28))
		for j := range img.Pix {
			img.Pix[j] = uint8(rng.Intn(20))
		}
		cx, cy := (label%7)*4, (label/7)*4
		for y := cy; y < cy+4; y++ {
			for x := cx; x < cx+4; x++ {
				img.Pix[y*img.Stride+x] = 255
			}
		}
		samples[i] = dataset.Sample{Image: img, Label: label}
	}
	return dataset.Split{Name: name, Samples: samples}
}

// snapshot copies all parameter values of m.
func snapshot(m *Sequential) [][]float64 {
	var out [][]float64
	for _, p := range m.Params() {
		out = append(out, append([]float64(nil), p.Value...))
	}
	return out
}
