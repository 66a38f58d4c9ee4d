// Package preprocess turns digit samples into network inputs and targets.
//
// Images are resized with golang.org/x/image/draw.ApproxBiLinear: each
// target pixel samples the source at its half-pixel-aligned centre,
//
//	sx = (dx+0.5)*srcW/dstW - 0.5
//
// and interpolates bilinearly between the four neighbours, clamping at
// the border. This is the un-antialiased bilinear resize of common
// training frameworks. For 28×28 → 7×7 every target pixel is the mean
// of source pixels {4i+1, 4i+2}×{4j+1, 4j+2}. The interpolation runs at
// 16-bit precision and is then scaled to [0,1]; an inference consumer must
// apply the same rule to its inputs.
package preprocess

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"

	"github.com/nesai/digitmlp/internal/dataset"
)

// Preprocessor converts samples to fixed-size feature and label vectors.
type Preprocessor struct {
	// Side is the target resolution; features have Side*Side entries.
	Side int
	// NumClasses is the one-hot length.
	NumClasses int
}

// New returns a preprocessor for side×side inputs and numClasses labels.
func New(side, numClasses int) *Preprocessor {
	if side <= 0 || numClasses <= 0 {
		panic(fmt.Sprintf("preprocess: invalid side %d or class count %d", side, numClasses))
	}
	return &Preprocessor{Side: side, NumClasses: numClasses}
}

// InputSize returns the feature vector length.
func (p *Preprocessor) InputSize() int { return p.Side * p.Side }

// Features resizes img to Side×Side, flattens it row-major and scales
// intensities from [0,255] to [0,1]. Color images are reduced to
// luminance by the image package's gray model.
func (p *Preprocessor) Features(img image.Image) []float64 {
	out := make([]float64, p.InputSize())
	p.featuresInto(out, img)
	return out
}

func (p *Preprocessor) featuresInto(out []float64, img image.Image) {
	dst := image.NewGray16(image.Rect(0, 0, p.Side, p.Side))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	for y := 0; y < p.Side; y++ {
		for x := 0; x < p.Side; x++ {
			out[y*p.Side+x] = float64(dst.Gray16At(x, y).Y) / 0xffff
		}
	}
}

// OneHot returns the one-hot encoding of label.
func (p *Preprocessor) OneHot(label int) []float64 {
	return OneHot(label, p.NumClasses)
}

// OneHot returns a vector of numClasses zeros with a 1 at label.
// It panics if label is out of range; CheckLabels guards the public path.
func OneHot(label, numClasses int) []float64 {
	if label < 0 || label >= numClasses {
		panic(fmt.Sprintf("preprocess: label %d outside [0,%d)", label, numClasses))
	}
	v := make([]float64, numClasses)
	v[label] = 1
	return v
}

// Batch stacks the features and one-hot labels of samples into matrices
// with one row per sample.
func (p *Preprocessor) Batch(samples []dataset.Sample) (x, y *mat.Dense) {
	n := len(samples)
	x = mat.NewDense(n, p.InputSize(), nil)
	y = mat.NewDense(n, p.NumClasses, nil)
	for i, s := range samples {
		p.featuresInto(x.RawRowView(i), s.Image)
		y.SetRow(i, OneHot(s.Label, p.NumClasses))
	}
	return x, y
}

// CheckLabels verifies that split uses exactly p.NumClasses distinct
// labels, all within [0, NumClasses).
func (p *Preprocessor) CheckLabels(split dataset.Split) error {
	return CheckLabels(split, p.NumClasses)
}
