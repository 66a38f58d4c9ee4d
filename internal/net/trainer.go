package net

import (
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/nesai/digitmlp/internal/dataset"
	"github.com/nesai/digitmlp/internal/loss"
	"github.com/nesai/digitmlp/internal/opt"
	"github.com/nesai/digitmlp/internal/preprocess"
)

// Trainer runs mini-batch optimization of a Sequential model.
type Trainer struct {
	Model     *Sequential
	Optimizer opt.Optimizer
	Loss      loss.Loss
	Pre       *preprocess.Preprocessor
	BatchSize int
	Epochs    int
	Callbacks []Callback
}

// EpochLogs summarizes one pass over the training split.
type EpochLogs struct {
	Epoch    int
	Steps    int     // optimizer steps taken in this epoch
	Loss     float64 // sample-weighted mean batch loss
	Accuracy float64 // training accuracy with dropout active
	Elapsed  time.Duration
}

// History records a training run.
type History struct {
	Epochs []EpochLogs
	Steps  int // total optimizer steps
}

func (t *Trainer) validate() error {
	switch {
	case t.Model == nil:
		return errors.New("trainer: model is nil")
	case t.Optimizer == nil:
		return errors.New("trainer: optimizer is nil")
	case t.Loss == nil:
		return errors.New("trainer: loss is nil")
	case t.Pre == nil:
		return errors.New("trainer: preprocessor is nil")
	case t.BatchSize <= 0:
		return errors.Errorf("trainer: batch size must be > 0 (got %d)", t.BatchSize)
	case t.Epochs <= 0:
		return errors.Errorf("trainer: epochs must be > 0 (got %d)", t.Epochs)
	}
	if t.Model.InputSize() != t.Pre.InputSize() {
		return errors.Errorf("trainer: model takes %d inputs, preprocessor yields %d",
			t.Model.InputSize(), t.Pre.InputSize())
	}
	if t.Model.OutputSize() != t.Pre.NumClasses {
		return errors.Errorf("trainer: model has %d outputs for %d classes",
			t.Model.OutputSize(), t.Pre.NumClasses)
	}
	return nil
}

// Fit trains the model for t.Epochs passes over train.
//
// The label check runs once, before any optimizer step; a mismatch is
// returned as *preprocess.ConfigurationError. Each pass walks the split
// in order in consecutive batches of t.BatchSize (the last may be
// shorter) and applies exactly one optimizer step per batch.
func (t *Trainer) Fit(train dataset.Split) (History, error) {
	if err := t.validate(); err != nil {
		return History{}, err
	}
	if err := t.Pre.CheckLabels(train); err != nil {
		return History{}, errors.Wrap(err, "trainer")
	}

	x, y := t.Pre.Batch(train.Samples)
	n, inputs := x.Dims()
	_, classes := y.Dims()
	params := t.Model.Params()

	for _, cb := range t.Callbacks {
		cb.OnTrainBegin(t.Model)
	}

	var h History
	for epoch := 0; epoch < t.Epochs; epoch++ {
		for _, cb := range t.Callbacks {
			cb.OnEpochBegin(epoch)
		}
		start := time.Now()
		logs := EpochLogs{Epoch: epoch}
		var lossSum float64
		var correct int

		for lo := 0; lo < n; lo += t.BatchSize {
			hi := lo + t.BatchSize
			if hi > n {
				hi = n
			}
			xb := x.Slice(lo, hi, 0, inputs).(*mat.Dense)
			yb := y.Slice(lo, hi, 0, classes).(*mat.Dense)

			pred := t.Model.Forward(xb, true)
			batchLoss := t.Loss.Forward(pred, yb)
			t.Model.Backward(t.Loss.Backward(pred, yb))
			t.Optimizer.Step(params)

			logs.Steps++
			h.Steps++
			lossSum += batchLoss * float64(hi-lo)
			correct += countCorrect(pred, yb)

			for _, cb := range t.Callbacks {
				cb.OnBatchEnd(h.Steps, batchLoss)
			}
		}

		logs.Loss = lossSum / float64(n)
		logs.Accuracy = float64(correct) / float64(n)
		logs.Elapsed = time.Since(start)
		h.Epochs = append(h.Epochs, logs)

		for _, cb := range t.Callbacks {
			cb.OnEpochEnd(epoch, logs)
		}
	}

	for _, cb := range t.Callbacks {
		cb.OnTrainEnd(t.Model, h)
	}
	return h, nil
}

// countCorrect counts rows whose arg-max prediction matches the one-hot target.
func countCorrect(pred, target *mat.Dense) int {
	rows, _ := pred.Dims()
	correct := 0
	for i := 0; i < rows; i++ {
		if floats.MaxIdx(pred.RawRowView(i)) == floats.MaxIdx(target.RawRowView(i)) {
			correct++
		}
	}
	return correct
}
