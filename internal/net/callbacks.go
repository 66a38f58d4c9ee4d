package net

import (
	"log"
	"time"
)

// Callback defines the interface for training callbacks.
type Callback interface {
	OnTrainBegin(m *Sequential)
	OnTrainEnd(m *Sequential, h History)
	OnEpochBegin(epoch int)
	OnEpochEnd(epoch int, logs EpochLogs)
	OnBatchEnd(step int, loss float64)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (BaseCallback) OnTrainBegin(*Sequential)        {}
func (BaseCallback) OnTrainEnd(*Sequential, History) {}
func (BaseCallback) OnEpochBegin(int)                {}
func (BaseCallback) OnEpochEnd(int, EpochLogs)       {}
func (BaseCallback) OnBatchEnd(int, float64)         {}

// Logger prints epoch results every Interval epochs.
type Logger struct {
	BaseCallback
	Interval int
	Out      *log.Logger
}

// NewLogger logs every interval epochs to out.
func NewLogger(interval int, out *log.Logger) *Logger {
	if interval <= 0 {
		interval = 1
	}
	return &Logger{Interval: interval, Out: out}
}

func (l *Logger) OnTrainBegin(m *Sequential) {
	l.Out.Printf("training %d parameters", m.ParamCount())
}

func (l *Logger) OnEpochEnd(epoch int, logs EpochLogs) {
	if (epoch+1)%l.Interval != 0 {
		return
	}
	l.Out.Printf("epoch=%d steps=%d loss=%.4f accuracy=%.4f elapsed=%s",
		epoch+1, logs.Steps, logs.Loss, logs.Accuracy, logs.Elapsed.Round(time.Millisecond))
}

func (l *Logger) OnTrainEnd(_ *Sequential, h History) {
	l.Out.Printf("training done: epochs=%d steps=%d", len(h.Epochs), h.Steps)
}
