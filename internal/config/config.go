// Package config holds the knobs of a training run.
package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nesai/digitmlp/internal/dataset"
	"github.com/nesai/digitmlp/internal/net"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	InputResolution int     `yaml:"input_resolution"`
	HiddenWidth     int     `yaml:"hidden_width"` // both hidden layers unless overridden below
	Hidden1         int     `yaml:"hidden1"`
	Hidden2         int     `yaml:"hidden2"`
	NumClasses      int     `yaml:"num_classes"`
	DropoutRate     float64 `yaml:"dropout_rate"`

	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	Seed         int64   `yaml:"seed"`
	LearningRate float64 `yaml:"learning_rate"`
	LogEvery     int     `yaml:"log_every"`

	DataDir      string `yaml:"data_dir"`
	Download     bool   `yaml:"download"` // fetch missing MNIST files from Mirror
	Mirror       string `yaml:"mirror"`
	Output       string `yaml:"output"`
	HistoryCSV   string `yaml:"history_csv"`
	HeaderOutput string `yaml:"header_output"`
	GraphOutput  string `yaml:"graph_output"`
}

// Overrides captures CLI supplied values. Zero values and nil pointers
// leave the config untouched.
type Overrides struct {
	InputResolution int
	HiddenWidth     int
	DropoutRate     *float64
	Epochs          int
	BatchSize       int
	Seed            *int64
	LearningRate    float64
	DataDir         string
	Download        bool
	Output          string
	HistoryCSV      string
	HeaderOutput    string
	GraphOutput     string
}

// Default returns the reference configuration: 7×7 inputs, two hidden
// layers of 24, dropout 0.4, 50 epochs of batch 64, seed 42.
func Default() *Config {
	return &Config{
		InputResolution: 7,
		HiddenWidth:     24,
		NumClasses:      10,
		DropoutRate:     0.4,
		Epochs:          50,
		BatchSize:       64,
		Seed:            42,
		LearningRate:    0.001,
		LogEvery:        1,
		DataDir:         "data",
		Mirror:          dataset.DefaultMirror,
		Output:          "weights.txt",
	}
}

// Load reads a YAML config on top of Default and validates it.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML from r on top of Default without validating.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c using any set override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.InputResolution > 0 {
		c.InputResolution = o.InputResolution
	}
	if o.HiddenWidth > 0 {
		c.HiddenWidth = o.HiddenWidth
		c.Hidden1, c.Hidden2 = 0, 0
	}
	if o.DropoutRate != nil {
		c.DropoutRate = *o.DropoutRate
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.Download {
		c.Download = true
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.HistoryCSV != "" {
		c.HistoryCSV = o.HistoryCSV
	}
	if o.HeaderOutput != "" {
		c.HeaderOutput = o.HeaderOutput
	}
	if o.GraphOutput != "" {
		c.GraphOutput = o.GraphOutput
	}
}

// Architecture returns the model shape described by c. Hidden1 and
// Hidden2 take precedence over HiddenWidth when set.
func (c *Config) Architecture() net.Architecture {
	h1, h2 := c.HiddenWidth, c.HiddenWidth
	if c.Hidden1 > 0 {
		h1 = c.Hidden1
	}
	if c.Hidden2 > 0 {
		h2 = c.Hidden2
	}
	return net.Architecture{
		InputSide:   c.InputResolution,
		Hidden1:     h1,
		Hidden2:     h2,
		NumClasses:  c.NumClasses,
		DropoutRate: c.DropoutRate,
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Architecture().Validate(); err != nil {
		return errors.Wrap(err, "config")
	}
	if c.Epochs <= 0 {
		return errors.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return errors.Errorf("learning_rate must be > 0 (got %v)", c.LearningRate)
	}
	if c.Output == "" {
		return errors.New("output must be set")
	}
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	if c.Download && c.Mirror == "" {
		return errors.New("mirror must be set when download is enabled")
	}
	if c.LogEvery <= 0 {
		return errors.Errorf("log_every must be > 0 (got %d)", c.LogEvery)
	}
	return nil
}
