// Package digitmlp trains the 7×7 MNIST digit classifier and exports its
// parameters for the fixed-point inference engine.
package digitmlp

import (
	"context"
	"log"
	"math/rand"
	"net/http"

	"github.com/nesai/digitmlp/internal/config"
	"github.com/nesai/digitmlp/internal/dataset"
	"github.com/nesai/digitmlp/internal/loss"
	"github.com/nesai/digitmlp/internal/net"
	"github.com/nesai/digitmlp/internal/opt"
	"github.com/nesai/digitmlp/internal/preprocess"
	"github.com/nesai/digitmlp/internal/weightfile"
)

// Re-export common types for easier access
type (
	Model        = net.Sequential
	Architecture = net.Architecture
	Config       = config.Config
	Overrides    = config.Overrides
	Dataset      = dataset.Dataset
	Split        = dataset.Split
	Sample       = dataset.Sample
	History      = net.History
	EpochLogs    = net.EpochLogs
	Result       = net.Result
	Callback     = net.Callback
	BaseCallback = net.BaseCallback
)

// Configuration
func DefaultConfig() *Config                  { return config.Default() }
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// LoadDataset reads the MNIST IDX files from cfg.DataDir, first fetching
// missing files from cfg.Mirror when cfg.Download is set.
func LoadDataset(ctx context.Context, cfg *Config) (Dataset, error) {
	if cfg.Download {
		if _, err := dataset.Download(ctx, http.DefaultClient, cfg.Mirror, cfg.DataDir); err != nil {
			return Dataset{}, err
		}
	}
	return dataset.IDXProvider{Dir: cfg.DataDir}.Load()
}

// Build creates an untrained model seeded with cfg.Seed. The same
// random source later drives the dropout masks.
func Build(cfg *Config) (*Model, error) {
	return net.Build(cfg.Architecture(), rand.New(rand.NewSource(cfg.Seed)))
}

// Run is the outcome of Fit.
type Run struct {
	History History
	Test    Result
}

// Fit trains m on data.Train with Adam and categorical cross-entropy as
// configured by cfg, then evaluates it on data.Test.
func Fit(cfg *Config, m *Model, data Dataset, callbacks ...Callback) (*Run, error) {
	arch := cfg.Architecture()
	pre := preprocess.New(arch.InputSide, arch.NumClasses)
	trainer := &net.Trainer{
		Model:     m,
		Optimizer: opt.NewAdam(cfg.LearningRate),
		Loss:      loss.CategoricalCrossEntropy{},
		Pre:       pre,
		BatchSize: cfg.BatchSize,
		Epochs:    cfg.Epochs,
		Callbacks: callbacks,
	}
	h, err := trainer.Fit(data.Train)
	if err != nil {
		return nil, err
	}
	res, err := net.Evaluate(m, trainer.Loss, pre, data.Test, cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	return &Run{History: h, Test: res}, nil
}

// Export writes the weight file to cfg.Output and, when set, the C header
// to cfg.HeaderOutput.
func Export(cfg *Config, m *Model) error {
	if err := weightfile.WriteFile(cfg.Output, m); err != nil {
		return err
	}
	if cfg.HeaderOutput == "" {
		return nil
	}
	return weightfile.WriteHeaderFile(cfg.HeaderOutput, weightfile.FromModel(m), cfg.InputResolution)
}

// Callbacks
func Logger(interval int, out *log.Logger) Callback { return net.NewLogger(interval, out) }
func CSVLogger(filename string) *net.CSVLogger      { return net.NewCSVLogger(filename, false) }

// Error kinds
var (
	IsConfiguration = preprocess.IsConfiguration
	IsDataAccess    = dataset.IsDataAccess
	IsSerialization = weightfile.IsSerialization
)
