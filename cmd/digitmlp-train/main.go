// Command digitmlp-train trains the digit classifier on MNIST and exports
// its weights for the fixed-point inference engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"

	"github.com/nesai/digitmlp/digitmlp"
	"github.com/nesai/digitmlp/internal/config"
	"github.com/nesai/digitmlp/internal/dataset"
	"github.com/nesai/digitmlp/internal/net"
	"github.com/nesai/digitmlp/internal/preprocess"
	"github.com/nesai/digitmlp/internal/weightfile"
)

const (
	exitFailure       = 1
	exitConfiguration = 2
	exitDataAccess    = 3
	exitSerialization = 4
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Printf("invalid configuration: %v", err)
		os.Exit(exitConfiguration)
	}

	logger := log.New(os.Stderr, "digitmlp: ", log.Ltime)
	if err := run(cfg, logger); err != nil {
		logger.Print(describe(err))
		os.Exit(exitCode(err))
	}
}

func loadConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("digitmlp-train", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	var o config.Overrides
	fs.IntVar(&o.InputResolution, "input-resolution", 0, "downsampled image side")
	fs.IntVar(&o.HiddenWidth, "hidden-width", 0, "width of both hidden layers")
	dropout := fs.Float64("dropout-rate", 0, "dropout probability after each hidden layer")
	fs.IntVar(&o.Epochs, "epochs", 0, "training epochs")
	fs.IntVar(&o.BatchSize, "batch-size", 0, "mini-batch size")
	seed := fs.Int64("seed", 0, "random seed")
	fs.Float64Var(&o.LearningRate, "learning-rate", 0, "Adam learning rate")
	fs.StringVar(&o.DataDir, "data-dir", "", "directory with the MNIST IDX files")
	fs.BoolVar(&o.Download, "download", false, "fetch missing MNIST files")
	fs.StringVar(&o.Output, "output", "", "weight file to write")
	fs.StringVar(&o.HistoryCSV, "history-csv", "", "per-epoch history CSV")
	fs.StringVar(&o.HeaderOutput, "header-output", "", "C header to write next to the weight file")
	fs.StringVar(&o.GraphOutput, "graph-output", "", "Graphviz DOT file of the model")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dropout-rate":
			o.DropoutRate = dropout
		case "seed":
			o.Seed = seed
		}
	})

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config, logger *log.Logger) error {
	fmt.Println("=============================================================")
	fmt.Println("  digitmlp - MNIST MLP trainer")
	fmt.Println("=============================================================")
	fmt.Printf("Go %s on %s (%d cores, %d threads)\n",
		runtime.Version(), cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores)
	fmt.Println()

	data, err := digitmlp.LoadDataset(context.Background(), cfg)
	if err != nil {
		return err
	}
	logger.Printf("loaded %d training and %d test images from %s",
		data.Train.Len(), data.Test.Len(), cfg.DataDir)

	model, err := digitmlp.Build(cfg)
	if err != nil {
		return err
	}
	model.Summary(os.Stdout)
	fmt.Println()

	if cfg.GraphOutput != "" {
		dot, err := model.Dot()
		if err != nil {
			return errors.Wrap(err, "render model graph")
		}
		if err := os.WriteFile(cfg.GraphOutput, []byte(dot), 0o644); err != nil {
			return errors.Wrap(err, "write model graph")
		}
	}

	callbacks := []digitmlp.Callback{digitmlp.Logger(cfg.LogEvery, logger)}
	var history *net.CSVLogger
	if cfg.HistoryCSV != "" {
		history = digitmlp.CSVLogger(cfg.HistoryCSV)
		callbacks = append(callbacks, history)
	}

	result, err := digitmlp.Fit(cfg, model, data, callbacks...)
	if err != nil {
		return err
	}
	if history != nil && history.Err() != nil {
		logger.Printf("history not saved: %v", history.Err())
	}
	fmt.Printf("Test accuracy: %.1f%%\n", result.Test.Accuracy*100)

	if err := digitmlp.Export(cfg, model); err != nil {
		return err
	}
	logger.Printf("wrote %d weights to %s", weightfile.LineCount(weightfile.Shapes(model)), cfg.Output)
	if cfg.HeaderOutput != "" {
		logger.Printf("wrote C header to %s", cfg.HeaderOutput)
	}
	return nil
}

func exitCode(err error) int {
	switch {
	case preprocess.IsConfiguration(err):
		return exitConfiguration
	case dataset.IsDataAccess(err):
		return exitDataAccess
	case weightfile.IsSerialization(err):
		return exitSerialization
	default:
		return exitFailure
	}
}

func describe(err error) string {
	switch cause := errors.Cause(err).(type) {
	case *preprocess.ConfigurationError:
		return fmt.Sprintf("dataset does not match the model: %v", cause)
	case *dataset.DataAccessError:
		return fmt.Sprintf("cannot read dataset: %v", cause)
	case *weightfile.SerializationError:
		return fmt.Sprintf("cannot write weights: %v", cause)
	default:
		return fmt.Sprintf("training failed: %+v", err)
	}
}
