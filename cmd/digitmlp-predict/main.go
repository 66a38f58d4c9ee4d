// Command digitmlp-predict classifies digit images with an exported
// weight file. Without image arguments it scores the MNIST test split.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/nesai/digitmlp/internal/config"
	"github.com/nesai/digitmlp/internal/dataset"
	"github.com/nesai/digitmlp/internal/infer"
	"github.com/nesai/digitmlp/internal/preprocess"
	"github.com/nesai/digitmlp/internal/weightfile"
)

func main() {
	configPath := flag.String("config", "", "YAML config file describing the architecture")
	weights := flag.String("weights", "", "weight file (default: output from the config)")
	dataDir := flag.String("data-dir", "", "directory with the MNIST IDX files")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("invalid configuration: %v", err)
		}
	}
	cfg.ApplyOverrides(config.Overrides{Output: *weights, DataDir: *dataDir})

	arch := cfg.Architecture()
	shapes := weightfile.Chain(arch.InputSize(), arch.Hidden1, arch.Hidden2, arch.NumClasses)
	n, err := infer.Load(cfg.Output, shapes)
	if err != nil {
		log.Fatalf("cannot load weights: %v", err)
	}
	pre := preprocess.New(arch.InputSide, arch.NumClasses)

	if flag.NArg() == 0 {
		if err := score(n, pre, cfg.DataDir); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}
	for _, path := range flag.Args() {
		class, probs, err := classifyFile(n, pre, path)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("%s: %d (%.1f%%)\n", path, class, probs[class]*100)
	}
}

func features(pre *preprocess.Preprocessor, img image.Image) []float32 {
	f64 := pre.Features(img)
	out := make([]float32, len(f64))
	for i, v := range f64 {
		out[i] = float32(v)
	}
	return out
}

func classifyFile(n *infer.Network, pre *preprocess.Preprocessor, path string) (int, []float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, errors.WithStack(err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "decode %s", path)
	}
	return n.Classify(features(pre, img))
}

func score(n *infer.Network, pre *preprocess.Preprocessor, dir string) error {
	data, err := dataset.IDXProvider{Dir: dir}.Load()
	if err != nil {
		return err
	}
	acc, err := accuracy(n, pre, data.Test)
	if err != nil {
		return err
	}
	fmt.Printf("Test accuracy: %.1f%%\n", acc*100)
	return nil
}

// accuracy returns the fraction of split the engine classifies correctly.
func accuracy(n *infer.Network, pre *preprocess.Preprocessor, split dataset.Split) (float64, error) {
	if split.Len() == 0 {
		return 0, errors.Errorf("%s split is empty", split.Name)
	}
	if err := preprocess.CheckRange(split, pre.NumClasses); err != nil {
		return 0, err
	}

	correct := 0
	for _, s := range split.Samples {
		class, _, err := n.Classify(features(pre, s.Image))
		if err != nil {
			return 0, err
		}
		if class == s.Label {
			correct++
		}
	}
	return float64(correct) / float64(split.Len()), nil
}
