// Command digitmlp-header converts a weight file into a C header with
// 16.16 fixed-point constants.
package main

import (
	"flag"
	"log"

	"github.com/nesai/digitmlp/internal/config"
	"github.com/nesai/digitmlp/internal/weightfile"
)

func main() {
	configPath := flag.String("config", "", "YAML config file describing the architecture")
	in := flag.String("in", "weights.txt", "weight file to convert")
	out := flag.String("out", "weights.h", "C header to write")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("invalid configuration: %v", err)
		}
	}

	arch := cfg.Architecture()
	shapes := weightfile.Chain(arch.InputSize(), arch.Hidden1, arch.Hidden2, arch.NumClasses)
	params, err := weightfile.ReadFile(*in, shapes)
	if err != nil {
		log.Fatalf("cannot read weights: %v", err)
	}
	if err := weightfile.WriteHeaderFile(*out, params, arch.InputSide); err != nil {
		log.Fatalf("cannot write header: %v", err)
	}
	log.Printf("wrote %d weights to %s", weightfile.LineCount(shapes), *out)
}
