// Command gestpipe-practice grades one practice attempt. It reads a JSON
// request on stdin and writes a JSON verdict on stdout; diagnostics go to
// stderr.
//
// With -build-compact it instead rebuilds the compact reference dataset from
// a full recordings file.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/ayusman/gestpipe/internal/app"
	"github.com/ayusman/gestpipe/internal/config"
	"github.com/ayusman/gestpipe/internal/practice"
)

func main() {
	baseDir := config.HomeDir()

	configPath := flag.String("config", filepath.Join(baseDir, "config.json"), "path to the JSON config file")
	modelsDir := flag.String("models", "", "directory holding the dataset and classifier artifacts (overrides config)")
	buildCompact := flag.Bool("build-compact", false, "rebuild the compact dataset from the recordings file and exit")
	recordings := flag.String("recordings", "", "full recordings CSV for -build-compact (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath, baseDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *modelsDir != "" {
		cfg.Artifacts.Dir = *modelsDir
		cfg.Artifacts.Dataset = filepath.Join(*modelsDir, filepath.Base(cfg.Artifacts.Dataset))
		cfg.Artifacts.Recordings = filepath.Join(*modelsDir, filepath.Base(cfg.Artifacts.Recordings))
	}
	if *recordings != "" {
		cfg.Artifacts.Recordings = *recordings
	}
	if *buildCompact {
		if _, err := app.BuildCompact(cfg.Artifacts.Recordings, cfg.Artifacts.Dataset); err != nil {
			log.Fatalf("Failed to build compact dataset: %v", err)
		}
		return
	}

	models, err := app.LoadModels(cfg.Artifacts)
	if err != nil {
		log.Printf("Failed to load models: %v", err)
	}

	evaluator := practice.NewEvaluator(models.Templates, models.Artifacts, cfg.Practice)
	if err := practice.Serve(context.Background(), evaluator, cfg.Practice.DefaultDuration.Duration, os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
