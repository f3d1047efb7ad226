package app

import (
	"fmt"
	"log"
	"os"

	"github.com/ayusman/gestpipe/internal/classifier"
	"github.com/ayusman/gestpipe/internal/config"
	"github.com/ayusman/gestpipe/internal/dataset"
	"github.com/ayusman/gestpipe/internal/gesture"
	"github.com/ayusman/gestpipe/internal/store"
)

// Models is everything loaded from the artifacts directory.
type Models struct {
	Templates *gesture.TemplateSet
	Patterns  gesture.PatternSource
	Artifacts *classifier.Cache
}

// LoadModels reads the reference dataset and prepares the lazily loaded
// classifier cache. A missing dataset is not an error: templates come back
// empty and the built-in pattern table is used.
//
// Finger patterns are mined from the full recordings when that file exists,
// otherwise from the compact dataset.
func LoadModels(cfg config.Artifacts) (Models, error) {
	res, err := dataset.Load(cfg.Dataset)
	if err != nil {
		return Models{}, err
	}
	if res.Missing {
		log.Printf("Reference dataset not found at %s; practice templates unavailable", cfg.Dataset)
	}

	m := Models{
		Templates: gesture.TemplatesFromRows(res.Rows),
		Patterns:  gesture.PatternsFromDataset(res),
		Artifacts: classifier.NewDirCache(cfg.Dir, cfg.DeltaWeight),
	}
	if cfg.Recordings != "" {
		if src := gesture.LoadPatterns(cfg.Recordings); !src.Fallback {
			m.Patterns = src
		} else if _, err := os.Stat(cfg.Recordings); err == nil {
			log.Printf("Ignoring recordings for finger patterns: %s", src.Reason)
		}
	}
	if m.Patterns.Fallback {
		log.Printf("Using built-in finger patterns: %s", m.Patterns.Reason)
	}
	return m, nil
}

// BuildCompact reduces the recordings at src to one sample per gesture and
// writes the result to dst. Accuracies already recorded in dst are kept.
// It returns the number of gestures written.
func BuildCompact(src, dst string) (int, error) {
	full, err := dataset.Load(src)
	if err != nil {
		return 0, err
	}
	if full.Missing {
		return 0, fmt.Errorf("recordings not found: %s", src)
	}

	accuracies := make(map[string]float64)
	if prev, err := dataset.Load(dst); err == nil {
		for _, r := range prev.Rows {
			accuracies[r.Label] = r.Accuracy
		}
	}

	compact, err := gesture.NewCompactBuilder().Build(full.Rows, accuracies)
	if err != nil {
		return 0, err
	}
	if err := dataset.Save(dst, compact); err != nil {
		return 0, err
	}
	log.Printf("Wrote %d gestures from %d recordings to %s", len(compact), len(full.Rows), dst)
	return len(compact), nil
}

// ImportTemplates replaces the stored templates with the loaded ones so the
// API can list them and bindings can be validated. An empty set leaves the
// store untouched.
func ImportTemplates(s *store.Store, templates *gesture.TemplateSet) error {
	if templates.Len() == 0 {
		return nil
	}
	if err := s.Templates().ReplaceAll(templates.All()); err != nil {
		return err
	}
	log.Printf("Imported %d gesture templates", templates.Len())
	return nil
}
