package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ayusman/gestpipe/internal/gesture"
)

// Artifact file names inside an artifact directory.
const (
	ModelFile         = "model.json"
	ScalerFile        = "scaler.json"
	StaticDynamicFile = "static_dynamic.json"
)

// ErrMissingArtifact is returned when a required model or scaler file is absent.
var ErrMissingArtifact = errors.New("missing classifier artifact")

// Static/dynamic sub-classifier labels.
const (
	LabelStatic  = "STATIC"
	LabelDynamic = "DYNAMIC"
)

// StaticDynamic is the optional binary sub-classifier deciding whether a
// capture is a held pose or a movement.
type StaticDynamic struct {
	Model           Model
	Scaler          *Scaler
	StaticGestures  []string
	DynamicGestures []string
	StaticThreshold float64
}

// Classify returns the gesture type and its probability.
func (sd *StaticDynamic) Classify(left, right gesture.FingerState, magnitude float64) (gesture.Type, float64, error) {
	x, err := sd.Scaler.Transform(StaticDynamicFeatures(left, right, magnitude))
	if err != nil {
		return "", 0, fmt.Errorf("scale static/dynamic features: %w", err)
	}
	p, err := Predict(sd.Model, x, 0)
	if err != nil {
		return "", 0, err
	}
	if p.Label == LabelStatic {
		return gesture.TypeStatic, p.Confidence, nil
	}
	return gesture.TypeDynamic, p.Confidence, nil
}

type staticDynamicFile struct {
	Model           modelFile `json:"model"`
	Scaler          Scaler    `json:"scaler"`
	StaticGestures  []string  `json:"static_gestures"`
	DynamicGestures []string  `json:"dynamic_gestures"`
	StaticThreshold float64   `json:"static_threshold"`
}

// Artifacts is the loaded, read-only classifier state shared by the
// recognizer and the practice evaluator.
type Artifacts struct {
	Model         Model
	Scaler        *Scaler
	StaticDynamic *StaticDynamic
	Assembler     *Assembler
	Dir           string
}

// NewArtifacts wires a model and scaler with the default delta weight.
func NewArtifacts(m Model, s *Scaler, sd *StaticDynamic) *Artifacts {
	return &Artifacts{Model: m, Scaler: s, StaticDynamic: sd, Assembler: NewAssembler(s)}
}

// Predict assembles the vector for the given hands and motion and scores it.
func (a *Artifacts) Predict(left, right gesture.FingerState, m gesture.MotionFeatures) (Prediction, error) {
	x := a.Assembler.Assemble(left, right, m)
	return Predict(a.Model, x, DefaultTopK)
}

// Labels returns the gestures the model knows.
func (a *Artifacts) Labels() []string {
	return a.Model.Labels()
}

// LoadDir reads model.json and scaler.json, and static_dynamic.json when
// present, from dir. A broken optional sub-classifier is logged and skipped.
func LoadDir(dir string, deltaWeight float64) (*Artifacts, error) {
	var mf modelFile
	if err := readJSON(filepath.Join(dir, ModelFile), &mf); err != nil {
		return nil, err
	}
	model, err := mf.build()
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}

	var scaler Scaler
	if err := readJSON(filepath.Join(dir, ScalerFile), &scaler); err != nil {
		return nil, err
	}
	if scaler.Width() == 0 {
		return nil, fmt.Errorf("scaler %s: mean and scale widths differ", ScalerFile)
	}

	a := NewArtifacts(model, &scaler, nil)
	a.Dir = dir
	if deltaWeight > 0 {
		a.Assembler.DeltaWeight = deltaWeight
	}

	if a.Assembler.Layout() == LayoutUnknown {
		Logf("scaler width %d is neither 4 nor 8", scaler.Width())
	}

	sd, err := loadStaticDynamic(filepath.Join(dir, StaticDynamicFile))
	switch {
	case errors.Is(err, ErrMissingArtifact):
	case err != nil:
		Logf("static/dynamic classifier unavailable: %v", err)
	default:
		a.StaticDynamic = sd
	}

	Logf("classifier loaded from %s: %d gestures, scaler width %d", dir, len(model.Labels()), scaler.Width())
	return a, nil
}

func loadStaticDynamic(path string) (*StaticDynamic, error) {
	var f staticDynamicFile
	if err := readJSON(path, &f); err != nil {
		return nil, err
	}
	model, err := f.Model.build()
	if err != nil {
		return nil, fmt.Errorf("build static/dynamic model: %w", err)
	}
	scaler := f.Scaler
	return &StaticDynamic{
		Model:           model,
		Scaler:          &scaler,
		StaticGestures:  f.StaticGestures,
		DynamicGestures: f.DynamicGestures,
		StaticThreshold: f.StaticThreshold,
	}, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissingArtifact, path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
