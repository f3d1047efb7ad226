package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Model kinds accepted in model.json.
const (
	KindLogistic = "logistic"
	KindCentroid = "centroid"
)

// DefaultTopK is the number of ranked labels kept in a Prediction.
const DefaultTopK = 3

// Model is a trained multi-class scorer.
type Model interface {
	Labels() []string
	// InputWidth returns the expected feature vector width.
	InputWidth() int
	// PredictProba returns one probability per label, in Labels order.
	PredictProba(x []float64) ([]float64, error)
}

// Scored is one label with its probability.
type Scored struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Prediction is the outcome of scoring one vector.
type Prediction struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	TopK       []Scored `json:"top_k"`
}

// Predict scores x and returns the most probable label with the topK ranking.
func Predict(m Model, x []float64, topK int) (Prediction, error) {
	probs, err := m.PredictProba(x)
	if err != nil {
		return Prediction{}, err
	}
	labels := m.Labels()
	if len(probs) != len(labels) || len(probs) == 0 {
		return Prediction{}, fmt.Errorf("model returned %d probabilities for %d labels", len(probs), len(labels))
	}

	ranked := make([]Scored, len(probs))
	for i, p := range probs {
		ranked[i] = Scored{Label: labels[i], Probability: p}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Probability > ranked[j].Probability })
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	best := floats.MaxIdx(probs)
	return Prediction{Label: labels[best], Confidence: probs[best], TopK: ranked}, nil
}

// LogisticModel is a linear softmax classifier. With two labels and a single
// coefficient row it is a binary logistic model whose row scores the second
// label.
type LogisticModel struct {
	ClassLabels []string
	Coef        [][]float64
	Intercept   []float64
}

func (m *LogisticModel) Labels() []string { return m.ClassLabels }

func (m *LogisticModel) InputWidth() int {
	if len(m.Coef) == 0 {
		return 0
	}
	return len(m.Coef[0])
}

func (m *LogisticModel) PredictProba(x []float64) ([]float64, error) {
	if len(x) != m.InputWidth() {
		return nil, fmt.Errorf("%w: got %d features, model expects %d", ErrWidthMismatch, len(x), m.InputWidth())
	}

	if len(m.ClassLabels) == 2 && len(m.Coef) == 1 {
		z := floats.Dot(m.Coef[0], x) + m.Intercept[0]
		p := 1 / (1 + math.Exp(-z))
		return []float64{1 - p, p}, nil
	}

	logits := make([]float64, len(m.Coef))
	for i, row := range m.Coef {
		logits[i] = floats.Dot(row, x) + m.Intercept[i]
	}
	return softmax(logits), nil
}

// CentroidModel scores each label by its squared distance to a class
// centroid: p ∝ exp(-d²/T).
type CentroidModel struct {
	ClassLabels []string
	Centroids   [][]float64
	Temperature float64
}

func (m *CentroidModel) Labels() []string { return m.ClassLabels }

func (m *CentroidModel) InputWidth() int {
	if len(m.Centroids) == 0 {
		return 0
	}
	return len(m.Centroids[0])
}

func (m *CentroidModel) PredictProba(x []float64) ([]float64, error) {
	if len(x) != m.InputWidth() {
		return nil, fmt.Errorf("%w: got %d features, model expects %d", ErrWidthMismatch, len(x), m.InputWidth())
	}
	t := m.Temperature
	if t <= 0 {
		t = 1
	}

	logits := make([]float64, len(m.Centroids))
	for i, c := range m.Centroids {
		d := floats.Distance(c, x, 2)
		logits[i] = -d * d / t
	}
	return softmax(logits), nil
}

func softmax(logits []float64) []float64 {
	lse := floats.LogSumExp(logits)
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = math.Exp(v - lse)
	}
	return out
}

type modelFile struct {
	Kind        string      `json:"kind"`
	Labels      []string    `json:"labels"`
	Coef        [][]float64 `json:"coef,omitempty"`
	Intercept   []float64   `json:"intercept,omitempty"`
	Centroids   [][]float64 `json:"centroids,omitempty"`
	Temperature float64     `json:"temperature,omitempty"`
}

// DecodeModel parses a model.json document.
func DecodeModel(data []byte) (Model, error) {
	var f modelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return f.build()
}

func (f modelFile) build() (Model, error) {
	if len(f.Labels) == 0 {
		return nil, errors.New("model has no labels")
	}

	switch f.Kind {
	case KindLogistic, "":
		binary := len(f.Labels) == 2 && len(f.Coef) == 1
		if !binary && len(f.Coef) != len(f.Labels) {
			return nil, fmt.Errorf("logistic model has %d coefficient rows for %d labels", len(f.Coef), len(f.Labels))
		}
		if len(f.Intercept) != len(f.Coef) {
			return nil, fmt.Errorf("logistic model has %d intercepts for %d rows", len(f.Intercept), len(f.Coef))
		}
		if err := sameWidth(f.Coef); err != nil {
			return nil, err
		}
		return &LogisticModel{ClassLabels: f.Labels, Coef: f.Coef, Intercept: f.Intercept}, nil

	case KindCentroid:
		if len(f.Centroids) != len(f.Labels) {
			return nil, fmt.Errorf("centroid model has %d centroids for %d labels", len(f.Centroids), len(f.Labels))
		}
		if err := sameWidth(f.Centroids); err != nil {
			return nil, err
		}
		return &CentroidModel{ClassLabels: f.Labels, Centroids: f.Centroids, Temperature: f.Temperature}, nil
	}

	return nil, fmt.Errorf("unknown model kind %q", f.Kind)
}

func sameWidth(rows [][]float64) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return errors.New("model has no weights")
	}
	for i, r := range rows {
		if len(r) != len(rows[0]) {
			return fmt.Errorf("row %d has width %d, want %d", i, len(r), len(rows[0]))
		}
	}
	return nil
}
