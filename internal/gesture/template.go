package gesture

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/gestpipe/internal/dataset"
)

// Type classifies a gesture as held (static) or moving (dynamic).
type Type string

const (
	TypeStatic  Type = "static"
	TypeDynamic Type = "dynamic"
)

// TemplateStaticEpsilon bounds |dx| and |dy| of a template considered static.
const TemplateStaticEpsilon = 0.02

// Template is the reference description of one gesture used by practice mode.
type Template struct {
	Name      string      `json:"name"`
	Left      FingerState `json:"left_fingers"`
	Right     FingerState `json:"right_fingers"`
	MainAxisX int         `json:"main_axis_x"`
	MainAxisY int         `json:"main_axis_y"`
	DeltaX    float64     `json:"delta_x"`
	DeltaY    float64     `json:"delta_y"`
	IsStatic  bool        `json:"is_static"`
	Accuracy  float64     `json:"accuracy"`
}

// Type returns the template's gesture type.
func (t Template) Type() Type {
	if t.IsStatic {
		return TypeStatic
	}
	return TypeDynamic
}

// TemplateFromRow converts a dataset row.
func TemplateFromRow(row dataset.Row) Template {
	return Template{
		Name:      row.Label,
		Left:      FingerState(row.Left),
		Right:     FingerState(row.Right),
		MainAxisX: row.MainAxisX,
		MainAxisY: row.MainAxisY,
		DeltaX:    row.DeltaX,
		DeltaY:    row.DeltaY,
		IsStatic:  math.Abs(row.DeltaX) < TemplateStaticEpsilon && math.Abs(row.DeltaY) < TemplateStaticEpsilon,
		Accuracy:  row.Accuracy,
	}
}

// TemplateSet is a read-only name -> Template index.
type TemplateSet struct {
	byName map[string]Template
	names  []string
}

// NewTemplateSet indexes templates by name. Later duplicates replace earlier ones.
func NewTemplateSet(templates []Template) *TemplateSet {
	s := &TemplateSet{byName: make(map[string]Template, len(templates))}
	for _, t := range templates {
		if _, ok := s.byName[t.Name]; !ok {
			s.names = append(s.names, t.Name)
		}
		s.byName[t.Name] = t
	}
	sort.Strings(s.names)
	return s
}

// TemplatesFromRows builds a set from dataset rows, one template per row.
func TemplatesFromRows(rows []dataset.Row) *TemplateSet {
	templates := make([]Template, 0, len(rows))
	for _, row := range rows {
		templates = append(templates, TemplateFromRow(row))
	}
	return NewTemplateSet(templates)
}

// Get looks up a template.
func (s *TemplateSet) Get(name string) (Template, bool) {
	if s == nil {
		return Template{}, false
	}
	t, ok := s.byName[name]
	return t, ok
}

// Names returns template names in sorted order.
func (s *TemplateSet) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// All returns the templates in name order.
func (s *TemplateSet) All() []Template {
	if s == nil {
		return nil
	}
	out := make([]Template, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, s.byName[n])
	}
	return out
}

// Len returns the number of templates.
func (s *TemplateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// CompactBuilder reduces a full recording dataset to one representative
// sample per gesture.
type CompactBuilder struct {
	// StaticThreshold is the mean motion magnitude below which a gesture is static.
	StaticThreshold float64
	// MinMotion and MaxMotion bound the magnitudes considered typical for a
	// dynamic sample.
	MinMotion float64
	MaxMotion float64
}

// NewCompactBuilder creates a builder with the thresholds used for training.
func NewCompactBuilder() *CompactBuilder {
	return &CompactBuilder{StaticThreshold: 0.01, MinMotion: 0.05, MaxMotion: 0.5}
}

// ClassifyTypes splits labels into static and dynamic gestures by their mean
// motion magnitude. Both slices are sorted.
func (b *CompactBuilder) ClassifyTypes(rows []dataset.Row) (static, dynamic []string) {
	for label, group := range groupRows(rows) {
		mags := make([]float64, len(group))
		for i, r := range group {
			mags[i] = rowMagnitude(r)
		}
		if stat.Mean(mags, nil) < b.StaticThreshold {
			static = append(static, label)
		} else {
			dynamic = append(dynamic, label)
		}
	}
	sort.Strings(static)
	sort.Strings(dynamic)
	return static, dynamic
}

// Build selects one representative row per gesture, in label order.
//
// Candidates are the rows matching the most common right-hand state and main
// axis. Horizontal dynamic gestures keep the purest horizontal sample,
// vertical ones the purest vertical sample, static gestures the smallest
// motion. Left fingers of the result are cleared and Accuracy is taken from
// accuracies when present.
func (b *CompactBuilder) Build(rows []dataset.Row, accuracies map[string]float64) ([]dataset.Row, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	_, dynamic := b.ClassifyTypes(rows)
	isDynamic := make(map[string]bool, len(dynamic))
	for _, g := range dynamic {
		isDynamic[g] = true
	}

	groups := groupRows(rows)
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	out := make([]dataset.Row, 0, len(labels))
	for _, label := range labels {
		sample := b.representative(groups[label], isDynamic[label])
		sample.Left = [5]int{}
		sample.Accuracy = accuracies[label]
		out = append(out, sample)
	}
	return out, nil
}

func (b *CompactBuilder) representative(group []dataset.Row, dynamic bool) dataset.Row {
	type modeKey struct {
		right [5]int
		axisX int
		axisY int
	}

	counts := make(map[modeKey]int)
	var order []modeKey
	for _, r := range group {
		k := modeKey{r.Right, r.MainAxisX, r.MainAxisY}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	mode := order[0]
	for _, k := range order[1:] {
		if counts[k] > counts[mode] {
			mode = k
		}
	}

	var candidates []dataset.Row
	for _, r := range group {
		if r.Right == mode.right && r.MainAxisX == mode.axisX && r.MainAxisY == mode.axisY {
			candidates = append(candidates, r)
		}
	}

	switch {
	case !dynamic:
		return argmin(candidates, rowMagnitude)
	case mode.axisX == 1:
		return argmin(candidates, func(r dataset.Row) float64 { return math.Abs(r.DeltaY) })
	case mode.axisY == 1:
		return argmin(candidates, func(r dataset.Row) float64 { return math.Abs(r.DeltaX) })
	}

	var typical []dataset.Row
	var mags []float64
	for _, r := range candidates {
		if m := rowMagnitude(r); m > b.MinMotion && m < b.MaxMotion {
			typical = append(typical, r)
			mags = append(mags, m)
		}
	}
	if len(typical) == 0 {
		return argmin(candidates, func(r dataset.Row) float64 { return -rowMagnitude(r) })
	}
	sorted := append([]float64(nil), mags...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return argmin(typical, func(r dataset.Row) float64 { return math.Abs(rowMagnitude(r) - median) })
}

func groupRows(rows []dataset.Row) map[string][]dataset.Row {
	groups := make(map[string][]dataset.Row)
	for _, r := range rows {
		groups[r.Label] = append(groups[r.Label], r)
	}
	return groups
}

func rowMagnitude(r dataset.Row) float64 {
	return math.Hypot(r.DeltaX, r.DeltaY)
}

// argmin returns the first row minimizing key. rows must be non-empty.
func argmin(rows []dataset.Row, key func(dataset.Row) float64) dataset.Row {
	best := rows[0]
	bestKey := key(best)
	for _, r := range rows[1:] {
		if k := key(r); k < bestKey {
			best, bestKey = r, k
		}
	}
	return best
}
