package gesture

import (
	"fmt"

	"github.com/ayusman/gestpipe/internal/dataset"
)

// Pattern mining and boost limits.
const (
	MaxPatternsPerGesture = 3
	MinPatternShare       = 0.03

	MinBoostedConfidence = 0.10
	MaxBoostedConfidence = 0.95
)

// PatternTable maps a gesture name to its typical right-hand finger states,
// most frequent first.
type PatternTable map[string][]FingerState

// MinePatterns extracts, per gesture, the most frequent right-hand finger
// states whose share of that gesture's rows is above MinPatternShare, at most
// MaxPatternsPerGesture each. Frequency ties keep first-seen order.
func MinePatterns(rows []dataset.Row) PatternTable {
	type tally struct {
		order  []FingerState
		counts map[FingerState]int
		total  int
	}

	tallies := make(map[string]*tally)
	for _, r := range rows {
		t, ok := tallies[r.Label]
		if !ok {
			t = &tally{counts: make(map[FingerState]int)}
			tallies[r.Label] = t
		}
		s := FingerState(r.Right)
		if t.counts[s] == 0 {
			t.order = append(t.order, s)
		}
		t.counts[s]++
		t.total++
	}

	table := make(PatternTable, len(tallies))
	for label, t := range tallies {
		ranked := append([]FingerState(nil), t.order...)
		// Stable insertion sort on descending count.
		for i := 1; i < len(ranked); i++ {
			for j := i; j > 0 && t.counts[ranked[j]] > t.counts[ranked[j-1]]; j-- {
				ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
			}
		}

		var top []FingerState
		for _, s := range ranked {
			if float64(t.counts[s])/float64(t.total) > MinPatternShare {
				top = append(top, s)
			}
			if len(top) >= MaxPatternsPerGesture {
				break
			}
		}
		table[label] = top
	}
	return table
}

// DefaultPatterns is the built-in table used when no reference dataset is
// available.
func DefaultPatterns() PatternTable {
	return PatternTable{
		"home":           {{1, 0, 0, 0, 0}},
		"end":            {{0, 0, 0, 0, 1}},
		"next_slide":     {{0, 1, 1, 0, 0}},
		"previous_slide": {{0, 1, 1, 0, 0}},
		"rotate_right":   {{1, 1, 0, 0, 0}},
		"rotate_left":    {{1, 1, 0, 0, 0}},
		"rotate_up":      {{1, 1, 0, 0, 0}},
		"rotate_down":    {{1, 1, 0, 0, 0}},
		"zoom_in":        {{1, 1, 1, 0, 0}},
		"zoom_out":       {{1, 1, 1, 0, 0}},
		"zoom_in_slide":  {{0, 1, 1, 0, 0}},
		"zoom_out_slide": {{0, 1, 1, 0, 0}},
		"start_present":  {{1, 1, 1, 1, 1}},
		"end_present":    {{1, 1, 1, 1, 1}},
	}
}

// Boost returns the confidence adjustment for predicting gesture with the
// given right-hand state: +0.2 on an exact pattern match, +0.1 when the best
// pattern agrees on 4 digits, +0.05 on 3, otherwise -0.1. Unknown gestures
// get 0.
func (t PatternTable) Boost(gesture string, state FingerState) float64 {
	patterns, ok := t[gesture]
	if !ok {
		return 0
	}

	best := 0
	for _, p := range patterns {
		if p == state {
			return 0.2
		}
		best = max(best, p.Matches(state))
	}

	switch {
	case best >= 4:
		return 0.1
	case best >= 3:
		return 0.05
	default:
		return -0.1
	}
}

// ApplyBoost adds boost to confidence and clamps the result to
// [MinBoostedConfidence, MaxBoostedConfidence]. A zero boost returns the
// confidence unchanged.
func ApplyBoost(confidence, boost float64) float64 {
	if boost == 0 {
		return confidence
	}
	return min(max(confidence+boost, MinBoostedConfidence), MaxBoostedConfidence)
}

// PatternSource is the result of loading a pattern table. Fallback is set when
// the built-in table had to be used; Reason says why.
type PatternSource struct {
	Table    PatternTable
	Fallback bool
	Reason   string
}

// LoadPatterns mines patterns from the dataset at path, falling back to
// DefaultPatterns when the file is missing, unreadable, or yields nothing.
func LoadPatterns(path string) PatternSource {
	res, err := dataset.Load(path)
	switch {
	case err != nil:
		return PatternSource{Table: DefaultPatterns(), Fallback: true, Reason: err.Error()}
	case res.Missing:
		return PatternSource{Table: DefaultPatterns(), Fallback: true, Reason: fmt.Sprintf("dataset not found: %s", path)}
	}
	return PatternsFromDataset(res)
}

// PatternsFromDataset mines an already loaded dataset.
func PatternsFromDataset(res dataset.Result) PatternSource {
	if res.Missing {
		return PatternSource{Table: DefaultPatterns(), Fallback: true, Reason: fmt.Sprintf("dataset not found: %s", res.Path)}
	}
	table := MinePatterns(res.Rows)
	if len(table) == 0 {
		return PatternSource{Table: DefaultPatterns(), Fallback: true, Reason: "no patterns in dataset"}
	}
	return PatternSource{Table: table}
}
