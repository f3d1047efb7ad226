package gesture

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/gestpipe/internal/dataset"
)

func TestTemplateFromRow(t *testing.T) {
	tests := []struct {
		name       string
		dx, dy     float64
		wantStatic bool
	}{
		{name: "no motion", dx: 0, dy: 0, wantStatic: true},
		{name: "just under epsilon", dx: 0.019, dy: -0.019, wantStatic: true},
		{name: "x at epsilon", dx: 0.02, dy: 0, wantStatic: false},
		{name: "large y", dx: 0, dy: -0.3, wantStatic: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := TemplateFromRow(dataset.Row{Label: "g", Right: [5]int{1, 0, 0, 0, 0}, DeltaX: tt.dx, DeltaY: tt.dy})
			if tmpl.IsStatic != tt.wantStatic {
				t.Errorf("IsStatic = %v, want %v", tmpl.IsStatic, tt.wantStatic)
			}
			wantType := TypeDynamic
			if tt.wantStatic {
				wantType = TypeStatic
			}
			if tmpl.Type() != wantType {
				t.Errorf("Type() = %q, want %q", tmpl.Type(), wantType)
			}
		})
	}
}

func TestTemplateSet(t *testing.T) {
	set := TemplatesFromRows([]dataset.Row{
		{Label: "next_slide", Right: [5]int{0, 1, 1, 0, 0}, MainAxisX: 1, DeltaX: 0.3},
		{Label: "home", Right: [5]int{1, 0, 0, 0, 0}, MainAxisX: 1},
		{Label: "home", Right: [5]int{1, 0, 0, 0, 1}, MainAxisX: 1},
	})

	if set.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", set.Len())
	}
	if diff := cmp.Diff([]string{"home", "next_slide"}, set.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	home, ok := set.Get("home")
	if !ok {
		t.Fatal("home not found")
	}
	if home.Right != (FingerState{1, 0, 0, 0, 1}) {
		t.Errorf("later duplicate should win, got %v", home.Right)
	}

	if _, ok := set.Get("missing"); ok {
		t.Error("unexpected template for missing")
	}

	var empty *TemplateSet
	if _, ok := empty.Get("home"); ok || empty.Len() != 0 {
		t.Error("nil set should be empty")
	}
}

func TestCompactBuilder(t *testing.T) {
	rows := []dataset.Row{
		// Static: mean magnitude below threshold.
		{Label: "home", Right: [5]int{1, 0, 0, 0, 0}, MainAxisX: 1, DeltaX: 0.004},
		{Label: "home", Right: [5]int{1, 0, 0, 0, 0}, MainAxisX: 1, DeltaX: 0.001},
		{Label: "home", Right: [5]int{1, 1, 0, 0, 0}, MainAxisX: 1, DeltaX: 0.0},
		// Horizontal dynamic: mode is right hand 01100 on X.
		{Label: "next_slide", Left: [5]int{1, 1, 1, 1, 1}, Right: [5]int{0, 1, 1, 0, 0}, MainAxisX: 1, DeltaX: 0.3, DeltaY: 0.05},
		{Label: "next_slide", Right: [5]int{0, 1, 1, 0, 0}, MainAxisX: 1, DeltaX: 0.25, DeltaY: -0.01},
		{Label: "next_slide", Right: [5]int{0, 1, 0, 0, 0}, MainAxisX: 1, DeltaX: 0.2, DeltaY: 0},
		// Vertical dynamic.
		{Label: "zoom_in", Right: [5]int{1, 1, 1, 0, 0}, MainAxisY: 1, DeltaX: 0.05, DeltaY: -0.3},
		{Label: "zoom_in", Right: [5]int{1, 1, 1, 0, 0}, MainAxisY: 1, DeltaX: 0.02, DeltaY: -0.2},
	}

	b := NewCompactBuilder()

	static, dynamic := b.ClassifyTypes(rows)
	if diff := cmp.Diff([]string{"home"}, static); diff != "" {
		t.Errorf("static mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"next_slide", "zoom_in"}, dynamic); diff != "" {
		t.Errorf("dynamic mismatch (-want +got):\n%s", diff)
	}

	compact, err := b.Build(rows, map[string]float64{"home": 0.97})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []dataset.Row{
		{Label: "home", Right: [5]int{1, 0, 0, 0, 0}, MainAxisX: 1, DeltaX: 0.001, Accuracy: 0.97},
		{Label: "next_slide", Right: [5]int{0, 1, 1, 0, 0}, MainAxisX: 1, DeltaX: 0.25, DeltaY: -0.01},
		{Label: "zoom_in", Right: [5]int{1, 1, 1, 0, 0}, MainAxisY: 1, DeltaX: 0.02, DeltaY: -0.2},
	}
	if diff := cmp.Diff(want, compact); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}

	if _, err := b.Build(nil, nil); err == nil {
		t.Error("expected error for empty dataset")
	}
}
