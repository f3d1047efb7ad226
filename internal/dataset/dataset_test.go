package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const compactHeader = "instance_id,pose_label," +
	"left_finger_state_0,left_finger_state_1,left_finger_state_2,left_finger_state_3,left_finger_state_4," +
	"right_finger_state_0,right_finger_state_1,right_finger_state_2,right_finger_state_3,right_finger_state_4," +
	"main_axis_x,main_axis_y,delta_x,delta_y,accuracy\n"

func TestRead(t *testing.T) {
	t.Run("compact format", func(t *testing.T) {
		input := compactHeader +
			"1,home,0,0,0,0,0,1,0,0,0,0,1,0,0.001,0.0,0.95\n" +
			"2,next_slide,0,0,0,0,0,0,1,1,0,0,1,0,0.3,0.0,0.9\n"

		res, err := Read(strings.NewReader(input))
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}

		want := []Row{
			{Label: "home", Right: [5]int{1, 0, 0, 0, 0}, MainAxisX: 1, DeltaX: 0.001, Accuracy: 0.95},
			{Label: "next_slide", Right: [5]int{0, 1, 1, 0, 0}, MainAxisX: 1, DeltaX: 0.3, Accuracy: 0.9},
		}
		if diff := cmp.Diff(want, res.Rows); diff != "" {
			t.Errorf("rows mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"home", "next_slide"}, res.Labels()); diff != "" {
			t.Errorf("labels mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("gesture column and no left hand", func(t *testing.T) {
		input := "gesture,right_finger_state_0,right_finger_state_1,right_finger_state_2,right_finger_state_3,right_finger_state_4,main_axis_x,main_axis_y,delta_x,delta_y\n" +
			"end,0.0,0.0,0.0,0.0,1.0,0,1,0,-0.01\n"

		res, err := Read(strings.NewReader(input))
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if len(res.Rows) != 1 {
			t.Fatalf("got %d rows, want 1", len(res.Rows))
		}
		row := res.Rows[0]
		if row.Label != "end" || row.Right != [5]int{0, 0, 0, 0, 1} || row.MainAxisY != 1 {
			t.Errorf("unexpected row %+v", row)
		}
	})

	t.Run("bad rows are skipped", func(t *testing.T) {
		input := compactHeader +
			"1,home,0,0,0,0,0,x,0,0,0,0,1,0,0,0,0.9\n" +
			"2,,0,0,0,0,0,1,0,0,0,0,1,0,0,0,0.9\n" +
			"3,home,0,0,0,0,0,1,0,0,0,0,1,0,0,0,0.9\n"

		res, err := Read(strings.NewReader(input))
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if len(res.Rows) != 1 || res.Skipped != 2 {
			t.Errorf("rows = %d, skipped = %d; want 1, 2", len(res.Rows), res.Skipped)
		}
	})

	t.Run("missing columns", func(t *testing.T) {
		tests := []string{
			"foo,bar\n",
			"pose_label,right_finger_state_0\n",
			"pose_label,right_finger_state_0,right_finger_state_1,right_finger_state_2,right_finger_state_3,right_finger_state_4,main_axis_x\n",
		}
		for _, header := range tests {
			if _, err := Read(strings.NewReader(header)); err == nil {
				t.Errorf("expected error for header %q", header)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing file is a fallback result", func(t *testing.T) {
		res, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !res.Missing || len(res.Rows) != 0 {
			t.Errorf("expected missing result, got %+v", res)
		}
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "compact.csv")
		data := compactHeader + "1,home,0,0,0,0,0,1,0,0,0,0,1,0,0,0,0.95\n"
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}

		res, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if res.Missing || len(res.Rows) != 1 || res.Path != path {
			t.Errorf("unexpected result %+v", res)
		}
	})
}

func TestSave(t *testing.T) {
	rows := []Row{
		{Label: "home", Right: [5]int{1, 0, 0, 0, 0}, MainAxisX: 1, DeltaX: 0.003, Accuracy: 0.97},
		{Label: "zoom_in", Right: [5]int{1, 1, 1, 0, 0}, MainAxisY: 1, DeltaX: 0.02, DeltaY: -0.2},
	}
	path := filepath.Join(t.TempDir(), "compact.csv")
	if err := Save(path, rows); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), compactHeader) {
		t.Errorf("header mismatch:\n%s", data)
	}

	res, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(rows, res.Rows); diff != "" {
		t.Errorf("saved rows mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}
}
