// Package dataset reads the reference gesture dataset: one CSV row per
// recorded sample (or per gesture, for the compact form) with finger states
// and motion deltas.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// Row is one labelled sample.
type Row struct {
	Label     string
	Left      [5]int
	Right     [5]int
	MainAxisX int
	MainAxisY int
	DeltaX    float64
	DeltaY    float64
	Accuracy  float64
}

// Result is the outcome of loading a dataset file. A missing file is not an
// error: Missing is set and Rows is empty so callers take their fallback path.
type Result struct {
	Path    string
	Rows    []Row
	Missing bool
	Skipped int
}

// Labels returns the distinct labels in first-seen order.
func (r Result) Labels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, row := range r.Rows {
		if !seen[row.Label] {
			seen[row.Label] = true
			labels = append(labels, row.Label)
		}
	}
	return labels
}

// Load reads a dataset file.
func Load(path string) (Result, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Result{Path: path, Missing: true}, nil
	}
	if err != nil {
		return Result{Path: path}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	res, err := Read(f)
	res.Path = path
	return res, err
}

// Read parses dataset CSV. The label column may be named pose_label or
// gesture. Left finger columns are optional and read as closed when absent.
// Rows that fail to parse are counted in Skipped and otherwise ignored.
func Read(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read record: %w", err)
		}

		row, err := cols.parse(record)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Rows = append(res.Rows, row)
	}

	return res, nil
}

type columns struct {
	label     int
	left      [5]int
	right     [5]int
	mainAxisX int
	mainAxisY int
	deltaX    int
	deltaY    int
	accuracy  int
}

func resolveColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	lookup := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	c := columns{
		label:     lookup("pose_label"),
		mainAxisX: lookup("main_axis_x"),
		mainAxisY: lookup("main_axis_y"),
		deltaX:    lookup("delta_x"),
		deltaY:    lookup("delta_y"),
		accuracy:  lookup("accuracy"),
	}
	if c.label < 0 {
		c.label = lookup("gesture")
	}
	if c.label < 0 {
		return c, errors.New("dataset has no pose_label or gesture column")
	}

	for i := 0; i < 5; i++ {
		c.left[i] = lookup(fmt.Sprintf("left_finger_state_%d", i))
		c.right[i] = lookup(fmt.Sprintf("right_finger_state_%d", i))
		if c.right[i] < 0 {
			return c, fmt.Errorf("dataset missing right_finger_state_%d", i)
		}
	}

	for name, i := range map[string]int{"main_axis_x": c.mainAxisX, "main_axis_y": c.mainAxisY, "delta_x": c.deltaX, "delta_y": c.deltaY} {
		if i < 0 {
			return c, fmt.Errorf("dataset missing %s", name)
		}
	}

	return c, nil
}

func (c columns) parse(record []string) (Row, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := Row{Label: field(c.label)}
	if row.Label == "" {
		return row, errors.New("empty label")
	}

	var err error
	for i := 0; i < 5; i++ {
		if c.left[i] >= 0 {
			if row.Left[i], err = parseState(field(c.left[i])); err != nil {
				return row, err
			}
		}
		if row.Right[i], err = parseState(field(c.right[i])); err != nil {
			return row, err
		}
	}

	if row.MainAxisX, err = parseState(field(c.mainAxisX)); err != nil {
		return row, err
	}
	if row.MainAxisY, err = parseState(field(c.mainAxisY)); err != nil {
		return row, err
	}
	if row.DeltaX, err = strconv.ParseFloat(field(c.deltaX), 64); err != nil {
		return row, err
	}
	if row.DeltaY, err = strconv.ParseFloat(field(c.deltaY), 64); err != nil {
		return row, err
	}
	if s := field(c.accuracy); s != "" {
		row.Accuracy, _ = strconv.ParseFloat(s, 64)
	}

	return row, nil
}

// header is the column layout written by Write.
func header() []string {
	h := []string{"instance_id", "pose_label"}
	for i := 0; i < 5; i++ {
		h = append(h, fmt.Sprintf("left_finger_state_%d", i))
	}
	for i := 0; i < 5; i++ {
		h = append(h, fmt.Sprintf("right_finger_state_%d", i))
	}
	return append(h, "main_axis_x", "main_axis_y", "delta_x", "delta_y", "accuracy")
}

// Write encodes rows as dataset CSV, numbering instances from 1.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header()); err != nil {
		return err
	}
	for i, r := range rows {
		record := []string{strconv.Itoa(i + 1), r.Label}
		for _, v := range r.Left {
			record = append(record, strconv.Itoa(v))
		}
		for _, v := range r.Right {
			record = append(record, strconv.Itoa(v))
		}
		record = append(record,
			strconv.Itoa(r.MainAxisX),
			strconv.Itoa(r.MainAxisY),
			strconv.FormatFloat(r.DeltaX, 'f', -1, 64),
			strconv.FormatFloat(r.DeltaY, 'f', -1, 64),
			strconv.FormatFloat(r.Accuracy, 'f', -1, 64),
		)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes rows to path, replacing any existing file.
func Save(path string, rows []Row) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := Write(f, rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write dataset: %w", err)
	}
	return os.Rename(tmp, path)
}

// parseState accepts "0", "1" and float spellings such as "1.0".
func parseState(s string) (int, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
