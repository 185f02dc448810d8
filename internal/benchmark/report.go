package benchmark

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/pkg/errors"
)

// Summarize renders the three comparison tables: execution times in seconds,
// then uss and rss in megabytes. Rows follow the fixed operation order, one
// column per backend label; an operation a backend never ran renders blank.
func (h *Harness) Summarize(w io.Writer) {
	labels := h.labels()
	fmt.Fprintln(w, "Execution Times (seconds):")
	renderTable(w, h.times, labels)
	fmt.Fprintln(w, "\nUSS (MB):")
	renderTable(w, h.uss, labels)
	fmt.Fprintln(w, "\nRSS (MB):")
	renderTable(w, h.rss, labels)
}

func renderTable(w io.Writer, samples map[Operation]map[string]float64, labels []string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	// Don't uppercase the header values.
	t.Style().Format.Header = text.FormatDefault

	header := table.Row{"operation"}
	for _, label := range labels {
		header = append(header, label)
	}
	t.AppendHeader(header)

	for _, op := range AllOperations() {
		row := table.Row{string(op)}
		for _, label := range labels {
			if value, ok := samples[op][label]; ok {
				row = append(row, strconv.FormatFloat(value, 'f', 3, 64))
			} else {
				row = append(row, "")
			}
		}
		t.AppendRow(row)
	}
	t.Render()
}

// SaveCSV writes execution_times.csv, memory_uss.csv and memory_rss.csv
// under dir in the terminal tables' layout: one row per operation, one
// column per backend label, the index column's header left empty.
func (h *Harness) SaveCSV(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating output directory %s", dir)
	}
	labels := h.labels()
	files := []struct {
		name    string
		samples map[Operation]map[string]float64
	}{
		{"execution_times.csv", h.times},
		{"memory_uss.csv", h.uss},
		{"memory_rss.csv", h.rss},
	}
	for _, file := range files {
		if err := writeResultFile(filepath.Join(dir, file.name), file.samples, labels); err != nil {
			return err
		}
	}
	return nil
}

func writeResultFile(path string, samples map[Operation]map[string]float64, labels []string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(append([]string{""}, labels...)); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	for _, op := range AllOperations() {
		row := []string{string(op)}
		for _, label := range labels {
			if value, ok := samples[op][label]; ok {
				row = append(row, strconv.FormatFloat(value, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := writer.Write(row); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}
	writer.Flush()
	return errors.Wrapf(writer.Error(), "writing %s", path)
}
