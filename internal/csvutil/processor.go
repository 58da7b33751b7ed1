// Package csvutil provides generic CSV parsing with header-based column
// lookup.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Row is one CSV record with access to its values by header name.
type Row struct {
	columns map[string]int
	values  []string
}

// Get returns the value of the named column, or "" when the column is absent
// from the file. Column names are matched case-insensitively.
func (r Row) Get(name string) string {
	i, ok := r.columns[strings.ToLower(name)]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

// ProcessorOptions configures CSV processing behavior.
type ProcessorOptions struct {
	// SkipInvalid controls whether to skip invalid records or return an error.
	SkipInvalid bool
}

// ProcessCSV reads a CSV file and parses each record into type T. The first
// record is the header; the parser function receives each subsequent record
// as a Row with header-based access. Returns a slice of parsed items or an
// error.
func ProcessCSV[T any](filename string, parser func(Row) (T, error), opts ProcessorOptions) ([]T, error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer func() { _ = csvFile.Close() }()

	if fi, err := csvFile.Stat(); err != nil || fi.Size() == 0 {
		return nil, fmt.Errorf("CSV file is empty or cannot be read")
	}

	reader := csv.NewReader(csvFile)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %v", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var items []T

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("Error reading record", "error", err)
			continue
		}

		item, err := parser(Row{columns: columns, values: record})
		if err != nil {
			if opts.SkipInvalid {
				slog.Warn("Skipping invalid record", "error", err)
				continue
			}
			return nil, fmt.Errorf("invalid record: %v", err)
		}

		items = append(items, item)
	}

	return items, nil
}
