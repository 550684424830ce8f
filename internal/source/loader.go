// Package source loads the raw input artifacts of a run and converts their
// rows into typed records.
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrMissingInput is returned when a required input artifact does not exist.
var ErrMissingInput = errors.New("required input artifact not found")

// Loader reads one source artifact (JSON, JSONL or CSV).
type Loader struct {
	path   string
	source Name
}

// NewLoader creates a loader for the artifact at path produced by source.
func NewLoader(path string, source Name) *Loader {
	return &Loader{
		path:   path,
		source: source,
	}
}

// Load reads the whole artifact into memory.
func (l *Loader) Load() (*Table, error) {
	if _, err := os.Stat(l.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, l.path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", l.path, err)
	}

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", l.path, err)
	}
	defer file.Close()

	var table *Table
	switch ext := strings.ToLower(filepath.Ext(l.path)); ext {
	case ".json":
		table, err = ReadJSON(file, l.source)
	case ".jsonl":
		table, err = ReadJSONL(file, l.source)
	case ".csv":
		table, err = ReadCSV(file, l.source)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .json, .jsonl, .csv)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.path, err)
	}

	slog.Debug("Loaded source table", "source", l.source, "path", l.path, "rows", len(table.Rows), "columns", len(table.Columns))
	return table, nil
}

// defaultColumns returns the documented schema of a source.
func defaultColumns(source Name) []string {
	switch source {
	case Scrape:
		return append([]string(nil), ScrapeColumns...)
	case API:
		return append([]string(nil), APIColumns...)
	default:
		return nil
	}
}

// ReadJSON reads a scrape document of the form {"data": [...]}. A bare
// top-level array is accepted as well.
func ReadJSON(r io.Reader, source Name) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var items []map[string]json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to parse JSON array: %w", err)
		}
	} else {
		var doc struct {
			Data []map[string]json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON document: %w", err)
		}
		if doc.Data == nil {
			return nil, errors.New(`JSON document has no "data" list`)
		}
		items = doc.Data
	}

	table := &Table{Source: source, Columns: defaultColumns(source)}
	for _, item := range items {
		table.Rows = append(table.Rows, jsonRow(item))
	}
	table.Columns = mergeColumns(table.Columns, table.Rows)
	return table, nil
}

// ReadJSONL reads one JSON object per line.
func ReadJSONL(r io.Reader, source Name) (*Table, error) {
	table := &Table{Source: source, Columns: defaultColumns(source)}

	scanner := bufio.NewScanner(r)
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var item map[string]json.RawMessage
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		table.Rows = append(table.Rows, jsonRow(item))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading JSONL: %w", err)
	}

	table.Columns = mergeColumns(table.Columns, table.Rows)
	return table, nil
}

// ReadCSV reads a CSV file with a header row. Empty cells are null.
func ReadCSV(r io.Reader, source Name) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{Source: source, Columns: defaultColumns(source)}, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	table := &Table{Source: source, Columns: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(table.Rows)+2, err)
		}

		row := make(Row, len(header))
		for i, column := range header {
			if i >= len(record) || record[i] == "" {
				row[column] = nil
				continue
			}
			value := record[i]
			row[column] = &value
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// jsonRow converts decoded JSON values to raw text cells. Numbers keep their
// literal form so numeric ISBNs do not pick up a float representation.
func jsonRow(item map[string]json.RawMessage) Row {
	row := make(Row, len(item))
	for key, raw := range item {
		row[key] = jsonCell(raw)
	}
	return row
}

func jsonCell(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		return &s
	case '[':
		var parts []any
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			s := string(trimmed)
			return &s
		}
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p == nil {
				continue
			}
			values = append(values, fmt.Sprint(p))
		}
		s := strings.Join(values, "; ")
		return &s
	default:
		s := string(trimmed)
		return &s
	}
}

// mergeColumns appends keys seen in rows but absent from the schema, in
// sorted order so repeated runs agree on the column list.
func mergeColumns(columns []string, rows []Row) []string {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	var extra []string
	for _, row := range rows {
		for key := range row {
			if !known[key] {
				known[key] = true
				extra = append(extra, key)
			}
		}
	}
	sort.Strings(extra)
	return append(columns, extra...)
}
