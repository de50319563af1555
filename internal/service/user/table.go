package user

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is a parsed import file: the header columns and one map per data row.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// HasColumn reports whether name appears in the header.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ParseCSV reads ';'-separated content with a header row. Header names are
// trimmed and lower-cased; short rows leave the trailing columns empty.
func ParseCSV(content []byte) (Table, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = ';'
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, errors.New("file is empty")
	}
	if err != nil {
		return Table{}, fmt.Errorf("read header: %w", err)
	}

	table := Table{Columns: make([]string, len(header))}
	for i, name := range header {
		table.Columns[i] = strings.ToLower(strings.TrimSpace(name))
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read rows: %w", err)
		}
		row := make(map[string]string, len(table.Columns))
		for i, name := range table.Columns {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
