package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row is one data row of a spreadsheet table. Line is 1-based and counts the header.
type Row struct {
	Line  int
	Cells []string
}

// Cell returns the trimmed cell at index i, or "" when i is out of range or negative.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[i])
}

// LineError records a line the CSV reader could not parse.
type LineError struct {
	Line int
	Err  error
}

// Table is a header row plus data rows, the common shape of both source encodings.
type Table struct {
	Header     []string
	Rows       []Row
	Unreadable []LineError
}

// ReadCSVTable reads a CSV export with a header row. Rows whose cells are all
// empty are dropped; lines the reader cannot parse are collected in Unreadable.
func ReadCSVTable(r io.Reader, encoding string) (*Table, error) {
	decoded, err := Decode(r, encoding)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(decoded)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	t := &Table{Header: header}
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			t.Unreadable = append(t.Unreadable, LineError{Line: line, Err: err})
			continue
		}
		line, _ := reader.FieldPos(0)
		if allEmpty(rec) {
			continue
		}
		t.Rows = append(t.Rows, Row{Line: line, Cells: rec})
	}
	return t, nil
}

// TableFromRows builds a table from sheet rows whose first row is the header.
func TableFromRows(rows []Row) *Table {
	t := &Table{}
	if len(rows) == 0 {
		return t
	}
	t.Header = rows[0].Cells
	t.Rows = rows[1:]
	return t
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
