package parsers

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

const (
	sharedStringsPath = "xl/sharedStrings.xml"
	worksheetPattern  = "xl/worksheets/sheet%d.xml"

	// maxColumns is the widest sheet the format allows (column XFD).
	maxColumns = 16384
)

// Workbook is a packed-XML spreadsheet: an extracted container directory or an
// .xlsx archive, read through fs.FS.
type Workbook struct {
	fsys          fs.FS
	closer        io.Closer
	SharedStrings []string
}

// OpenWorkbook reads the shared-string table from fsys. A container without a
// shared-string table yields an empty table.
func OpenWorkbook(fsys fs.FS) (*Workbook, error) {
	wb := &Workbook{fsys: fsys}
	f, err := fsys.Open(sharedStringsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return wb, nil
		}
		return nil, fmt.Errorf("open %s: %w", sharedStringsPath, err)
	}
	defer f.Close()

	wb.SharedStrings, err = ParseSharedStrings(f)
	if err != nil {
		return nil, err
	}
	return wb, nil
}

// OpenWorkbookPath opens a container directory or an .xlsx file.
func OpenWorkbookPath(path string) (*Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return OpenWorkbook(os.DirFS(path))
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	wb, err := OpenWorkbook(zr)
	if err != nil {
		zr.Close()
		return nil, err
	}
	wb.closer = zr
	return wb, nil
}

// Close releases the underlying archive, if any.
func (wb *Workbook) Close() error {
	if wb.closer == nil {
		return nil
	}
	return wb.closer.Close()
}

// Sheet returns the rows of sheetN.xml (1-based), with cell values resolved.
func (wb *Workbook) Sheet(n int) ([]Row, error) {
	name := fmt.Sprintf(worksheetPattern, n)
	f, err := wb.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	rows, err := ParseWorksheet(f, wb.SharedStrings)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return rows, nil
}

type textRun struct {
	T string `xml:"t"`
}

type richText struct {
	T    *string   `xml:"t"`
	Runs []textRun `xml:"r"`
}

func (rt richText) String() string {
	var sb strings.Builder
	if rt.T != nil {
		sb.WriteString(*rt.T)
	}
	for _, r := range rt.Runs {
		sb.WriteString(r.T)
	}
	return sb.String()
}

type sharedStringsXML struct {
	Items []richText `xml:"si"`
}

// ParseSharedStrings parses a sharedStrings.xml table into its ordered strings.
// Rich-text items are concatenated run by run.
func ParseSharedStrings(r io.Reader) ([]string, error) {
	var sst sharedStringsXML
	if err := xml.NewDecoder(r).Decode(&sst); err != nil {
		return nil, fmt.Errorf("parse shared strings: %w", err)
	}
	out := make([]string, len(sst.Items))
	for i, item := range sst.Items {
		out[i] = item.String()
	}
	return out, nil
}

type cellXML struct {
	Ref    string    `xml:"r,attr"`
	Type   string    `xml:"t,attr"`
	V      *string   `xml:"v"`
	Inline *richText `xml:"is"`
}

type rowXML struct {
	Num   string    `xml:"r,attr"`
	Cells []cellXML `xml:"c"`
}

type worksheetXML struct {
	Rows []rowXML `xml:"sheetData>row"`
}

// CellValue resolves one cell: a shared-string reference whose index parses and
// is in range yields the shared string; otherwise the raw value text is used,
// then an inline string, then "".
func CellValue(cellType string, raw *string, inline string, shared []string) string {
	if raw == nil {
		return inline
	}
	if cellType == "s" {
		if idx, err := strconv.Atoi(strings.TrimSpace(*raw)); err == nil && idx >= 0 && idx < len(shared) {
			return shared[idx]
		}
	}
	return *raw
}

// ParseWorksheet reads a worksheet's rows. Cells land at the column named by
// their reference (gaps become ""); cells without a reference are appended.
// Rows with no cells are dropped.
func ParseWorksheet(r io.Reader, shared []string) ([]Row, error) {
	var ws worksheetXML
	if err := xml.NewDecoder(r).Decode(&ws); err != nil {
		return nil, err
	}

	var rows []Row
	for i, rx := range ws.Rows {
		if len(rx.Cells) == 0 {
			continue
		}
		line, err := strconv.Atoi(rx.Num)
		if err != nil {
			line = i + 1
		}

		cells := make([]string, 0, len(rx.Cells))
		for _, c := range rx.Cells {
			inline := ""
			if c.Inline != nil {
				inline = c.Inline.String()
			}
			val := CellValue(c.Type, c.V, inline, shared)

			col, ok := ColumnIndex(c.Ref)
			if !ok || col >= maxColumns {
				col = len(cells)
			}
			for len(cells) <= col {
				cells = append(cells, "")
			}
			cells[col] = val
		}
		rows = append(rows, Row{Line: line, Cells: cells})
	}
	return rows, nil
}

// ColumnIndex converts the letters of a cell reference ("C12") to a 0-based
// column index.
func ColumnIndex(ref string) (int, bool) {
	col := 0
	n := 0
	for _, r := range ref {
		switch {
		case r >= 'A' && r <= 'Z':
			col = col*26 + int(r-'A'+1)
		case r >= 'a' && r <= 'z':
			col = col*26 + int(r-'a'+1)
		default:
			if n == 0 {
				return 0, false
			}
			return col - 1, true
		}
		n++
		if n > 3 {
			return 0, false
		}
	}
	if n == 0 {
		return 0, false
	}
	return col - 1, true
}
