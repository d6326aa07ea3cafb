package reconcile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"sintetico/database"
	"sintetico/parsers"
)

// ExportedSheet is one worksheet written out as a CSV file.
type ExportedSheet struct {
	Workbook string `json:"workbook"`
	Sheet    int    `json:"sheet"`
	Path     string `json:"path"`
	Rows     int    `json:"rows"`
}

var fieldSlugs = map[string]string{
	database.FieldSaberes:   "Saberes",
	database.FieldLenguajes: "Lenguajes",
	database.FieldHumano:    "Humano",
	database.FieldEtica:     "Etica",
}

// ExportWorkbooks writes every worksheet of the workbooks found under root to
// outDir/Fase_N, named so that ImportCSVTree reads the result back: the first
// sheet becomes <name>_contenidos.csv, the second <name>_pdas.csv and any other
// <name>_hojaN.csv. A workbook that cannot be read is reported and skipped.
func ExportWorkbooks(ctx context.Context, root, outDir string, logger *zap.Logger) ([]ExportedSheet, []FileOutcome, error) {
	jobs, skipped, err := PlanWorkbooks(root)
	if err != nil {
		return nil, nil, err
	}
	for _, o := range skipped {
		logFileOutcome(logger, o)
	}

	var exported []ExportedSheet
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return exported, skipped, err
		}
		sheets, err := exportWorkbook(job, outDir)
		exported = append(exported, sheets...)
		for _, s := range sheets {
			logger.Debug("sheet exported", zap.String("workbook", s.Workbook), zap.Int("sheet", s.Sheet), zap.String("csv", s.Path), zap.Int("rows", s.Rows))
		}
		if err != nil {
			o := skippedFile(job.Path, SourceXLSX, ReasonParseError, err.Error())
			o.Phase, o.Field = job.Phase, job.Field
			logFileOutcome(logger, o)
			skipped = append(skipped, o)
		}
	}
	logger.Info("export finished", zap.Int("sheets", len(exported)), zap.Int("skipped", len(skipped)))
	return exported, skipped, nil
}

func exportWorkbook(job WorkbookJob, outDir string) ([]ExportedSheet, error) {
	wb, err := parsers.OpenWorkbookPath(job.Path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	dir := filepath.Join(outDir, fmt.Sprintf("Fase_%d", job.Phase))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	base := exportBaseName(job)

	var out []ExportedSheet
	for n := 1; ; n++ {
		rows, err := wb.Sheet(n)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return out, err
		}
		path := filepath.Join(dir, base+"_"+sheetSuffix(n)+".csv")
		if err := writeCSV(path, rows); err != nil {
			return out, err
		}
		out = append(out, ExportedSheet{Workbook: job.Path, Sheet: n, Path: path, Rows: len(rows)})
	}
	if len(out) == 0 {
		return nil, errors.New("workbook has no worksheets")
	}
	return out, nil
}

func sheetSuffix(n int) string {
	switch n {
	case 1:
		return "contenidos"
	case 2:
		return "pdas"
	default:
		return fmt.Sprintf("hoja%d", n)
	}
}

// exportBaseName cleans the workbook name for use in a file name. A name that
// would be read back as a different record class or a single grade is
// replaced by the field's short name.
func exportBaseName(job WorkbookJob) string {
	name := filepath.Base(job.Path)
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".xlsx") {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), " ")

	_, hasClass := DetectClass(name)
	_, hasGrade := DetectGrade(name, job.Phase)
	if name == "" || hasClass || hasGrade {
		return fieldSlugs[job.Field]
	}
	return name
}

// writeCSV writes rows padded to the widest row, as UTF-8 without a BOM.
func writeCSV(path string, rows []parsers.Row) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	width := 0
	for _, r := range rows {
		width = max(width, len(r.Cells))
	}
	w := csv.NewWriter(f)
	for _, r := range rows {
		record := make([]string, width)
		copy(record, r.Cells)
		if err := w.Write(record); err != nil {
			return fmt.Errorf("%s line %d: %w", path, r.Line, err)
		}
	}
	w.Flush()
	return w.Error()
}
