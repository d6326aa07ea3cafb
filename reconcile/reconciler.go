package reconcile

import (
	"context"
	"fmt"
	"os"

	"sintetico/database"
	"sintetico/model"
	"sintetico/parsers"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Reconciler imports curriculum spreadsheets into the database.
// It is not safe for concurrent use; run one batch at a time.
type Reconciler struct {
	db       *sqlx.DB
	ref      *model.ReferenceData
	logger   *zap.Logger
	encoding string
	batchID  string
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithEncoding sets the text encoding of CSV exports (default utf-8).
func WithEncoding(encoding string) Option {
	return func(r *Reconciler) { r.encoding = encoding }
}

// WithBatchID overrides the generated batch identifier.
func WithBatchID(id string) Option {
	return func(r *Reconciler) { r.batchID = id }
}

// New returns a Reconciler bound to a reference-data snapshot.
func New(db *sqlx.DB, ref *model.ReferenceData, logger *zap.Logger, opts ...Option) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reconciler{
		db:       db,
		ref:      ref,
		encoding: "utf-8",
		batchID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logger.With(zap.String("batch", r.batchID))
	return r
}

// BatchID identifies the batch in logs and reports.
func (r *Reconciler) BatchID() string { return r.batchID }

// ImportCSVTree imports every CSV export found under root.
// Cancelling ctx stops the batch between files; files already committed stay.
func (r *Reconciler) ImportCSVTree(ctx context.Context, root string) (*Report, error) {
	jobs, skipped, err := PlanCSV(root)
	if err != nil {
		return nil, err
	}
	r.logger.Info("csv import started", zap.String("root", root), zap.Int("files", len(jobs)+len(skipped)))

	report := newReport(r.batchID)
	for _, o := range skipped {
		r.logOutcome(o)
		report.add(o)
	}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		o := r.ImportCSVFile(job)
		r.logOutcome(o)
		report.add(o)
	}
	r.logSummary(report)
	return report, nil
}

// ImportXLSXTree imports every packed-XML container found under root.
func (r *Reconciler) ImportXLSXTree(ctx context.Context, root string) (*Report, error) {
	jobs, skipped, err := PlanWorkbooks(root)
	if err != nil {
		return nil, err
	}
	r.logger.Info("xlsx import started", zap.String("root", root), zap.Int("workbooks", len(jobs)))

	report := newReport(r.batchID)
	for _, o := range skipped {
		r.logOutcome(o)
		report.add(o)
	}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		for _, o := range r.ImportWorkbook(job) {
			r.logOutcome(o)
			report.add(o)
		}
	}
	r.logSummary(report)
	return report, nil
}

// ImportCSVFile reads and imports one classified CSV export in its own transaction.
func (r *Reconciler) ImportCSVFile(job CSVJob) FileOutcome {
	o := FileOutcome{Path: job.Path, Source: SourceCSV, Class: job.Class, Phase: job.Phase, Field: job.Field, Grades: job.Grades}

	f, err := os.Open(job.Path)
	if err != nil {
		return fail(o, ReasonParseError, err.Error())
	}
	defer f.Close()

	table, err := parsers.ReadCSVTable(f, r.encoding)
	if err != nil {
		return fail(o, ReasonParseError, err.Error())
	}

	if job.Class == ClassContent {
		return r.importContents(o, table, parsers.ResolveColumns(table.Header, parsers.ContentLayout))
	}

	cols := parsers.ResolveColumns(table.Header, parsers.DescriptorLayout)
	scope := GradeScope{Grades: job.Grades}
	if job.Grade == "" {
		switch {
		case cols.Has(parsers.FieldGrade):
			scope.FromColumn = true
		case len(job.Grades) != 1:
			return fail(o, ReasonAmbiguousGrade, "no grade column and more than one grade in scope")
		}
	}
	return r.importDescriptors(o, table, cols, scope)
}

// ImportWorkbook imports sheet1 (content list) and sheet2 (descriptors) of a
// container. Each sheet is committed on its own.
func (r *Reconciler) ImportWorkbook(job WorkbookJob) []FileOutcome {
	base := FileOutcome{Source: SourceXLSX, Phase: job.Phase, Field: job.Field}

	wb, err := parsers.OpenWorkbookPath(job.Path)
	if err != nil {
		o := base
		o.Path = job.Path
		return []FileOutcome{fail(o, ReasonParseError, err.Error())}
	}
	defer wb.Close()

	contents := base
	contents.Path = job.Path + "#sheet1"
	contents.Class = ClassContent
	if rows, err := wb.Sheet(1); err != nil {
		contents = fail(contents, ReasonParseError, err.Error())
	} else {
		contents = r.importContents(contents, parsers.TableFromRows(rows), parsers.PositionalColumns(parsers.ContentLayout))
	}

	descriptors := base
	descriptors.Path = job.Path + "#sheet2"
	descriptors.Class = ClassDescriptor
	descriptors.Grades = model.GradesForPhase(job.Phase)
	if rows, err := wb.Sheet(2); err != nil {
		descriptors = fail(descriptors, ReasonParseError, err.Error())
	} else {
		scope := GradeScope{Grades: descriptors.Grades, FromColumn: true}
		descriptors = r.importDescriptors(descriptors, parsers.TableFromRows(rows), parsers.PositionalColumns(parsers.DescriptorLayout), scope)
	}

	return []FileOutcome{contents, descriptors}
}

func (r *Reconciler) importContents(o FileOutcome, t *parsers.Table, cols parsers.Columns) FileOutcome {
	if !cols.Has(parsers.FieldSequence) || !cols.Has(parsers.FieldTitle) {
		return fail(o, ReasonMissingColumns, "need sequence and title columns")
	}
	phase, ok := r.ref.Phase(o.Phase)
	if !ok {
		return fail(o, ReasonMissingReference, fmt.Sprintf("phase %d", o.Phase))
	}
	field, ok := r.ref.Field(o.Field)
	if !ok {
		return fail(o, ReasonMissingReference, o.Field)
	}

	records, skipped := ExtractContents(t, cols)
	err := r.inFileTx(func(tx *sqlx.Tx) error {
		for _, rec := range records {
			if _, err := database.UpsertContentItemInTx(tx, rec.Number, rec.Title, phase.ID, field.ID); err != nil {
				return fmt.Errorf("line %d: %w", rec.Line, err)
			}
		}
		return nil
	})
	if err != nil {
		return fail(o, ReasonStoreError, err.Error())
	}

	o.Status = StatusImported
	o.Accepted = len(records)
	o.Skipped = skipped
	return o
}

func (r *Reconciler) importDescriptors(o FileOutcome, t *parsers.Table, cols parsers.Columns, scope GradeScope) FileOutcome {
	if !cols.Has(parsers.FieldContentSequence) || !cols.Has(parsers.FieldDescription) {
		return fail(o, ReasonMissingColumns, "need content sequence and description columns")
	}
	phase, ok := r.ref.Phase(o.Phase)
	if !ok {
		return fail(o, ReasonMissingReference, fmt.Sprintf("phase %d", o.Phase))
	}
	field, ok := r.ref.Field(o.Field)
	if !ok {
		return fail(o, ReasonMissingReference, o.Field)
	}
	gradeIDs := make(map[string]int64, len(scope.Grades))
	for _, label := range scope.Grades {
		g, ok := r.ref.Grade(o.Phase, label)
		if !ok {
			return fail(o, ReasonMissingReference, fmt.Sprintf("grade %s of phase %d", label, o.Phase))
		}
		gradeIDs[label] = g.ID
	}

	records, skipped := ExtractDescriptors(t, cols, scope)
	accepted := 0
	var orphans []RowOutcome
	err := r.inFileTx(func(tx *sqlx.Tx) error {
		parents := make(map[int]int64)
		for _, rec := range records {
			contentID, cached := parents[rec.ContentNumber]
			if !cached {
				id, found, err := database.FindContentItemIDInTx(tx, rec.ContentNumber, phase.ID, field.ID)
				if err != nil {
					return fmt.Errorf("line %d: %w", rec.Line, err)
				}
				if !found {
					orphans = append(orphans, RowOutcome{Line: rec.Line, Reason: ReasonMissingContent})
					continue
				}
				contentID = id
				parents[rec.ContentNumber] = id
			}
			if err := database.UpsertDescriptorInTx(tx, rec.Number, rec.Description, contentID, gradeIDs[rec.Grade]); err != nil {
				return fmt.Errorf("line %d: %w", rec.Line, err)
			}
			accepted++
		}
		return nil
	})
	if err != nil {
		return fail(o, ReasonStoreError, err.Error())
	}

	o.Status = StatusImported
	o.Accepted = accepted
	o.Skipped = append(skipped, orphans...)
	return o
}

// inFileTx runs fn in a transaction that commits only if fn succeeds.
func (r *Reconciler) inFileTx(fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}

func fail(o FileOutcome, reason SkipReason, detail string) FileOutcome {
	o.Status = StatusSkipped
	o.Reason = reason
	o.Detail = detail
	o.Accepted = 0
	o.Skipped = nil
	return o
}

func (r *Reconciler) logOutcome(o FileOutcome) {
	logFileOutcome(r.logger, o)
}

func logFileOutcome(logger *zap.Logger, o FileOutcome) {
	fields := []zap.Field{
		zap.String("path", o.Path),
		zap.String("source", string(o.Source)),
	}
	if o.Phase != 0 {
		fields = append(fields, zap.Int("phase", o.Phase))
	}
	if o.Field != "" {
		fields = append(fields, zap.String("field", o.Field))
	}

	if o.Status == StatusSkipped {
		fields = append(fields, zap.String("reason", string(o.Reason)), zap.String("detail", o.Detail))
		logger.Warn("file skipped", fields...)
		return
	}

	fields = append(fields,
		zap.String("class", string(o.Class)),
		zap.Int("accepted", o.Accepted),
		zap.Int("skipped_rows", len(o.Skipped)),
	)
	logger.Info("file imported", fields...)
	for _, s := range o.Skipped {
		logger.Debug("row skipped",
			zap.String("path", o.Path),
			zap.Int("line", s.Line),
			zap.String("reason", string(s.Reason)),
		)
	}
}

func (r *Reconciler) logSummary(report *Report) {
	for _, l := range report.Summary.Lines() {
		r.logger.Info("imported",
			zap.Int("phase", l.Phase),
			zap.String("field", l.Field),
			zap.Int("contents", l.Contents),
			zap.Int("descriptors", l.Descriptors),
		)
	}
	totals := report.Totals()
	r.logger.Info("batch finished",
		zap.Int("files", len(report.Files)),
		zap.Int("skipped_files", len(report.SkippedFiles())),
		zap.Int("contents", totals.Contents),
		zap.Int("descriptors", totals.Descriptors),
	)
}
