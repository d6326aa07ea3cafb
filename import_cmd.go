package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sintetico/config"
	"sintetico/database"
	"sintetico/loader"
	"sintetico/reconcile"
)

var (
	resetBeforeImport bool
	csvEncoding       string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import curriculum spreadsheets",
}

var importCSVCmd = &cobra.Command{
	Use:   "csv [dir]",
	Short: "Import a tree of CSV exports (Fase_N/*.csv)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		root := cfg.CSVRoot
		if len(args) == 1 {
			root = args[0]
		}
		encoding := cfg.CSVEncoding
		if csvEncoding != "" {
			encoding = csvEncoding
		}
		return runImport(cmd, func(ctx context.Context, r *reconcile.Reconciler) (*reconcile.Report, error) {
			return r.ImportCSVTree(ctx, root)
		}, reconcile.WithEncoding(encoding))
	},
}

var importXLSXCmd = &cobra.Command{
	Use:   "xlsx [dir]",
	Short: "Import extracted workbook directories or .xlsx files",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := config.GetConfig().XLSXRoot
		if len(args) == 1 {
			root = args[0]
		}
		return runImport(cmd, func(ctx context.Context, r *reconcile.Reconciler) (*reconcile.Report, error) {
			return r.ImportXLSXTree(ctx, root)
		})
	},
}

func init() {
	importCmd.PersistentFlags().BoolVar(&resetBeforeImport, "reset", false, "delete all content items and PDAs before importing")
	importCSVCmd.Flags().StringVar(&csvEncoding, "encoding", "", "CSV text encoding: utf-8, windows-1252, iso-8859-1")
	importCmd.AddCommand(importCSVCmd, importXLSXCmd)
}

type importFunc func(ctx context.Context, r *reconcile.Reconciler) (*reconcile.Report, error)

func runImport(cmd *cobra.Command, run importFunc, opts ...reconcile.Option) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	db, err := loader.Prepare(config.GetConfig().DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := importBatch(ctx, db, logger, resetBeforeImport, run, opts...)
	if report != nil {
		printReport(cmd.OutOrStdout(), report)
	}
	return err
}

// importBatch optionally clears the curriculum tables, then runs one batch
// against a fresh reference-data snapshot.
func importBatch(ctx context.Context, db *sqlx.DB, logger *zap.Logger, reset bool, run importFunc, opts ...reconcile.Option) (*reconcile.Report, error) {
	if reset {
		if err := database.ClearCurriculum(db); err != nil {
			return nil, err
		}
		logger.Info("curriculum tables cleared")
	}
	ref, err := database.LoadReferenceData(db)
	if err != nil {
		return nil, err
	}
	return run(ctx, reconcile.New(db, ref, logger, opts...))
}

func printReport(w io.Writer, report *reconcile.Report) {
	fmt.Fprintf(w, "Lote %s\n", report.BatchID)
	for _, l := range report.Summary.Lines() {
		fmt.Fprintf(w, "  Fase %d  %-40s contenidos=%-4d pdas=%d\n", l.Phase, l.Field, l.Contents, l.Descriptors)
	}
	skipped := report.SkippedFiles()
	if len(skipped) > 0 {
		fmt.Fprintf(w, "Archivos omitidos: %d\n", len(skipped))
		for _, f := range skipped {
			fmt.Fprintf(w, "  %s: %s %s\n", f.Path, f.Reason, f.Detail)
		}
	}
	t := report.Totals()
	fmt.Fprintf(w, "Total: %d contenidos, %d pdas\n", t.Contents, t.Descriptors)
}
