package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"sintetico/config"
	"sintetico/reconcile"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert curriculum spreadsheets to other formats",
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv [xlsx-dir] [csv-dir]",
	Short: "Write every workbook sheet as a CSV file under csv-dir/Fase_N",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		root, outDir := cfg.XLSXRoot, cfg.CSVRoot
		if len(args) > 0 {
			root = args[0]
		}
		if len(args) > 1 {
			outDir = args[1]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		exported, skipped, err := reconcile.ExportWorkbooks(ctx, root, outDir, logger)
		printExport(cmd.OutOrStdout(), exported, skipped)
		return err
	},
}

func init() {
	exportCmd.AddCommand(exportCSVCmd)
}

func printExport(w io.Writer, exported []reconcile.ExportedSheet, skipped []reconcile.FileOutcome) {
	for _, s := range exported {
		fmt.Fprintf(w, "  %s hoja %d -> %s (%d filas)\n", s.Workbook, s.Sheet, s.Path, s.Rows)
	}
	if len(skipped) > 0 {
		fmt.Fprintf(w, "Libros omitidos: %d\n", len(skipped))
		for _, f := range skipped {
			fmt.Fprintf(w, "  %s: %s %s\n", f.Path, f.Reason, f.Detail)
		}
	}
	fmt.Fprintf(w, "Total: %d archivos CSV\n", len(exported))
}
