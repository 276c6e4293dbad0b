package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/complaint-register/api/internal/app"
	"github.com/complaint-register/api/internal/complaint"
	"github.com/complaint-register/api/internal/importer"
)

func newImportCmd(e *env) *cobra.Command {
	var (
		dryRun bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import complaints from an .xlsx, .xlsm or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			st, closeStore, err := app.OpenStore(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			mode := importer.ModeApply
			if dryRun {
				mode = importer.ModeDryRun
			}
			rc := importer.NewReconciler(e.cfg.Mapper(), complaint.NewService(st, e.logger), e.logger, importer.Options{
				MaxRows: e.cfg.ImportMaxRows,
				TempDir: os.TempDir(),
			})
			report, err := rc.ImportFile(ctx, f, filepath.Base(path), mode)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			for _, row := range report.Rows {
				fmt.Fprintf(out, "row %d\t%s\t%s\t%s\n", row.RowNumber, row.Result, row.Serial, row.Message)
			}
			fmt.Fprintf(out, "%s: %d rows, %d created, %d skipped, %d failed\n",
				report.Mode, report.Summary.RowsTotal, report.Summary.RowsCreated, report.Summary.RowsSkipped, report.Summary.RowsError)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Map and validate rows without saving them")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	return cmd
}
