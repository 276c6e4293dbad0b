package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/complaint-register/api/internal/app"
	"github.com/complaint-register/api/internal/complaint"
	"github.com/complaint-register/api/internal/importer"
)

func newExportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write every complaint to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, closeStore, err := app.OpenStore(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			page, err := complaint.NewService(st, e.logger).List(ctx, complaint.ListQuery{SortBy: complaint.DefaultSortField})
			if err != nil {
				return err
			}
			f, err := importer.ExportWorkbook(page.Records)
			if err != nil {
				return err
			}
			if err := saveWorkbook(f, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d complaints to %s\n", len(page.Records), args[0])
			return nil
		},
	}
}

func newSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample <file.xlsx>",
		Short: "Write the import template with one example row",
		Args:  cobra.ExactArgs(1),
		// The template needs neither configuration nor a database.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := importer.SampleWorkbook()
			if err != nil {
				return err
			}
			if err := saveWorkbook(f, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote sample workbook to %s\n", args[0])
			return nil
		},
	}
}

func saveWorkbook(f *excelize.File, path string) error {
	defer f.Close()
	if ext := strings.ToLower(path); !strings.HasSuffix(ext, ".xlsx") && !strings.HasSuffix(ext, ".xlsm") {
		return fmt.Errorf("output file %s must end in .xlsx or .xlsm", path)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
