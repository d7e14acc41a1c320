package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/stocktake-app/stocktake/internal/cli"
	"github.com/stocktake-app/stocktake/internal/export"
)

func exportCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export scanned entries to an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			if application.ledger.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("no data to export"))
				return nil
			}

			if err := os.MkdirAll(outputDir, 0o750); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}

			path := filepath.Join(outputDir, export.Filename(time.Now()))
			file, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}

			if err := export.Write(file, application.ledger.ExportRows()); err != nil {
				file.Close()
				os.Remove(path)
				return fmt.Errorf("writing export: %w", err)
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("closing export file: %w", err)
			}

			stats := application.ledger.Stats()
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("exported %d entries to %s", stats.ScannedEntries, path)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory to write the workbook into")

	return cmd
}
