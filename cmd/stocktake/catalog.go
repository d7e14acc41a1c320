package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stocktake-app/stocktake/internal/cli"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the cached product catalog",
	}

	cmd.AddCommand(catalogRefreshCmd())
	cmd.AddCommand(catalogStatusCmd())
	cmd.AddCommand(catalogCheckCmd())

	return cmd
}

func catalogRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload the catalog from its source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			application, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer application.Close()

			application.loader.ShowProgress = true
			count, err := application.loader.Load(ctx)
			if err != nil {
				if application.catalog.Len() > 0 {
					fmt.Fprintln(cmd.OutOrStdout(),
						cli.FormatWarning("source unreachable, keeping cached catalog"))
					return nil
				}
				return err
			}

			if err := application.ledger.Persist(ctx); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("catalog loaded but cache write failed"))
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("loaded %d products", count)))
			return nil
		},
	}
}

func catalogStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog cache statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.TitleStyle.Render("Catalog"))
			fmt.Fprintf(out, "  source:   %s\n", application.loader.Source())
			fmt.Fprintf(out, "  products: %d\n", application.catalog.Len())
			fmt.Fprintf(out, "  version:  %s\n", orNone(application.catalog.Version()))
			if syncedAt := application.catalog.SyncedAt(); !syncedAt.IsZero() {
				fmt.Fprintf(out, "  synced:   %s\n", syncedAt.Format("2006-01-02 15:04:05"))
			}

			stats := application.ledger.Stats()
			fmt.Fprintf(out, "  scanned:  %d entries (total quantity %d)\n",
				stats.ScannedEntries, stats.TotalQuantity)
			return nil
		},
	}
}

func catalogCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe the source for a newer catalog version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			version, changed, err := application.loader.Check(cmd.Context())
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("source unreachable (this is normal offline)"))
				return nil
			}

			if changed {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(
					fmt.Sprintf("update available: %s (cached: %s)", version, orNone(application.catalog.Version()))))
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("run 'stocktake catalog refresh' to apply"))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("catalog is up to date"))
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
