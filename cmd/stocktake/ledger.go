package main

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stocktake-app/stocktake/internal/cli"
	"github.com/stocktake-app/stocktake/internal/common"
)

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and edit the scanned products ledger",
	}

	cmd.AddCommand(ledgerListCmd())
	cmd.AddCommand(ledgerEditCmd())
	cmd.AddCommand(ledgerClearCmd())

	return cmd
}

func ledgerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scanned entries in commit order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			entries := application.ledger.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("no scanned entries yet"))
				return nil
			}

			cli.RenderEntries(cmd.OutOrStdout(), entries)

			stats := application.ledger.Stats()
			fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render(
				fmt.Sprintf("%d entries · total quantity %d", stats.ScannedEntries, stats.TotalQuantity)))
			return nil
		},
	}
}

func ledgerEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <quantity>",
		Short: "Change the quantity of a ledger entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return common.NewUserError(
					fmt.Sprintf("'%s' is not a valid entry id", args[0]),
					fmt.Errorf("parsing entry id: %w", err),
				)
			}

			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return common.NewUserError(
					fmt.Sprintf("'%s' is not a valid quantity", args[1]),
					fmt.Errorf("parsing quantity: %w", err),
				)
			}

			application, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.ledger.EditQuantity(cmd.Context(), id, quantity); err != nil {
				switch {
				case errors.Is(err, common.ErrNotFound):
					return common.NewUserError(fmt.Sprintf("no entry with id %d", id), err)
				case errors.Is(err, common.ErrValidation):
					return common.NewUserError("quantity must be a positive number", err)
				default:
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("entry %d quantity set to %d", id, quantity)))
			return nil
		},
	}
}

func ledgerClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every scanned entry (passphrase required)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			if application.ledger.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("ledger is already empty"))
				return nil
			}

			reader := bufio.NewReader(cmd.InOrStdin())
			for {
				fmt.Fprint(cmd.OutOrStdout(), "Enter passphrase to clear the ledger (empty to cancel): ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading passphrase: %w", err)
				}

				secret := strings.TrimSpace(line)
				if secret == "" {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("cancelled, ledger unchanged"))
					return nil
				}

				clearErr := application.ledger.ClearAll(cmd.Context(), secret)
				if errors.Is(clearErr, common.ErrAuth) {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatError("wrong passphrase"))
					continue
				}
				if clearErr != nil {
					return clearErr
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("ledger cleared"))
				return nil
			}
		},
	}
}
