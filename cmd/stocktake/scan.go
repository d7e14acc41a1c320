package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stocktake-app/stocktake/internal/catalog"
	"github.com/stocktake-app/stocktake/internal/cli"
	"github.com/stocktake-app/stocktake/internal/feed"
	"github.com/stocktake-app/stocktake/internal/scan"
	"github.com/stocktake-app/stocktake/internal/service"
	"github.com/stocktake-app/stocktake/internal/speech"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Start the interactive scan session loop",
		Long: `Start the scan workflow: barcodes are matched against the cached
catalog, a quantity is captured by voice or keyboard, and each scan is
committed to the ledger after a confirmation countdown.

By default the terminal itself is the scanner wedge: scanned (or typed)
codes arrive as input lines. Pass --device to read codes from a
dedicated scanner device instead.`,
		RunE: runScan,
	}

	cmd.Flags().String("device", "", "scanner device path (default: read codes from stdin)")

	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	device, _ := cmd.Flags().GetString("device")

	handler := cli.NewInterruptHandler(cmd.OutOrStdout())
	ctx := handler.HandleInterrupts(cmd.Context())

	application, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	// First run with an empty cache: pull the catalog before scanning.
	if application.catalog.Len() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("no cached catalog, loading from source..."))
		application.loader.ShowProgress = true
		count, loadErr := application.loader.Load(ctx)
		if loadErr != nil {
			return fmt.Errorf("initial catalog load failed: %w", loadErr)
		}
		application.loader.ShowProgress = false
		if persistErr := application.ledger.Persist(ctx); persistErr != nil {
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("catalog cached in memory only"))
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("loaded %d products", count)))
	}

	symbologies := feed.DefaultSymbologies()
	console := cli.NewConsole(os.Stdin, cmd.OutOrStdout(), symbologies)

	var decoder service.Decoder = console
	if device != "" {
		f, openErr := os.Open(device)
		if openErr != nil {
			return fmt.Errorf("failed to open scanner device: %w", openErr)
		}
		defer func() { _ = f.Close() }()
		decoder = feed.NewLineDecoder(f, symbologies)
		console.Attend(ctx)
	}

	var recognizer service.Recognizer
	if command := viper.GetString("speech.command"); command != "" {
		recognizer = speech.NewExecRecognizer(command)
	}

	speaker := cli.NewTerminalSpeaker(cmd.OutOrStdout())

	cfg := scan.DefaultConfig()
	if retries := viper.GetInt("scan.voice_retries"); retries > 0 {
		cfg.MaxVoiceRetries = retries
	}

	engine := scan.New(application.catalog, application.ledger, decoder, recognizer, speaker, console, cfg)

	// Background probe for catalog updates while scanning.
	watcher := catalog.NewWatcher(application.loader, func(update catalog.Update) {
		console.Status(scan.StatusInfo,
			fmt.Sprintf("catalog update available (%s), run 'stocktake catalog refresh' to apply", update.Version))
	})
	go watcher.Run(ctx)

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("scanning, present a barcode (Ctrl-C to quit)"))
	console.Stats(application.ledger.Stats())

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	console.Stats(application.ledger.Stats())
	return nil
}
