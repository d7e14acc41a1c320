package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/stocktake-app/stocktake/internal/feed"
	"github.com/stocktake-app/stocktake/internal/model"
	"github.com/stocktake-app/stocktake/internal/scan"
	"github.com/stocktake-app/stocktake/internal/service"
)

// Console is the terminal front end of the scan workflow. One keyboard
// is both the scanner wedge and the prompt input, so the console owns
// the line stream and routes it: while the decoder is started, lines
// are barcode detections; while it is stopped (a session is in
// flight), lines feed the active prompt. It implements both
// service.Decoder and scan.Prompter.
type Console struct {
	writer      io.Writer
	reader      *NonBlockingReader
	detections  chan string
	prompts     chan string
	symbologies []feed.Symbology
	pumpOnce    sync.Once
	scanning    atomic.Bool
}

// NewConsole creates a console over the given terminal streams.
func NewConsole(r io.Reader, w io.Writer, symbologies []feed.Symbology) *Console {
	return &Console{
		writer:      w,
		reader:      NewNonBlockingReader(r),
		detections:  make(chan string),
		prompts:     make(chan string, 8),
		symbologies: symbologies,
	}
}

// Start resumes barcode detection. The first call launches the line pump.
func (c *Console) Start(ctx context.Context) error {
	c.scanning.Store(true)
	c.pumpOnce.Do(func() {
		go c.pump(ctx)
	})
	return nil
}

// Stop pauses barcode detection; lines go to the active prompt instead.
func (c *Console) Stop() {
	c.scanning.Store(false)
}

// Attend launches the line pump for prompt input only, for setups
// where a dedicated scanner device is the barcode source and the
// console never acts as the decoder.
func (c *Console) Attend(ctx context.Context) {
	c.pumpOnce.Do(func() {
		go c.pump(ctx)
	})
}

// Detections returns the barcode delivery channel. It is closed when
// the input stream ends.
func (c *Console) Detections() <-chan string {
	return c.detections
}

func (c *Console) pump(ctx context.Context) {
	defer close(c.detections)
	defer close(c.prompts)

	for {
		line, err := c.reader.ReadLine(ctx)
		if err != nil {
			return
		}

		if c.scanning.Load() {
			if line == "" {
				continue
			}
			if !feed.Valid(line, c.symbologies) {
				c.Status(scan.StatusError, fmt.Sprintf("not a recognizable barcode: %s", line))
				continue
			}
			select {
			case c.detections <- line:
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case c.prompts <- line:
		default:
			slog.Debug("Prompt input dropped, no consumer", "line", line)
		}
	}
}

// QuantityInput prompts for a positive integer quantity and re-prompts
// until one arrives or the operator cancels with "c".
func (c *Console) QuantityInput(ctx context.Context, product model.Product) (int, error) {
	c.drainPrompts()

	for {
		fmt.Fprintln(c.writer, FormatPrompt(fmt.Sprintf("Quantity for %s (c to cancel):", product.Name)))

		line, err := c.readPrompt(ctx)
		if err != nil {
			return 0, err
		}

		switch line {
		case "c", "cancel":
			return 0, scan.ErrCaptureCancelled
		}

		quantity, convErr := strconv.Atoi(line)
		if convErr != nil || quantity <= 0 {
			c.Status(scan.StatusError, "enter a positive whole number")
			continue
		}
		return quantity, nil
	}
}

// AwaitDecision waits for an explicit confirm or cancel while the
// countdown runs. Enter confirms immediately; "c" cancels.
func (c *Console) AwaitDecision(ctx context.Context) (scan.Decision, error) {
	fmt.Fprintln(c.writer, SubtleStyle.Render("[Enter] commit now · [c] cancel"))

	for {
		line, err := c.readPrompt(ctx)
		if err != nil {
			return scan.DecisionCancel, err
		}

		switch line {
		case "", "y", "ok":
			return scan.DecisionConfirm, nil
		case "c", "n", "cancel":
			return scan.DecisionCancel, nil
		}
	}
}

// Countdown renders the remaining auto-commit ticks on one line.
func (c *Console) Countdown(remaining int, product model.Product, quantity int) {
	fmt.Fprintf(c.writer, "\r%s",
		InfoStyle.Render(fmt.Sprintf("⏳ committing %s ×%d in %d…", product.Name, quantity, remaining)))
	if remaining <= 0 {
		fmt.Fprintln(c.writer)
	}
}

// Status prints a transient status line.
func (c *Console) Status(kind scan.StatusKind, message string) {
	var rendered string
	switch kind {
	case scan.StatusSuccess:
		rendered = FormatSuccess(message)
	case scan.StatusWarning:
		rendered = FormatWarning(message)
	case scan.StatusError:
		rendered = FormatError(message)
	default:
		rendered = FormatInfo(message)
	}
	fmt.Fprintln(c.writer, rendered)
}

// Stats renders the display statistics line.
func (c *Console) Stats(stats service.LedgerStats) {
	fmt.Fprintln(c.writer, SubtleStyle.Render(fmt.Sprintf(
		"%s catalog: %d products · scanned: %d entries · total quantity: %d",
		StatsIcon, stats.CatalogProducts, stats.ScannedEntries, stats.TotalQuantity)))
}

func (c *Console) readPrompt(ctx context.Context) (string, error) {
	select {
	case line, ok := <-c.prompts:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// drainPrompts discards input typed before the prompt was shown so a
// stale line never answers a fresh question.
func (c *Console) drainPrompts() {
	for {
		select {
		case <-c.prompts:
		default:
			return
		}
	}
}
