package feed

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// LineDecoder adapts a line-oriented scanner device (USB HID and
// serial barcode scanners present as keyboard-style line input) to the
// service.Decoder contract. While stopped, incoming lines are
// discarded rather than queued, so a backlog of stale codes can never
// replay into a fresh session.
type LineDecoder struct {
	reader      io.Reader
	detections  chan string
	symbologies []Symbology
	startPump   sync.Once
	scanning    atomic.Bool
}

// NewLineDecoder creates a decoder over the given device stream,
// accepting only codes that match one of the configured symbologies.
func NewLineDecoder(r io.Reader, symbologies []Symbology) *LineDecoder {
	return &LineDecoder{
		reader:      r,
		detections:  make(chan string),
		symbologies: symbologies,
	}
}

// Start begins (or resumes) delivery of detections.
func (d *LineDecoder) Start(ctx context.Context) error {
	d.scanning.Store(true)
	d.startPump.Do(func() {
		go d.pump(ctx)
	})
	return nil
}

// Stop pauses delivery. Lines read while stopped are dropped.
func (d *LineDecoder) Stop() {
	d.scanning.Store(false)
}

// Detections returns the delivery channel. It is closed when the
// device stream ends.
func (d *LineDecoder) Detections() <-chan string {
	return d.detections
}

func (d *LineDecoder) pump(ctx context.Context) {
	defer close(d.detections)

	scanner := bufio.NewScanner(d.reader)
	for scanner.Scan() {
		code := strings.TrimSpace(scanner.Text())
		if code == "" {
			continue
		}
		if !d.scanning.Load() {
			slog.Debug("Decoder paused, dropping code", "code", code)
			continue
		}
		if !Valid(code, d.symbologies) {
			slog.Debug("Code rejected by symbology rules", "code", code)
			continue
		}

		select {
		case d.detections <- code:
		case <-ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil {
		slog.Warn("Scanner device stream failed", "error", err)
	}
}
