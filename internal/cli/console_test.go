package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocktake-app/stocktake/internal/feed"
	"github.com/stocktake-app/stocktake/internal/model"
	"github.com/stocktake-app/stocktake/internal/scan"
)

// syncBuffer makes bytes.Buffer safe to share with the console pump.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestConsole_RoutesBarcodesWhileScanning(t *testing.T) {
	pr, pw := io.Pipe()
	out := &syncBuffer{}
	console := NewConsole(pr, out, []feed.Symbology{feed.EAN13})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, console.Start(ctx))

	go func() {
		_, _ = pw.Write([]byte("zzz not a code\n"))
		_, _ = pw.Write([]byte("6221031954016\n"))
	}()

	select {
	case code := <-console.Detections():
		assert.Equal(t, "6221031954016", code)
	case <-time.After(2 * time.Second):
		t.Fatal("detection never arrived")
	}

	assert.Contains(t, out.String(), "not a recognizable barcode")
	require.NoError(t, pw.Close())
}

func TestConsole_QuantityInput(t *testing.T) {
	pr, pw := io.Pipe()
	out := &syncBuffer{}
	console := NewConsole(pr, out, []feed.Symbology{feed.EAN13})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	console.Attend(ctx)

	// Typed after the prompt is up; anything earlier would be treated
	// as stale input and discarded.
	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = pw.Write([]byte("abc\n"))
		_, _ = pw.Write([]byte("-3\n"))
		_, _ = pw.Write([]byte("0\n"))
		_, _ = pw.Write([]byte("7\n"))
	}()

	quantity, err := console.QuantityInput(ctx, model.Product{Code: "1", Name: "Tea"})
	require.NoError(t, err)
	assert.Equal(t, 7, quantity)
	assert.Contains(t, out.String(), "positive whole number")

	require.NoError(t, pw.Close())
}

func TestConsole_QuantityInputCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	console := NewConsole(pr, &syncBuffer{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	console.Attend(ctx)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = pw.Write([]byte("c\n"))
	}()

	_, err := console.QuantityInput(ctx, model.Product{Code: "1", Name: "Tea"})
	require.ErrorIs(t, err, scan.ErrCaptureCancelled)
	require.NoError(t, pw.Close())
}

func TestConsole_AwaitDecision(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  scan.Decision
	}{
		{name: "enter confirms", input: "\n", want: scan.DecisionConfirm},
		{name: "y confirms", input: "y\n", want: scan.DecisionConfirm},
		{name: "c cancels", input: "c\n", want: scan.DecisionCancel},
		{name: "n cancels", input: "n\n", want: scan.DecisionCancel},
		{name: "noise then cancel", input: "what\ncancel\n", want: scan.DecisionCancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			console := NewConsole(strings.NewReader(tt.input), &syncBuffer{}, nil)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			console.Attend(ctx)

			decision, err := console.AwaitDecision(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decision)
		})
	}
}

func TestNonBlockingReader_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	reader := NewNonBlockingReader(pr)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reader.ReadLine(ctx)
	require.ErrorIs(t, err, ErrInputCancelled)
}
