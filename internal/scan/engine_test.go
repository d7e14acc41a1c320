package scan

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocktake-app/stocktake/internal/catalog"
	"github.com/stocktake-app/stocktake/internal/ledger"
	"github.com/stocktake-app/stocktake/internal/model"
	"github.com/stocktake-app/stocktake/internal/storage"
)

type engineFixture struct {
	engine     *Engine
	decoder    *MockDecoder
	recognizer *MockRecognizer
	speaker    *MockSpeaker
	prompter   *MockPrompter
	store      *catalog.Store
	ledger     *ledger.Ledger
}

// testConfig shrinks the production cadence so tests finish quickly.
func testConfig() Config {
	return Config{
		UnmatchedDelay:  10 * time.Millisecond,
		CommitResume:    10 * time.Millisecond,
		CancelResume:    5 * time.Millisecond,
		VoiceRetryDelay: 5 * time.Millisecond,
		TickInterval:    15 * time.Millisecond,
		CountdownTicks:  2,
		MaxVoiceRetries: 3,
	}
}

func newEngineFixture(t *testing.T, recognizer *MockRecognizer) *engineFixture {
	t.Helper()

	db, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })

	store := catalog.NewStore()
	store.Replace([]model.Product{
		{Code: "6221031954016", Name: "شاي العروسة", DefaultQuantity: 1},
		{Code: "6223000350034", Name: "سكر الأسرة", DefaultQuantity: 1},
	}, "v1", time.Now())

	led := ledger.New(db, store, ledger.NewStaticGate("01470449"))

	f := &engineFixture{
		decoder:    NewMockDecoder(),
		recognizer: recognizer,
		speaker:    NewMockSpeaker(),
		prompter:   NewMockPrompter(),
		store:      store,
		ledger:     led,
	}

	if recognizer != nil {
		f.engine = New(store, led, f.decoder, recognizer, f.speaker, f.prompter, testConfig())
	} else {
		f.engine = New(store, led, f.decoder, nil, f.speaker, f.prompter, testConfig())
	}

	return f
}

// start runs the engine loop until the test finishes.
func (f *engineFixture) start(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.engine.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("engine did not shut down")
		}
	})
}

func waitForEntries(t *testing.T, led *ledger.Ledger, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return led.Len() == n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestEngine_VoiceQuantityAutoCommit(t *testing.T) {
	f := newEngineFixture(t, NewMockRecognizer(MockRecognizerResult{Transcript: "خمسة"}))
	f.start(t)

	f.decoder.Emit("6221031954016")

	waitForEntries(t, f.ledger, 1)
	entry := f.ledger.Entries()[0]
	assert.Equal(t, "6221031954016", entry.Code)
	assert.Equal(t, "شاي العروسة", entry.Name)
	assert.Equal(t, 5, entry.Quantity)

	// Product announcement was voiced before listening.
	require.Eventually(t, func() bool {
		return len(f.speaker.Phrases()) >= 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, phraseFound("شاي العروسة"), f.speaker.Phrases()[0])

	// Decoder pauses for the session and resumes afterwards.
	require.Eventually(t, func() bool {
		return f.decoder.Scanning() && f.decoder.StartCalls() >= 2
	}, time.Second, 5*time.Millisecond)

	// Stats were rendered after the commit.
	require.Eventually(t, func() bool {
		return len(f.prompter.StatsCalls()) >= 1
	}, time.Second, 5*time.Millisecond)
	stats := f.prompter.StatsCalls()[0]
	assert.Equal(t, 2, stats.CatalogProducts)
	assert.Equal(t, 1, stats.ScannedEntries)
	assert.Equal(t, 5, stats.TotalQuantity)
}

func TestEngine_ExplicitConfirm(t *testing.T) {
	f := newEngineFixture(t, NewMockRecognizer(MockRecognizerResult{Transcript: "3"}))
	f.start(t)

	f.prompter.QueueDecision(DecisionConfirm)
	f.decoder.Emit("6223000350034")

	waitForEntries(t, f.ledger, 1)
	assert.Equal(t, 3, f.ledger.Entries()[0].Quantity)
}

func TestEngine_CancelDuringCountdown(t *testing.T) {
	f := newEngineFixture(t, NewMockRecognizer(MockRecognizerResult{Transcript: "9"}))
	f.start(t)

	f.prompter.QueueDecision(DecisionCancel)
	f.decoder.Emit("6221031954016")

	require.Eventually(t, func() bool {
		for _, s := range f.prompter.Statuses() {
			if s.Message == "scan cancelled" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, f.ledger.Len())

	require.Eventually(t, func() bool {
		return f.decoder.Scanning() && f.decoder.StartCalls() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestEngine_UnknownCode(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.start(t)

	f.decoder.Emit("0000000000000")

	require.Eventually(t, func() bool {
		for _, s := range f.prompter.Statuses() {
			if s.Kind == StatusError {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, f.ledger.Len())

	// Decoding resumes after the cool-down.
	require.Eventually(t, func() bool {
		return f.decoder.Scanning() && f.decoder.StartCalls() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestEngine_VoiceRetriesExhausted(t *testing.T) {
	f := newEngineFixture(t, NewMockRecognizer(
		MockRecognizerResult{Transcript: "مرحبا"},
		MockRecognizerResult{Transcript: "كلام فارغ"},
		MockRecognizerResult{Transcript: "صفر"},
	))
	f.start(t)

	f.prompter.QueueQuantity(4)
	f.decoder.Emit("6221031954016")

	waitForEntries(t, f.ledger, 1)
	assert.Equal(t, 4, f.ledger.Entries()[0].Quantity)
	assert.Equal(t, 3, f.recognizer.Calls())
}

func TestEngine_RecognizerFailureFallsBackToManual(t *testing.T) {
	f := newEngineFixture(t, NewMockRecognizer(
		MockRecognizerResult{Err: errors.New("microphone unavailable")},
	))
	f.start(t)

	f.prompter.QueueQuantity(2)
	f.decoder.Emit("6221031954016")

	waitForEntries(t, f.ledger, 1)
	assert.Equal(t, 2, f.ledger.Entries()[0].Quantity)
	assert.Equal(t, 1, f.recognizer.Calls())
}

func TestEngine_NoRecognizerUsesManualCapture(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.start(t)

	f.prompter.QueueQuantity(6)
	f.decoder.Emit("6223000350034")

	waitForEntries(t, f.ledger, 1)
	assert.Equal(t, 6, f.ledger.Entries()[0].Quantity)
}

func TestEngine_ManualCaptureCancelled(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.start(t)

	f.prompter.CancelNextQuantity()
	f.decoder.Emit("6221031954016")

	require.Eventually(t, func() bool {
		for _, s := range f.prompter.Statuses() {
			if s.Message == "scan cancelled" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, f.ledger.Len())
}

func TestEngine_DetectionDuringSessionIgnored(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.start(t)

	f.decoder.Emit("6221031954016")
	f.decoder.Emit("6223000350034")
	f.prompter.QueueQuantity(1)

	waitForEntries(t, f.ledger, 1)
	assert.Equal(t, "6221031954016", f.ledger.Entries()[0].Code)

	// The second code arrived while the session was in flight and must
	// not open a session of its own.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, f.ledger.Len())
}

// eofPrompter simulates the operator's input stream ending while a
// quantity prompt is up.
type eofPrompter struct {
	*MockPrompter
}

func (p *eofPrompter) QuantityInput(context.Context, model.Product) (int, error) {
	return 0, io.EOF
}

func TestEngine_InputStreamEndedDuringCaptureCancelsSession(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.engine = New(f.store, f.ledger, f.decoder, nil, f.speaker,
		&eofPrompter{f.prompter}, testConfig())
	f.start(t)

	f.decoder.Emit("6221031954016")

	require.Eventually(t, func() bool {
		for _, s := range f.prompter.Statuses() {
			if s.Message == "scan cancelled" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, f.ledger.Len())

	// The failed capture must not be restarted in a tight loop: after
	// the session ends, no further statuses accumulate.
	settled := len(f.prompter.Statuses())
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, len(f.prompter.Statuses()))
	assert.Less(t, settled, 10)
}

func TestEngine_StaleSessionEventsDiscarded(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.start(t)

	f.decoder.Emit("6221031954016")

	// Wait until the session is capturing (the prompt blocks until a
	// quantity is queued).
	require.Eventually(t, func() bool {
		return len(f.prompter.Statuses()) >= 1
	}, 2*time.Second, 5*time.Millisecond)

	// Timers and capture goroutines from a destroyed session surface as
	// events tagged with that session's identity. None of these may
	// touch the live session.
	dead := uuid.New()
	f.engine.post(event{kind: evQuantity, quantity: 99, session: dead})
	f.engine.post(event{kind: evTick, session: dead})
	f.engine.post(event{kind: evVoiceRetry, session: dead})
	f.engine.post(event{kind: evCancel, session: dead})
	f.engine.post(event{kind: evSessionOver, session: dead})

	f.prompter.QueueQuantity(6)
	waitForEntries(t, f.ledger, 1)
	assert.Equal(t, 6, f.ledger.Entries()[0].Quantity)

	// The stale quantity never produced an entry of its own.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, f.ledger.Len())
}

// zeroPrompter hands the engine a quantity the ledger must refuse.
type zeroPrompter struct {
	*MockPrompter
}

func (p *zeroPrompter) QuantityInput(context.Context, model.Product) (int, error) {
	return 0, nil
}

func TestEngine_RejectedAppendIsNotACommit(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.engine = New(f.store, f.ledger, f.decoder, nil, f.speaker,
		&zeroPrompter{f.prompter}, testConfig())
	f.start(t)

	f.decoder.Emit("6221031954016")

	require.Eventually(t, func() bool {
		for _, s := range f.prompter.Statuses() {
			if s.Kind == StatusError {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, f.ledger.Len())
	for _, s := range f.prompter.Statuses() {
		assert.NotContains(t, s.Message, "added")
	}

	// The session still ends and decoding resumes.
	require.Eventually(t, func() bool {
		return f.decoder.Scanning() && f.decoder.StartCalls() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestEngine_FeedCloseEndsRun(t *testing.T) {
	f := newEngineFixture(t, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.engine.Run(context.Background())
	}()

	f.decoder.CloseFeed()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop after the feed closed")
	}
}
