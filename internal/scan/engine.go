// Package scan implements the scan-to-confirmation state machine: the
// lifecycle of one detected barcode from detection through commit or
// cancel, coordinating the decoder feed, the quantity-capture
// strategies and the confirmation countdown.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stocktake-app/stocktake/internal/catalog"
	"github.com/stocktake-app/stocktake/internal/common"
	"github.com/stocktake-app/stocktake/internal/ledger"
	"github.com/stocktake-app/stocktake/internal/model"
	"github.com/stocktake-app/stocktake/internal/service"
)

// Config holds the timing knobs of the state machine. The defaults
// mirror the production cadence; tests shrink them.
type Config struct {
	// UnmatchedDelay is the cool-down before decoding resumes after an
	// unknown code.
	UnmatchedDelay time.Duration
	// CommitResume is the pause before decoding resumes after a commit.
	CommitResume time.Duration
	// CancelResume is the (shorter) pause after a cancel.
	CancelResume time.Duration
	// VoiceRetryDelay is the pause before re-listening after a
	// transcript without a usable quantity.
	VoiceRetryDelay time.Duration
	// TickInterval is the length of one confirmation-countdown tick.
	TickInterval time.Duration
	// CountdownTicks is the number of ticks before auto-commit.
	CountdownTicks int
	// MaxVoiceRetries bounds consecutive "not understood" voice
	// attempts before forcing the manual fallback.
	MaxVoiceRetries int
}

// DefaultConfig returns the production timing configuration.
func DefaultConfig() Config {
	return Config{
		UnmatchedDelay:  3 * time.Second,
		CommitResume:    1 * time.Second,
		CancelResume:    500 * time.Millisecond,
		VoiceRetryDelay: 2 * time.Second,
		TickInterval:    1 * time.Second,
		CountdownTicks:  5,
		MaxVoiceRetries: 3,
	}
}

// Engine owns the scan-session state machine. All transitions happen
// on the single Run goroutine; collaborator callbacks and timers feed
// it through an event channel, and every delayed event carries the
// session identity it targets so firings for a dead session are
// discarded instead of leaking into a new one.
type Engine struct {
	catalog    *catalog.Store
	ledger     *ledger.Ledger
	decoder    service.Decoder
	recognizer service.Recognizer
	speaker    service.Speaker
	prompter   Prompter
	events     chan event
	done       chan struct{}
	cur        *activeSession
	cfg        Config
}

// activeSession wraps the session value object with the runtime state
// the engine needs: the per-session context that tears down capture
// and decision goroutines, the countdown, and the voice-retry budget.
type activeSession struct {
	ctx          context.Context
	cancel       context.CancelFunc
	countdown    *countdown
	voiceRetries int
	manualOnly   bool
	model.ScanSession
}

type eventKind int

const (
	evQuantity eventKind = iota
	evNotUnderstood
	evVoiceRetry
	evCaptureFailed
	evCaptureCancelled
	evTick
	evConfirm
	evCancel
	evSessionOver
)

// event targets one session; events whose session no longer matches
// the active one are stale and dropped.
type event struct {
	err      error
	kind     eventKind
	quantity int
	session  uuid.UUID
}

// New creates an engine wired with its collaborators. recognizer and
// speaker may be nil: a nil recognizer means the voice capability is
// absent and every session starts with manual capture.
func New(cat *catalog.Store, led *ledger.Ledger, decoder service.Decoder, recognizer service.Recognizer, speaker service.Speaker, prompter Prompter, cfg Config) *Engine {
	return &Engine{
		catalog:    cat,
		ledger:     led,
		decoder:    decoder,
		recognizer: recognizer,
		speaker:    speaker,
		prompter:   prompter,
		events:     make(chan event, 16),
		done:       make(chan struct{}),
		cfg:        cfg,
	}
}

// Run starts the decoder and consumes detections and session events
// until the context is done or the detection feed closes. It is the
// only goroutine that touches session state.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	if err := e.decoder.Start(ctx); err != nil {
		return fmt.Errorf("failed to start decoder: %w", err)
	}
	defer e.decoder.Stop()

	detections := e.decoder.Detections()

	for {
		select {
		case <-ctx.Done():
			e.teardown()
			return ctx.Err()

		case code, ok := <-detections:
			if !ok {
				// Feed closed; finish any in-flight session first.
				detections = nil
				if e.cur == nil {
					return nil
				}
				continue
			}
			e.handleDetection(ctx, code)

		case ev := <-e.events:
			e.handleEvent(ctx, ev)
			if detections == nil && e.cur == nil {
				return nil
			}
		}
	}
}

// handleDetection opens a session for a detected code. Detections
// arriving while a session is in flight are ignored; pausing the
// decoder for the whole session lifetime is the mutual-exclusion
// guard that keeps sessions serialized.
func (e *Engine) handleDetection(ctx context.Context, code string) {
	if e.cur != nil {
		slog.Debug("Detection ignored, session in flight",
			"code", code,
			"session", e.cur.ID)
		return
	}

	e.decoder.Stop()

	sctx, cancel := context.WithCancel(ctx)
	e.cur = &activeSession{
		ScanSession: model.NewScanSession(code),
		ctx:         sctx,
		cancel:      cancel,
	}
	slog.Info("Barcode detected", "code", code, "session", e.cur.ID)

	product, ok := e.catalog.Lookup(code)
	if !ok {
		e.cur.State = model.StateUnmatched
		e.prompter.Status(StatusError, fmt.Sprintf("unknown code: %s", code))
		e.after(e.cfg.UnmatchedDelay, event{kind: evSessionOver, session: e.cur.ID})
		return
	}

	e.cur.Product = &product
	e.cur.State = model.StateMatched
	e.prompter.Status(StatusSuccess, fmt.Sprintf("found product: %s", product.Name))
	e.say(phraseFound(product.Name))
	e.startCapture()
}

func (e *Engine) handleEvent(ctx context.Context, ev event) {
	if e.cur == nil || ev.session != e.cur.ID {
		slog.Debug("Discarding stale event", "session", ev.session)
		return
	}

	switch ev.kind {
	case evQuantity:
		if e.cur.State == model.StateCapturing {
			e.enterConfirming(ev.quantity)
		}

	case evNotUnderstood:
		if e.cur.State != model.StateCapturing {
			return
		}
		e.cur.voiceRetries++
		if e.cur.voiceRetries >= e.cfg.MaxVoiceRetries {
			slog.Info("Voice retries exhausted, falling back to manual entry",
				"session", e.cur.ID,
				"retries", e.cur.voiceRetries)
			e.prompter.Status(StatusWarning, "quantity not understood, switching to manual entry")
			e.startManual()
			return
		}
		e.prompter.Status(StatusWarning, "quantity not understood, listening again")
		e.after(e.cfg.VoiceRetryDelay, event{kind: evVoiceRetry, session: e.cur.ID})

	case evVoiceRetry:
		if e.cur.State == model.StateCapturing && !e.cur.manualOnly {
			e.startVoiceAttempt()
		}

	case evCaptureFailed:
		if e.cur.State != model.StateCapturing {
			return
		}
		// Manual capture has no further fallback: if it failed, or the
		// input stream is gone, restarting it would fail the same way
		// forever. End the session instead.
		if e.cur.manualOnly || errors.Is(ev.err, io.EOF) {
			slog.Warn("Quantity capture unavailable, ending session",
				"session", e.cur.ID,
				"error", ev.err)
			e.cancelSession()
			return
		}
		// Hard recognizer failure: manual entry for the rest of the
		// session, no further voice attempts.
		slog.Warn("Voice capture failed, falling back to manual entry",
			"session", e.cur.ID,
			"error", ev.err)
		e.prompter.Status(StatusWarning, "voice input unavailable, enter the quantity manually")
		e.startManual()

	case evCaptureCancelled:
		if e.cur.State == model.StateCapturing {
			e.cancelSession()
		}

	case evTick:
		e.handleTick(ctx)

	case evConfirm:
		if e.cur.State == model.StateConfirming {
			e.commit(ctx)
		}

	case evCancel:
		if e.cur.State == model.StateConfirming {
			e.cancelSession()
		}

	case evSessionOver:
		e.endSession(ctx)
	}
}

// startCapture picks the capture strategy: voice when the recognizer
// capability is present, manual otherwise.
func (e *Engine) startCapture() {
	e.cur.State = model.StateCapturing
	if e.recognizer != nil && !e.cur.manualOnly {
		e.startVoiceAttempt()
		return
	}
	e.startManual()
}

func (e *Engine) startVoiceAttempt() {
	capture := &VoiceCapture{Recognizer: e.recognizer, Speaker: e.speaker}
	e.runCapture(capture)
}

func (e *Engine) startManual() {
	e.cur.manualOnly = true
	capture := &ManualCapture{Prompter: e.prompter}
	e.runCapture(capture)
}

// runCapture executes one capture attempt off the loop goroutine and
// posts the outcome back as a session-tagged event.
func (e *Engine) runCapture(capture QuantityCapture) {
	sctx := e.cur.ctx
	sid := e.cur.ID
	product := *e.cur.Product

	slog.Debug("Starting quantity capture", "strategy", capture.Name(), "session", sid)

	go func() {
		quantity, err := capture.Capture(sctx, product)
		switch {
		case err == nil:
			e.post(event{kind: evQuantity, quantity: quantity, session: sid})
		case errors.Is(err, ErrNotUnderstood):
			e.post(event{kind: evNotUnderstood, session: sid})
		case errors.Is(err, ErrCaptureCancelled):
			e.post(event{kind: evCaptureCancelled, session: sid})
		case errors.Is(err, context.Canceled):
			// Session torn down underneath us; nothing to report.
		default:
			e.post(event{kind: evCaptureFailed, err: err, session: sid})
		}
	}()
}

// enterConfirming starts the auto-commit countdown for a captured
// quantity and spawns the listener for an explicit confirm or cancel.
func (e *Engine) enterConfirming(quantity int) {
	s := e.cur
	s.Quantity = quantity
	s.State = model.StateConfirming
	s.countdown = newCountdown(e.cfg.CountdownTicks)

	e.prompter.Countdown(s.countdown.remaining, *s.Product, quantity)
	e.armTick()

	sctx, sid := s.ctx, s.ID
	go func() {
		decision, err := e.prompter.AwaitDecision(sctx)
		if err != nil {
			return
		}
		if decision == DecisionCancel {
			e.post(event{kind: evCancel, session: sid})
			return
		}
		e.post(event{kind: evConfirm, session: sid})
	}()
}

func (e *Engine) armTick() {
	sid := e.cur.ID
	e.cur.countdown.arm(e.cfg.TickInterval, func() {
		e.post(event{kind: evTick, session: sid})
	})
}

func (e *Engine) handleTick(ctx context.Context) {
	s := e.cur
	if s.State != model.StateConfirming || s.countdown == nil {
		return
	}

	remaining := s.countdown.tick()
	e.prompter.Countdown(remaining, *s.Product, s.Quantity)

	if remaining <= 0 {
		e.commit(ctx)
		return
	}
	e.armTick()
}

// commit is the only path that creates a ledger entry.
func (e *Engine) commit(ctx context.Context) {
	s := e.cur
	s.countdown.stop()
	s.State = model.StateCommitted

	entry, err := e.ledger.Append(ctx, s.Code, s.Product.Name, s.Quantity)
	if err != nil && !errors.Is(err, common.ErrPersistence) {
		// The entry was never created; this is not a commit.
		common.LogError(err, "Failed to append ledger entry", common.Fields{"session": s.ID})
		e.prompter.Status(StatusError, "failed to record the scan")
		e.finishSession(model.StateCancelled, e.cfg.CancelResume)
		return
	}
	if err != nil {
		// Persistence failures are non-fatal; the entry is committed
		// in memory.
		e.prompter.Status(StatusWarning, "entry saved in memory only, cache write failed")
	}

	slog.Info("Scan committed",
		"session", s.ID,
		"entry", entry.ID,
		"code", entry.Code,
		"quantity", entry.Quantity)
	e.prompter.Status(StatusSuccess, fmt.Sprintf("added %s ×%d", s.Product.Name, s.Quantity))
	e.prompter.Stats(e.ledger.Stats())

	e.finishSession(model.StateCommitted, e.cfg.CommitResume)
}

func (e *Engine) cancelSession() {
	e.prompter.Status(StatusInfo, "scan cancelled")
	e.finishSession(model.StateCancelled, e.cfg.CancelResume)
}

// finishSession parks the session in a terminal state, tears down its
// goroutines and timers, and schedules the decoder resume. The session
// object stays current until the resume fires so that any event still
// in flight is recognised as belonging to it and dropped by the state
// guards.
func (e *Engine) finishSession(state model.SessionState, resumeAfter time.Duration) {
	s := e.cur
	s.State = state
	if s.countdown != nil {
		s.countdown.stop()
	}
	s.cancel()
	e.after(resumeAfter, event{kind: evSessionOver, session: s.ID})
}

// endSession destroys the session and resumes decoding.
func (e *Engine) endSession(ctx context.Context) {
	s := e.cur
	if s.countdown != nil {
		s.countdown.stop()
	}
	s.cancel()
	e.cur = nil

	slog.Debug("Session closed", "session", s.ID, "state", s.State)

	if ctx.Err() == nil {
		if err := e.decoder.Start(ctx); err != nil {
			slog.Error("Failed to resume decoder", "error", err)
		}
	}
}

// teardown destroys any in-flight session on shutdown.
func (e *Engine) teardown() {
	if e.cur == nil {
		return
	}
	if e.cur.countdown != nil {
		e.cur.countdown.stop()
	}
	e.cur.cancel()
	e.cur = nil
}

// say voices a phrase without blocking the loop.
func (e *Engine) say(phrase string) {
	if e.speaker == nil {
		return
	}
	sctx := e.cur.ctx
	go func() {
		if err := e.speaker.Say(sctx, phrase); err != nil && !errors.Is(err, context.Canceled) {
			slog.Debug("Speech playback failed", "error", err)
		}
	}()
}

// after posts a session-tagged event once the delay elapses.
func (e *Engine) after(d time.Duration, ev event) {
	time.AfterFunc(d, func() {
		e.post(ev)
	})
}

// post delivers an event to the loop, giving up once Run has returned.
func (e *Engine) post(ev event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}
