package scan

import (
	"context"
	"sync"

	"github.com/stocktake-app/stocktake/internal/model"
	"github.com/stocktake-app/stocktake/internal/service"
)

// MockDecoder is a test implementation of the Decoder interface. Tests
// push codes into the feed; Start and Stop only toggle the scanning
// flag and record how often they were called.
type MockDecoder struct {
	feed       chan string
	startCalls int
	stopCalls  int
	scanning   bool
	mu         sync.Mutex
}

// NewMockDecoder creates a mock decoder with a buffered feed.
func NewMockDecoder() *MockDecoder {
	return &MockDecoder{feed: make(chan string, 8)}
}

// Start marks the decoder as scanning.
func (m *MockDecoder) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startCalls++
	m.scanning = true
	return nil
}

// Stop marks the decoder as paused.
func (m *MockDecoder) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	m.scanning = false
}

// Detections returns the feed channel.
func (m *MockDecoder) Detections() <-chan string {
	return m.feed
}

// Emit delivers a detection to the feed.
func (m *MockDecoder) Emit(code string) {
	m.feed <- code
}

// CloseFeed closes the feed, signalling end of input.
func (m *MockDecoder) CloseFeed() {
	close(m.feed)
}

// Scanning reports whether the decoder is currently started.
func (m *MockDecoder) Scanning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanning
}

// StartCalls reports how many times Start has been called.
func (m *MockDecoder) StartCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalls
}

// MockRecognizerResult is one scripted recognition outcome.
type MockRecognizerResult struct {
	Err        error
	Transcript string
}

// MockRecognizer is a test implementation of the Recognizer interface.
// It replays scripted results in order and blocks on the context once
// the script runs out.
type MockRecognizer struct {
	results []MockRecognizerResult
	calls   int
	mu      sync.Mutex
}

// NewMockRecognizer creates a mock recognizer with the given script.
func NewMockRecognizer(results ...MockRecognizerResult) *MockRecognizer {
	return &MockRecognizer{results: results}
}

// Recognize pops the next scripted result.
func (m *MockRecognizer) Recognize(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.calls++
	if len(m.results) == 0 {
		m.mu.Unlock()
		<-ctx.Done()
		return "", ctx.Err()
	}
	next := m.results[0]
	m.results = m.results[1:]
	m.mu.Unlock()

	return next.Transcript, next.Err
}

// Calls reports how many recognition attempts were made.
func (m *MockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockSpeaker is a test implementation of the Speaker interface that
// records every spoken phrase.
type MockSpeaker struct {
	phrases []string
	mu      sync.Mutex
}

// NewMockSpeaker creates a mock speaker.
func NewMockSpeaker() *MockSpeaker {
	return &MockSpeaker{}
}

// Say records the phrase.
func (m *MockSpeaker) Say(_ context.Context, phrase string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phrases = append(m.phrases, phrase)
	return nil
}

// Phrases returns a copy of everything spoken so far.
func (m *MockSpeaker) Phrases() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.phrases))
	copy(out, m.phrases)
	return out
}

// MockStatus records one status message shown to the operator.
type MockStatus struct {
	Kind    StatusKind
	Message string
}

// MockPrompter is a test implementation of the Prompter interface.
// Quantity input and decisions are scripted through channels so tests
// control exactly when the operator "responds".
type MockPrompter struct {
	quantities chan int
	decisions  chan Decision
	cancelNext bool
	statuses   []MockStatus
	countdowns []int
	stats      []service.LedgerStats
	mu         sync.Mutex
}

// NewMockPrompter creates a mock prompter with buffered response
// channels.
func NewMockPrompter() *MockPrompter {
	return &MockPrompter{
		quantities: make(chan int, 8),
		decisions:  make(chan Decision, 8),
	}
}

// QueueQuantity scripts the next manual quantity response.
func (m *MockPrompter) QueueQuantity(q int) {
	m.quantities <- q
}

// CancelNextQuantity makes the next QuantityInput call return
// ErrCaptureCancelled.
func (m *MockPrompter) CancelNextQuantity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelNext = true
}

// QueueDecision scripts the next countdown decision.
func (m *MockPrompter) QueueDecision(d Decision) {
	m.decisions <- d
}

// QuantityInput returns the next scripted quantity, blocking until one
// is queued or the context is done.
func (m *MockPrompter) QuantityInput(ctx context.Context, _ model.Product) (int, error) {
	m.mu.Lock()
	if m.cancelNext {
		m.cancelNext = false
		m.mu.Unlock()
		return 0, ErrCaptureCancelled
	}
	m.mu.Unlock()

	select {
	case q := <-m.quantities:
		return q, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// AwaitDecision returns the next scripted decision, blocking until one
// is queued or the context is done.
func (m *MockPrompter) AwaitDecision(ctx context.Context) (Decision, error) {
	select {
	case d := <-m.decisions:
		return d, nil
	case <-ctx.Done():
		return DecisionCancel, ctx.Err()
	}
}

// Countdown records the remaining ticks.
func (m *MockPrompter) Countdown(remaining int, _ model.Product, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countdowns = append(m.countdowns, remaining)
}

// Status records the message.
func (m *MockPrompter) Status(kind StatusKind, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, MockStatus{Kind: kind, Message: message})
}

// Stats records the statistics snapshot.
func (m *MockPrompter) Stats(stats service.LedgerStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = append(m.stats, stats)
}

// Statuses returns a copy of the recorded status messages.
func (m *MockPrompter) Statuses() []MockStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockStatus, len(m.statuses))
	copy(out, m.statuses)
	return out
}

// Countdowns returns a copy of the recorded countdown renders.
func (m *MockPrompter) Countdowns() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.countdowns))
	copy(out, m.countdowns)
	return out
}

// StatsCalls returns a copy of the recorded statistics snapshots.
func (m *MockPrompter) StatsCalls() []service.LedgerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]service.LedgerStats, len(m.stats))
	copy(out, m.stats)
	return out
}
