// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/stocktake-app/stocktake/internal/model"
)

// Storage defines the contract for our persistence layer. State is
// persisted as a whole snapshot; writes are idempotent overwrites.
type Storage interface {
	LoadSnapshot(ctx context.Context) (*model.Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error
	Migrate(ctx context.Context) error
	Close() error
}

// Decoder is the barcode-detection collaborator. Start and Stop gate
// delivery: while stopped, detections are discarded rather than
// queued, which is what guarantees at most one in-flight scan session.
type Decoder interface {
	Start(ctx context.Context) error
	Stop()
	Detections() <-chan string
}

// Recognizer is the external speech-to-text capability. One call is
// one recognition session: it listens for a single utterance and
// returns the transcript.
type Recognizer interface {
	Recognize(ctx context.Context) (string, error)
}

// Speaker voices short feedback prompts to the operator.
type Speaker interface {
	Say(ctx context.Context, phrase string) error
}

// AuthGate guards destructive ledger operations. Authorize returns
// nil when the supplied secret is acceptable.
type AuthGate interface {
	Authorize(secret string) error
}

// LedgerStats is the display summary recomputed after every ledger
// or catalog mutation.
type LedgerStats struct {
	CatalogProducts int
	ScannedEntries  int
	TotalQuantity   int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
