package scan

import (
	"context"

	"github.com/stocktake-app/stocktake/internal/model"
	"github.com/stocktake-app/stocktake/internal/service"
)

// StatusKind classifies a transient status message.
type StatusKind string

// Status kinds surfaced to the operator.
const (
	StatusInfo    StatusKind = "info"
	StatusSuccess StatusKind = "success"
	StatusWarning StatusKind = "warning"
	StatusError   StatusKind = "error"
)

// Decision is an operator verdict during the confirmation countdown.
type Decision int

// Countdown decisions.
const (
	DecisionConfirm Decision = iota
	DecisionCancel
)

// Prompter defines the contract for operator interaction during a
// scan session. Implementations render state-machine snapshots; they
// are never a source of session state themselves.
type Prompter interface {
	// QuantityInput prompts for a positive integer quantity. It blocks
	// until valid input arrives, the operator cancels (ErrCaptureCancelled),
	// or the context is done. Invalid input is rejected with a visible
	// error and re-prompted, never returned.
	QuantityInput(ctx context.Context, product model.Product) (int, error)

	// AwaitDecision waits for an explicit confirm or cancel during the
	// countdown. It returns the context error if the window closes first.
	AwaitDecision(ctx context.Context) (Decision, error)

	// Countdown renders the remaining auto-commit ticks.
	Countdown(remaining int, product model.Product, quantity int)

	// Status surfaces a transient, auto-expiring status message.
	Status(kind StatusKind, message string)

	// Stats renders the display statistics after a mutation.
	Stats(stats service.LedgerStats)
}

// QuantityCapture is a pluggable strategy for obtaining a quantity
// for a matched product.
type QuantityCapture interface {
	// Capture obtains one quantity. It blocks until input arrives or
	// the context is cancelled.
	Capture(ctx context.Context, product model.Product) (int, error)

	// Name identifies the strategy in logs.
	Name() string
}
