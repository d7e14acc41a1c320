package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stocktake-app/stocktake/internal/common"
	"github.com/stocktake-app/stocktake/internal/model"
	"github.com/stocktake-app/stocktake/internal/service"
)

// Capture outcome errors.
var (
	// ErrNotUnderstood means the voice transcript contained no usable
	// quantity. The engine retries the voice strategy up to its bound.
	ErrNotUnderstood = errors.New("quantity not understood")

	// ErrCaptureCancelled means the operator explicitly backed out of
	// quantity entry.
	ErrCaptureCancelled = errors.New("capture cancelled")
)

// Spoken feedback phrases, voiced through the speech-synthesis
// collaborator in the operator's locale.
const (
	phraseRetry = "لم أفهم الكمية، حاول مرة أخرى"
)

// phraseFound announces a matched product and asks for its quantity.
func phraseFound(name string) string {
	return fmt.Sprintf("تم العثور على %s، أدخل الكمية", name)
}

// VoiceCapture obtains a quantity from one speech-recognition session.
// One Capture call is one utterance; the engine owns the retry loop
// and its bound.
type VoiceCapture struct {
	Recognizer service.Recognizer
	Speaker    service.Speaker
}

// Capture listens for a single utterance and parses a quantity out of
// the transcript. A recognizer failure is wrapped in ErrRecognition so
// the engine can fall back to manual entry for the rest of the session.
func (v *VoiceCapture) Capture(ctx context.Context, _ model.Product) (int, error) {
	transcript, err := v.Recognizer.Recognize(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", common.ErrRecognition, err)
	}

	quantity := ParseQuantity(transcript)
	slog.Debug("Voice transcript received", "transcript", transcript, "quantity", quantity)

	if quantity <= 0 {
		if v.Speaker != nil {
			if sayErr := v.Speaker.Say(ctx, phraseRetry); sayErr != nil {
				slog.Debug("Retry prompt playback failed", "error", sayErr)
			}
		}
		return 0, ErrNotUnderstood
	}

	return quantity, nil
}

// Name identifies the strategy.
func (v *VoiceCapture) Name() string { return "voice" }

// ManualCapture obtains a quantity through the prompter's numeric
// input. It never retries on its own: the prompter re-prompts on
// invalid input and waits indefinitely for a valid value or an
// explicit cancel.
type ManualCapture struct {
	Prompter Prompter
}

// Capture delegates to the prompter's quantity input.
func (m *ManualCapture) Capture(ctx context.Context, product model.Product) (int, error) {
	return m.Prompter.QuantityInput(ctx, product)
}

// Name identifies the strategy.
func (m *ManualCapture) Name() string { return "manual" }
