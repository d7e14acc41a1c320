package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocktake-app/stocktake/internal/common"
	"github.com/stocktake-app/stocktake/internal/model"
)

func TestVoiceCapture(t *testing.T) {
	product := model.Product{Code: "6221031954016", Name: "شاي العروسة"}

	tests := []struct {
		wantErr      error
		name         string
		transcript   string
		recognizeErr error
		want         int
		wantRetrySay bool
	}{
		{
			name:       "digit transcript",
			transcript: "12",
			want:       12,
		},
		{
			name:       "number word transcript",
			transcript: "خمسة",
			want:       5,
		},
		{
			name:         "unintelligible transcript",
			transcript:   "مرحبا",
			wantErr:      ErrNotUnderstood,
			wantRetrySay: true,
		},
		{
			name:         "zero is not a quantity",
			transcript:   "صفر",
			wantErr:      ErrNotUnderstood,
			wantRetrySay: true,
		},
		{
			name:         "recognizer failure",
			recognizeErr: errors.New("microphone unavailable"),
			wantErr:      common.ErrRecognition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recognizer := NewMockRecognizer(MockRecognizerResult{
				Transcript: tt.transcript,
				Err:        tt.recognizeErr,
			})
			speaker := NewMockSpeaker()
			capture := &VoiceCapture{Recognizer: recognizer, Speaker: speaker}

			got, err := capture.Capture(context.Background(), product)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			if tt.wantRetrySay {
				require.Len(t, speaker.Phrases(), 1)
				assert.Equal(t, phraseRetry, speaker.Phrases()[0])
			} else {
				assert.Empty(t, speaker.Phrases())
			}
		})
	}
}

func TestVoiceCapture_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	capture := &VoiceCapture{Recognizer: NewMockRecognizer(), Speaker: NewMockSpeaker()}
	_, err := capture.Capture(ctx, model.Product{Code: "1", Name: "x"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestManualCapture(t *testing.T) {
	prompter := NewMockPrompter()
	prompter.QueueQuantity(7)

	capture := &ManualCapture{Prompter: prompter}
	got, err := capture.Capture(context.Background(), model.Product{Code: "1", Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestManualCapture_Cancelled(t *testing.T) {
	prompter := NewMockPrompter()
	prompter.CancelNextQuantity()

	capture := &ManualCapture{Prompter: prompter}
	_, err := capture.Capture(context.Background(), model.Product{Code: "1", Name: "x"})
	require.ErrorIs(t, err, ErrCaptureCancelled)
}

func TestCountdown(t *testing.T) {
	c := newCountdown(3)
	assert.Equal(t, 2, c.tick())
	assert.Equal(t, 1, c.tick())
	assert.Equal(t, 0, c.tick())
	assert.Equal(t, 0, c.tick())

	// stop is idempotent with or without an armed timer
	c.stop()
	c.stop()
}
