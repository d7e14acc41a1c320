// Package speech bridges an external speech-to-text helper program.
// Speech recognition itself is delegated: the helper is expected to
// capture one utterance and print its transcript to stdout.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultLocale is the recognition locale of the workflow.
const DefaultLocale = "ar-EG"

// ExecRecognizer runs a configured helper command once per
// recognition session. It implements service.Recognizer.
type ExecRecognizer struct {
	Command string
	Locale  string
	Timeout time.Duration
}

// NewExecRecognizer creates a recognizer for the given helper command.
func NewExecRecognizer(command string) *ExecRecognizer {
	return &ExecRecognizer{
		Command: command,
		Locale:  DefaultLocale,
		Timeout: 30 * time.Second,
	}
}

// Recognize runs the helper and returns the transcript it printed.
func (r *ExecRecognizer) Recognize(ctx context.Context) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Command, "--locale", r.Locale)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("recognizer helper failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
