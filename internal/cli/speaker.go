package cli

import (
	"context"
	"fmt"
	"io"
)

// TerminalSpeaker stands in for the speech-synthesis collaborator on
// machines without one: it rings the terminal bell and prints the
// phrase that would have been spoken.
type TerminalSpeaker struct {
	writer io.Writer
}

// NewTerminalSpeaker creates a speaker over the terminal.
func NewTerminalSpeaker(w io.Writer) *TerminalSpeaker {
	return &TerminalSpeaker{writer: w}
}

// Say rings the bell and prints the phrase.
func (s *TerminalSpeaker) Say(_ context.Context, phrase string) error {
	_, err := fmt.Fprintf(s.writer, "\a%s\n", SubtleStyle.Render(SpeakIcon+" "+phrase))
	return err
}
