// Package speech hands response text to an external synthesizer command.
// Code fences and URLs are replaced with short spoken placeholders before
// synthesis, and starting a new utterance cancels the one in flight.
package speech

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"sync"
)

var (
	fenceRe = regexp.MustCompile("(?s)```.*?```")
	urlRe   = regexp.MustCompile(`https?://[^\s]+`)
)

// Clean prepares text for synthesis: fenced code becomes "Code block
// displayed." and URLs become "Link displayed."
func Clean(text string) string {
	out := fenceRe.ReplaceAllString(text, "Code block displayed.")
	out = urlRe.ReplaceAllString(out, "Link displayed.")
	return out
}

// Speaker voices text. Speak replaces any utterance still in progress.
type Speaker interface {
	Speak(text string)
	Stop()
}

// NullSpeaker discards everything. Used when speech is disabled.
type NullSpeaker struct{}

// Speak does nothing
func (NullSpeaker) Speak(string) {}

// Stop does nothing
func (NullSpeaker) Stop() {}

// CommandSpeaker pipes cleaned text to an external command's stdin, e.g.
// "espeak" or "say". The command runs detached from the caller; a new Speak
// kills the previous process first.
type CommandSpeaker struct {
	command string
	args    []string

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewCommandSpeaker creates a speaker backed by the given command line. The
// first token is the binary, the rest are fixed arguments.
func NewCommandSpeaker(commandLine string) *CommandSpeaker {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		fields = []string{"espeak"}
	}
	return &CommandSpeaker{
		command: fields[0],
		args:    fields[1:],
	}
}

// Speak cleans the text and starts the synthesizer, interrupting any
// utterance still running. Failures are silent: speech is a side effect and
// must never disturb the chat flow.
func (s *CommandSpeaker) Speak(text string) {
	cleaned := Clean(text)
	if strings.TrimSpace(cleaned) == "" {
		return
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	cmd := exec.CommandContext(ctx, s.command, s.args...)
	cmd.Stdin = strings.NewReader(cleaned)

	go func() {
		defer cancel()
		_ = cmd.Run()
	}()
}

// Stop cancels the utterance in progress, if any
func (s *CommandSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
