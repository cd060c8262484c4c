// Package session owns the chat lifecycle: the single-flight send guard, the
// streaming state machine, persona switching, and the speech side effects.
// All transcript mutations flow through here; the view layer only observes.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/grimoco/grimchat/internal/attach"
	"github.com/grimoco/grimchat/internal/config"
	apierrors "github.com/grimoco/grimchat/internal/errors"
	"github.com/grimoco/grimchat/internal/gemini"
	"github.com/grimoco/grimchat/internal/models"
	"github.com/grimoco/grimchat/internal/speech"
	"github.com/grimoco/grimchat/internal/transcript"
)

// errorApology is spoken on failure instead of the raw error text
const errorApology = "Sorry, I encountered an error."

// State is the stream consumer's position in the send lifecycle
type State int

// Stream consumer states
const (
	StateIdle State = iota
	StateRequesting
	StateStreaming
)

// Sender is the conversation surface the controller drives
type Sender interface {
	SendMessageStream(ctx context.Context, parts []models.Part, fn gemini.ChunkFunc) error
	SetInstruction(instruction string)
	Reset()
	EnableSearch(enabled bool)
}

// Controller guards the conversation: at most one generation in flight, one
// staged attachment, one active persona.
type Controller struct {
	store   *transcript.Store
	chat    Sender
	speaker speech.Speaker

	mu      sync.Mutex
	persona config.Persona
	busy    bool
	state   State
	pending *attach.File
	speak   bool
	abort   context.CancelFunc
}

// New creates a controller over the given transcript and conversation
func New(store *transcript.Store, chat Sender, speaker speech.Speaker, persona config.Persona) *Controller {
	if speaker == nil {
		speaker = speech.NullSpeaker{}
	}
	return &Controller{
		store:   store,
		chat:    chat,
		speaker: speaker,
		persona: persona,
	}
}

// Start posts the persona greeting. Called once, before any send.
func (c *Controller) Start() {
	c.mu.Lock()
	greeting := c.persona.Greeting
	c.mu.Unlock()
	_, _ = c.store.Append(transcript.RoleNotice, greeting, nil, transcript.StatusComplete)
}

// Busy reports whether a generation is in flight
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// State returns the stream consumer's current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Persona returns the active persona
func (c *Controller) Persona() config.Persona {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persona
}

// SetSpeechEnabled toggles the speech side effect. Disabling stops any
// utterance in progress.
func (c *Controller) SetSpeechEnabled(enabled bool) {
	c.mu.Lock()
	c.speak = enabled
	c.mu.Unlock()
	if !enabled {
		c.speaker.Stop()
	}
}

// SpeechEnabled reports whether responses are spoken
func (c *Controller) SpeechEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speak
}

// EnableSearch toggles web-search grounding for subsequent sends
func (c *Controller) EnableSearch(enabled bool) {
	c.chat.EnableSearch(enabled)
}

// AttachFile stages the file at path for the next send, replacing any
// previous staging. Rejected files never reach the transcript.
func (c *Controller) AttachFile(path string) (*attach.File, error) {
	f, err := attach.Load(path)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.pending = f
	c.mu.Unlock()
	return f, nil
}

// PendingAttachment returns the staged file, if any
func (c *Controller) PendingAttachment() *attach.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// ClearAttachment drops the staged file
func (c *Controller) ClearAttachment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// Send runs one full generation turn: user message in, streamed reply out.
// It blocks until the stream completes or fails; callers drive it from their
// own goroutine. An empty send (no text, no attachment) is a no-op; a send
// while busy is rejected with a ConcurrentStreamError and changes nothing.
func (c *Controller) Send(ctx context.Context, userText string) error {
	userText = strings.TrimSpace(userText)

	c.mu.Lock()
	if userText == "" && c.pending == nil {
		c.mu.Unlock()
		return nil
	}
	if c.busy {
		c.mu.Unlock()
		return apierrors.NewConcurrentStreamError("")
	}
	c.busy = true
	c.state = StateRequesting
	file := c.pending
	c.pending = nil
	persona := c.persona

	ctx, cancel := context.WithCancel(ctx)
	c.abort = cancel
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		c.busy = false
		c.state = StateIdle
		c.abort = nil
		c.mu.Unlock()
	}()

	parts := buildParts(userText, file)

	var att *transcript.Attachment
	if file != nil {
		att = file.Record()
	}
	if _, err := c.store.Append(transcript.RoleUser, userText, att, transcript.StatusComplete); err != nil {
		return err
	}

	replyID, err := c.store.Append(transcript.RoleAssistant, "", nil, transcript.StatusStreaming)
	if err != nil {
		return err
	}

	var citations []models.Citation
	streamErr := c.chat.SendMessageStream(ctx, parts, func(chunk models.StreamChunk) error {
		if err := ctx.Err(); err != nil {
			return apierrors.ErrAborted
		}
		c.mu.Lock()
		c.state = StateStreaming
		c.mu.Unlock()

		if chunk.HasText() {
			if err := c.store.Extend(replyID, chunk.Text); err != nil {
				return err
			}
		}
		if len(chunk.Citations) > 0 {
			citations = chunk.Citations
		}
		return nil
	})

	if streamErr != nil {
		return c.failSend(replyID, persona, streamErr)
	}

	if err := c.store.Complete(replyID, citations); err != nil {
		return c.failSend(replyID, persona, err)
	}

	if c.SpeechEnabled() {
		if msg, err := c.store.Get(replyID); err == nil {
			c.speaker.Speak(msg.Content())
		}
	}
	return nil
}

// failSend converts a stream failure into an errored transcript message with
// persona-flavored text. The spoken apology is generic; raw errors are never
// voiced.
func (c *Controller) failSend(replyID string, persona config.Persona, cause error) error {
	detail := failureDetail(cause)
	reason := persona.ErrorMessage(detail)

	if err := c.store.Fail(replyID, reason); err != nil {
		// The message already left streaming state (e.g. complete raced the
		// failure); nothing left to record.
		if !apierrors.IsFatalWiring(err) {
			return err
		}
	}

	if c.SpeechEnabled() {
		c.speaker.Speak(errorApology)
	}
	return cause
}

// failureDetail maps an error to the human-readable text embedded in the
// persona-flavored message.
func failureDetail(err error) string {
	switch {
	case errors.Is(err, apierrors.ErrAborted):
		return "generation aborted"
	case apierrors.IsTimeout(err):
		return "the request timed out"
	case apierrors.IsFatalWiring(err):
		return "an internal failure interrupted the response"
	default:
		return err.Error()
	}
}

// Abort cancels the in-flight generation, if any. Fragments that arrive
// after the abort are discarded.
func (c *Controller) Abort() {
	c.mu.Lock()
	abort := c.abort
	c.mu.Unlock()
	if abort != nil {
		abort()
	}
}

// Reset clears the transcript, recreates the conversation under the current
// persona, and posts the persona's cleared notice. Invalid while busy.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return fmt.Errorf("cannot reset while a generation is in flight")
	}
	c.pending = nil
	notice := c.persona.Cleared
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		return err
	}
	c.chat.Reset()

	_, _ = c.store.Append(transcript.RoleNotice, notice, nil, transcript.StatusComplete)
	if c.SpeechEnabled() {
		c.speaker.Speak("Chat cleared.")
	}
	return nil
}

// SetPersona switches the active persona, dropping the conversation and
// posting the new persona's greeting. Invalid while busy.
func (c *Controller) SetPersona(name string) error {
	p, err := config.GetPersona(name)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return fmt.Errorf("cannot switch persona while a generation is in flight")
	}
	c.persona = p
	c.pending = nil
	c.mu.Unlock()

	c.chat.SetInstruction(p.Instruction)
	if err := c.store.Clear(); err != nil {
		return err
	}
	_, _ = c.store.Append(transcript.RoleNotice, p.Greeting, nil, transcript.StatusComplete)
	return nil
}

// buildParts assembles the outbound parts: prompt text first, then the
// attachment encoding.
func buildParts(userText string, file *attach.File) []models.Part {
	var parts []models.Part
	if userText != "" {
		parts = append(parts, models.TextPart(userText))
	}
	if file != nil {
		parts = append(parts, file.Parts()...)
	}
	return parts
}
