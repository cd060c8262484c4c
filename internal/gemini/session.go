package gemini

import (
	"context"
	"strings"
	"sync"

	"github.com/grimoco/grimchat/internal/models"
)

// Generator is the client surface a chat session depends on
type Generator interface {
	GenerateStream(ctx context.Context, model models.Model, req *models.GenerateRequest, fn ChunkFunc) error
}

// ChatSession carries the conversation history the service needs for
// multi-turn context. The history is rebuilt empty on reset or persona
// change; the system instruction always reflects the active persona.
type ChatSession struct {
	client Generator

	mu          sync.RWMutex
	model       models.Model
	instruction string
	search      bool
	history     []models.Content
}

// SendMessageStream sends one user turn and streams the reply through fn.
// On success the user turn and the full reply text are committed to the
// history; a failed or aborted stream leaves the history untouched, so the
// next send retries from a consistent state.
func (s *ChatSession) SendMessageStream(ctx context.Context, parts []models.Part, fn ChunkFunc) error {
	if len(parts) == 0 {
		return nil
	}

	s.mu.RLock()
	req := &models.GenerateRequest{
		Contents: make([]models.Content, 0, len(s.history)+1),
	}
	if s.instruction != "" {
		req.SystemInstruction = &models.Content{
			Parts: []models.Part{models.TextPart(s.instruction)},
		}
	}
	req.Contents = append(req.Contents, s.history...)
	req.Contents = append(req.Contents, models.Content{Role: "user", Parts: parts})
	if s.search {
		req.Tools = []models.Tool{models.SearchTool()}
	}
	model := s.model
	s.mu.RUnlock()

	var reply strings.Builder
	err := s.client.GenerateStream(ctx, model, req, func(chunk models.StreamChunk) error {
		reply.WriteString(chunk.Text)
		return fn(chunk)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.history = append(s.history, models.Content{Role: "user", Parts: parts})
	s.history = append(s.history, models.Content{
		Role:  "model",
		Parts: []models.Part{models.TextPart(reply.String())},
	})
	s.mu.Unlock()

	return nil
}

// Reset drops the conversation history
func (s *ChatSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// SetInstruction replaces the system instruction and drops the history, since
// the old turns were produced under a different persona.
func (s *ChatSession) SetInstruction(instruction string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instruction = instruction
	s.history = nil
}

// Instruction returns the active system instruction
func (s *ChatSession) Instruction() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instruction
}

// EnableSearch toggles web-search grounding for subsequent sends
func (s *ChatSession) EnableSearch(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = enabled
}

// SearchEnabled returns whether web-search grounding is on
func (s *ChatSession) SearchEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

// GetModel returns the session's model
func (s *ChatSession) GetModel() models.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel changes the session's model
func (s *ChatSession) SetModel(model models.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// HistoryLen returns the number of committed turns
func (s *ChatSession) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}
