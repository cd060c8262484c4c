package transcript

import (
	"sync"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/grimoco/grimchat/internal/errors"
	"github.com/grimoco/grimchat/internal/models"
)

// EventKind describes a store mutation
type EventKind int

// Store mutation kinds
const (
	EventAppend EventKind = iota
	EventExtend
	EventComplete
	EventFail
	EventClear
)

// Event notifies observers of a mutation. ID is empty for EventClear.
type Event struct {
	Kind EventKind
	ID   string
}

// Observer receives store events. Observers are invoked after the mutation
// commits, outside the store lock, in subscription order.
type Observer func(Event)

// Store is the append-only transcript log
type Store struct {
	mu          sync.Mutex
	messages    []*Message
	byID        map[string]*Message
	streamingID string
	observers   []Observer
}

// NewStore creates an empty transcript store
func NewStore() *Store {
	return &Store{
		byID: make(map[string]*Message),
	}
}

// Subscribe registers an observer for all future mutations
func (s *Store) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) notify(ev Event) {
	s.mu.Lock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}
}

// Append adds a message at the end of the transcript and returns its id.
// Appending a second streaming message while one is active fails with a
// ConcurrentStreamError.
func (s *Store) Append(role Role, content string, att *Attachment, status Status) (string, error) {
	s.mu.Lock()

	if status == StatusStreaming && s.streamingID != "" {
		active := s.streamingID
		s.mu.Unlock()
		return "", apierrors.NewConcurrentStreamError(active)
	}

	msg := &Message{
		ID:         uuid.NewString(),
		Role:       role,
		Attachment: att,
		CreatedAt:  time.Now(),
		Status:     status,
	}
	if content != "" {
		msg.fragments = append(msg.fragments, content)
	}

	s.messages = append(s.messages, msg)
	s.byID[msg.ID] = msg
	if status == StatusStreaming {
		s.streamingID = msg.ID
	}
	id := msg.ID
	s.mu.Unlock()

	s.notify(Event{Kind: EventAppend, ID: id})
	return id, nil
}

// Extend appends a fragment to the named streaming message
func (s *Store) Extend(id, fragment string) error {
	s.mu.Lock()

	msg, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return apierrors.NewNotFoundError(id)
	}
	if msg.Status != StatusStreaming {
		status := string(msg.Status)
		s.mu.Unlock()
		return apierrors.NewInvalidStateError("extend", id, status)
	}

	msg.fragments = append(msg.fragments, fragment)
	s.mu.Unlock()

	s.notify(Event{Kind: EventExtend, ID: id})
	return nil
}

// Complete transitions a streaming message to complete, attaching citations
// if provided. Citations are set at most once and never mutated afterwards.
func (s *Store) Complete(id string, citations []models.Citation) error {
	s.mu.Lock()

	msg, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return apierrors.NewNotFoundError(id)
	}
	if msg.Status != StatusStreaming {
		status := string(msg.Status)
		s.mu.Unlock()
		return apierrors.NewInvalidStateError("complete", id, status)
	}

	msg.Status = StatusComplete
	if len(citations) > 0 && msg.Citations == nil {
		msg.Citations = append([]models.Citation(nil), citations...)
	}
	s.streamingID = ""
	s.mu.Unlock()

	s.notify(Event{Kind: EventComplete, ID: id})
	return nil
}

// Fail transitions a streaming message to errored. The reason replaces the
// partial content as the final display text.
func (s *Store) Fail(id, reason string) error {
	s.mu.Lock()

	msg, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return apierrors.NewNotFoundError(id)
	}
	if msg.Status != StatusStreaming {
		status := string(msg.Status)
		s.mu.Unlock()
		return apierrors.NewInvalidStateError("fail", id, status)
	}

	msg.Status = StatusErrored
	msg.fragments = []string{reason}
	s.streamingID = ""
	s.mu.Unlock()

	s.notify(Event{Kind: EventFail, ID: id})
	return nil
}

// Clear empties the transcript. Refused while a message is streaming; callers
// abort in-flight work first.
func (s *Store) Clear() error {
	s.mu.Lock()

	if s.streamingID != "" {
		active := s.streamingID
		s.mu.Unlock()
		return apierrors.NewInvalidStateError("clear transcript while streaming", active, string(StatusStreaming))
	}

	s.messages = nil
	s.byID = make(map[string]*Message)
	s.mu.Unlock()

	s.notify(Event{Kind: EventClear})
	return nil
}

// Get returns a copy of the message with the given id
func (s *Store) Get(id string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byID[id]
	if !ok {
		return Message{}, apierrors.NewNotFoundError(id)
	}
	return msg.clone(), nil
}

// Snapshot returns a copy of the whole transcript in order
func (s *Store) Snapshot() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.clone()
	}
	return out
}

// Len returns the number of messages in the transcript
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// StreamingID returns the id of the active streaming message, if any
func (s *Store) StreamingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamingID
}
