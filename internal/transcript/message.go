// Package transcript provides the ordered, append-only message log that
// backs the chat view. The store owns the streaming invariants: at most one
// message streams at a time, streaming content only ever grows, and messages
// are never removed individually.
package transcript

import (
	"strings"
	"time"

	"github.com/grimoco/grimchat/internal/models"
)

// Role identifies the author of a message
type Role string

// Message roles
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleNotice    Role = "notice"
)

// Status is the lifecycle state of a message
type Status string

// Message statuses
const (
	StatusStreaming Status = "streaming"
	StatusComplete  Status = "complete"
	StatusErrored   Status = "errored"
)

// Attachment references the file payload carried by a user message.
// Immutable once set.
type Attachment struct {
	Name        string
	Mime        string
	Size        int64
	ImageBase64 string // set for images; rendered as an image reference
	TextExcerpt string // set for text-like files; shown in the preview
}

// IsImage reports whether the attachment carries inline image data
func (a *Attachment) IsImage() bool {
	return a != nil && a.ImageBase64 != ""
}

// Message is one transcript entry. Content grows fragment by fragment while
// streaming and freezes at completion.
type Message struct {
	ID         string
	Role       Role
	Attachment *Attachment
	Citations  []models.Citation
	CreatedAt  time.Time
	Status     Status

	fragments []string
}

// Content returns the display text: all fragments concatenated in arrival
// order.
func (m *Message) Content() string {
	switch len(m.fragments) {
	case 0:
		return ""
	case 1:
		return m.fragments[0]
	}

	var sb strings.Builder
	for _, f := range m.fragments {
		sb.WriteString(f)
	}
	return sb.String()
}

// FragmentCount returns how many fragments the message has received
func (m *Message) FragmentCount() int {
	return len(m.fragments)
}

// clone returns a deep copy so snapshots stay immutable under later mutation
func (m *Message) clone() Message {
	out := *m
	out.fragments = append([]string(nil), m.fragments...)
	out.Citations = append([]models.Citation(nil), m.Citations...)
	if m.Attachment != nil {
		att := *m.Attachment
		out.Attachment = &att
	}
	return out
}
