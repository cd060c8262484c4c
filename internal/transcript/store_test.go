package transcript

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	apierrors "github.com/grimoco/grimchat/internal/errors"
	"github.com/grimoco/grimchat/internal/models"
)

func TestAppendAssignsIdentity(t *testing.T) {
	s := NewStore()

	id1, err := s.Append(RoleUser, "hello", nil, StatusComplete)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, err := s.Append(RoleAssistant, "", nil, StatusStreaming)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id1 == "" || id2 == "" {
		t.Fatal("expected non-empty ids")
	}
	if id1 == id2 {
		t.Error("ids must be unique per message")
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 messages, got %d", s.Len())
	}
}

func TestSingleStreamingMessage(t *testing.T) {
	s := NewStore()

	id, err := s.Append(RoleAssistant, "", nil, StatusStreaming)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = s.Append(RoleAssistant, "", nil, StatusStreaming)
	if !apierrors.IsConcurrentStream(err) {
		t.Fatalf("expected ConcurrentStreamError, got %v", err)
	}

	// Completing releases the slot
	if err := s.Complete(id, nil); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if _, err := s.Append(RoleAssistant, "", nil, StatusStreaming); err != nil {
		t.Errorf("streaming append after completion should succeed, got %v", err)
	}
}

func TestExtendPreservesOrder(t *testing.T) {
	s := NewStore()
	id, _ := s.Append(RoleAssistant, "", nil, StatusStreaming)

	fragments := []string{"Hi", " the", "re", "!", " How", " are you?"}
	for _, f := range fragments {
		if err := s.Extend(id, f); err != nil {
			t.Fatalf("extend %q failed: %v", f, err)
		}
	}

	msg, err := s.Get(id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	want := strings.Join(fragments, "")
	if msg.Content() != want {
		t.Errorf("expected %q, got %q", want, msg.Content())
	}
	if msg.FragmentCount() != len(fragments) {
		t.Errorf("expected %d fragments, got %d", len(fragments), msg.FragmentCount())
	}
}

func TestExtendManySmallFragments(t *testing.T) {
	s := NewStore()
	id, _ := s.Append(RoleAssistant, "", nil, StatusStreaming)

	var want strings.Builder
	for i := 0; i < 500; i++ {
		f := fmt.Sprintf("%d,", i)
		want.WriteString(f)
		if err := s.Extend(id, f); err != nil {
			t.Fatalf("extend failed at %d: %v", i, err)
		}
	}

	msg, _ := s.Get(id)
	if msg.Content() != want.String() {
		t.Error("concatenation must equal fragments in arrival order")
	}
}

func TestExtendErrors(t *testing.T) {
	s := NewStore()

	if err := s.Extend("nope", "x"); !errors.Is(err, apierrors.ErrNotFound) {
		t.Errorf("expected NotFoundError, got %v", err)
	}

	id, _ := s.Append(RoleAssistant, "done", nil, StatusComplete)
	if err := s.Extend(id, "x"); !errors.Is(err, apierrors.ErrInvalidState) {
		t.Errorf("expected InvalidStateError, got %v", err)
	}
}

func TestCompleteAttachesCitationsOnce(t *testing.T) {
	s := NewStore()
	id, _ := s.Append(RoleAssistant, "", nil, StatusStreaming)
	_ = s.Extend(id, "grounded claim")

	citations := []models.Citation{
		{URI: "https://example.com/a", Title: "A"},
		{URI: "", Title: "broken"},
	}
	if err := s.Complete(id, citations); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	msg, _ := s.Get(id)
	if msg.Status != StatusComplete {
		t.Errorf("expected complete status, got %s", msg.Status)
	}
	if len(msg.Citations) != 2 {
		t.Fatalf("expected citations stored as given, got %d", len(msg.Citations))
	}

	// Completing twice is an invalid transition
	if err := s.Complete(id, citations); !errors.Is(err, apierrors.ErrInvalidState) {
		t.Errorf("expected InvalidStateError on double complete, got %v", err)
	}
}

func TestCompleteWithoutCitations(t *testing.T) {
	s := NewStore()
	id, _ := s.Append(RoleAssistant, "", nil, StatusStreaming)
	_ = s.Extend(id, "plain")

	if err := s.Complete(id, nil); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	msg, _ := s.Get(id)
	if msg.Citations != nil {
		t.Error("citations should remain absent when none are provided")
	}
}

func TestFailReplacesContent(t *testing.T) {
	s := NewStore()
	id, _ := s.Append(RoleAssistant, "", nil, StatusStreaming)
	_ = s.Extend(id, "Partial")

	if err := s.Fail(id, "Damn it, an error: boom"); err != nil {
		t.Fatalf("fail failed: %v", err)
	}

	msg, _ := s.Get(id)
	if msg.Status != StatusErrored {
		t.Errorf("expected errored status, got %s", msg.Status)
	}
	if msg.Content() != "Damn it, an error: boom" {
		t.Errorf("reason must replace partial content, got %q", msg.Content())
	}
	if s.StreamingID() != "" {
		t.Error("failing must release the streaming slot")
	}
}

func TestClearRefusedWhileStreaming(t *testing.T) {
	s := NewStore()
	_, _ = s.Append(RoleUser, "q", nil, StatusComplete)
	id, _ := s.Append(RoleAssistant, "", nil, StatusStreaming)

	if err := s.Clear(); !errors.Is(err, apierrors.ErrInvalidState) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}

	_ = s.Complete(id, nil)
	if err := s.Clear(); err != nil {
		t.Fatalf("clear after completion failed: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty transcript, got %d messages", s.Len())
	}
}

func TestObserverReceivesEvents(t *testing.T) {
	s := NewStore()

	var got []EventKind
	s.Subscribe(func(ev Event) {
		got = append(got, ev.Kind)
	})

	id, _ := s.Append(RoleAssistant, "", nil, StatusStreaming)
	_ = s.Extend(id, "a")
	_ = s.Complete(id, nil)
	_ = s.Clear()

	want := []EventKind{EventAppend, EventExtend, EventComplete, EventClear}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	s := NewStore()
	id, _ := s.Append(RoleAssistant, "", nil, StatusStreaming)
	_ = s.Extend(id, "one")

	snap := s.Snapshot()
	_ = s.Extend(id, " two")

	if snap[0].Content() != "one" {
		t.Errorf("snapshot must not observe later mutations, got %q", snap[0].Content())
	}
}

func TestExportMarkdown(t *testing.T) {
	s := NewStore()
	_, _ = s.Append(RoleNotice, "Grim AI ready.", nil, StatusComplete)
	_, _ = s.Append(RoleUser, "hello", nil, StatusComplete)
	id, _ := s.Append(RoleAssistant, "", nil, StatusStreaming)
	_ = s.Extend(id, "Hi there!")
	_ = s.Complete(id, []models.Citation{{URI: "https://example.com", Title: "Example"}})

	out := s.ExportMarkdown("Test Chat")

	for _, want := range []string{"# Test Chat", "## You", "## Grim AI", "Hi there!", "[Example](https://example.com)", "> Grim AI ready."} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q", want)
		}
	}
}
