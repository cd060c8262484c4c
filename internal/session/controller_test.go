package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/grimoco/grimchat/internal/config"
	apierrors "github.com/grimoco/grimchat/internal/errors"
	"github.com/grimoco/grimchat/internal/gemini"
	"github.com/grimoco/grimchat/internal/models"
	"github.com/grimoco/grimchat/internal/transcript"
)

// fakeSender scripts the remote stream
type fakeSender struct {
	mu          sync.Mutex
	chunks      []models.StreamChunk
	err         error
	block       chan struct{} // when set, the stream waits here after the first chunk
	lastParts   []models.Part
	sendCalls   int
	resetCalls  int
	instruction string
}

func (f *fakeSender) SendMessageStream(ctx context.Context, parts []models.Part, fn gemini.ChunkFunc) error {
	f.mu.Lock()
	f.sendCalls++
	f.lastParts = parts
	chunks := f.chunks
	block := f.block
	err := f.err
	f.mu.Unlock()

	for i, c := range chunks {
		if cbErr := fn(c); cbErr != nil {
			return cbErr
		}
		if i == 0 && block != nil {
			<-block
		}
	}
	return err
}

func (f *fakeSender) SetInstruction(instruction string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instruction = instruction
}

func (f *fakeSender) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
}

func (f *fakeSender) EnableSearch(bool) {}

// fakeSpeaker records what would have been voiced
type fakeSpeaker struct {
	mu     sync.Mutex
	spoken []string
	stops  int
}

func (s *fakeSpeaker) Speak(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
}

func (s *fakeSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func newTestController(sender *fakeSender) (*Controller, *transcript.Store, *fakeSpeaker) {
	store := transcript.NewStore()
	speaker := &fakeSpeaker{}
	ctrl := New(store, sender, speaker, config.PersonaOrDefault("normal"))
	return ctrl, store, speaker
}

func assistantMessage(t *testing.T, store *transcript.Store) transcript.Message {
	t.Helper()
	for _, m := range store.Snapshot() {
		if m.Role == transcript.RoleAssistant {
			return m
		}
	}
	t.Fatal("no assistant message in transcript")
	return transcript.Message{}
}

func TestSendStreamsReply(t *testing.T) {
	// Remote returns ["Hi", " there!"] then completes with no citations
	sender := &fakeSender{chunks: []models.StreamChunk{
		{Text: "Hi"},
		{Text: " there!", Final: true},
	}}
	ctrl, store, _ := newTestController(sender)

	if err := ctrl.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	msg := assistantMessage(t, store)
	if msg.Content() != "Hi there!" {
		t.Errorf("expected %q, got %q", "Hi there!", msg.Content())
	}
	if msg.Status != transcript.StatusComplete {
		t.Errorf("expected complete, got %s", msg.Status)
	}
	if len(msg.Citations) != 0 {
		t.Error("expected no citations")
	}
	if ctrl.Busy() {
		t.Error("busy flag must clear after completion")
	}
}

func TestSendRejectedWhileBusy(t *testing.T) {
	block := make(chan struct{})
	sender := &fakeSender{
		chunks: []models.StreamChunk{{Text: "slow"}},
		block:  block,
	}
	ctrl, _, _ := newTestController(sender)

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Send(context.Background(), "first")
	}()

	// Wait for the first send to take the busy flag
	for !ctrl.Busy() {
		runtime.Gosched()
	}

	if err := ctrl.Send(context.Background(), "second"); !apierrors.IsConcurrentStream(err) {
		t.Errorf("expected concurrent-stream rejection, got %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first send failed: %v", err)
	}

	if sender.sendCalls != 1 {
		t.Errorf("rejected send must not reach the remote, got %d calls", sender.sendCalls)
	}

	// Completed: the next send is accepted
	sender.mu.Lock()
	sender.block = nil
	sender.mu.Unlock()
	if err := ctrl.Send(context.Background(), "third"); err != nil {
		t.Errorf("send after completion should succeed, got %v", err)
	}
}

func TestSendEmptyIsNoOp(t *testing.T) {
	sender := &fakeSender{}
	ctrl, store, _ := newTestController(sender)

	if err := ctrl.Send(context.Background(), "   "); err != nil {
		t.Fatalf("empty send should be a no-op, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("empty send must not touch the transcript")
	}
	if sender.sendCalls != 0 {
		t.Error("empty send must not reach the remote")
	}
}

func TestSendFailureMidStream(t *testing.T) {
	// Remote fails after delivering "Partial"
	sender := &fakeSender{
		chunks: []models.StreamChunk{{Text: "Partial"}},
		err:    apierrors.NewRemoteCallError(500, "test", "backend exploded"),
	}
	ctrl, store, speaker := newTestController(sender)

	err := ctrl.Send(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected the stream error to propagate")
	}

	msg := assistantMessage(t, store)
	if msg.Status != transcript.StatusErrored {
		t.Fatalf("expected errored status, got %s", msg.Status)
	}
	if msg.Content() == "Partial" || msg.Content() == "" {
		t.Errorf("displayed content must be the flavored error, got %q", msg.Content())
	}
	if !strings.Contains(msg.Content(), "Damn it, an error:") {
		t.Errorf("expected persona-flavored text, got %q", msg.Content())
	}

	if ctrl.Busy() {
		t.Error("busy flag must clear after failure")
	}

	// Subsequent send is accepted
	sender.mu.Lock()
	sender.err = nil
	sender.chunks = []models.StreamChunk{{Text: "ok", Final: true}}
	sender.mu.Unlock()
	if err := ctrl.Send(context.Background(), "retry"); err != nil {
		t.Errorf("send after failure should be accepted, got %v", err)
	}

	// Failure speech is the generic apology, never the raw error
	ctrl.SetSpeechEnabled(true)
	sender.mu.Lock()
	sender.err = apierrors.NewRemoteCallError(500, "test", "secret detail")
	sender.chunks = nil
	sender.mu.Unlock()
	_ = ctrl.Send(context.Background(), "again")

	speaker.mu.Lock()
	defer speaker.mu.Unlock()
	found := false
	for _, s := range speaker.spoken {
		if strings.Contains(s, "secret detail") {
			t.Errorf("raw error must not be spoken: %q", s)
		}
		if s == errorApology {
			found = true
		}
	}
	if !found {
		t.Error("expected the generic apology to be spoken")
	}
}

func TestSendSpeaksFullReply(t *testing.T) {
	sender := &fakeSender{chunks: []models.StreamChunk{
		{Text: "Hello "},
		{Text: "world", Final: true},
	}}
	ctrl, _, speaker := newTestController(sender)
	ctrl.SetSpeechEnabled(true)

	if err := ctrl.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	speaker.mu.Lock()
	defer speaker.mu.Unlock()
	if len(speaker.spoken) != 1 || speaker.spoken[0] != "Hello world" {
		t.Errorf("expected the full reply spoken once, got %v", speaker.spoken)
	}
}

func TestSendAttachesCitations(t *testing.T) {
	sender := &fakeSender{chunks: []models.StreamChunk{
		{Text: "grounded"},
		{Final: true, Citations: []models.Citation{{URI: "https://src.example", Title: "Src"}}},
	}}
	ctrl, store, _ := newTestController(sender)

	if err := ctrl.Send(context.Background(), "cite"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	msg := assistantMessage(t, store)
	if len(msg.Citations) != 1 || msg.Citations[0].URI != "https://src.example" {
		t.Errorf("expected terminal-chunk citations on the message, got %+v", msg.Citations)
	}
}

func TestSendWithImageAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, make([]byte, 2*1024*1024), 0o644); err != nil {
		t.Fatal(err)
	}

	sender := &fakeSender{chunks: []models.StreamChunk{{Text: "nice pic", Final: true}}}
	ctrl, store, _ := newTestController(sender)

	if _, err := ctrl.AttachFile(path); err != nil {
		t.Fatalf("2MB image should stage, got %v", err)
	}
	if err := ctrl.Send(context.Background(), "look at this"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// User message carries the image reference
	var user transcript.Message
	for _, m := range store.Snapshot() {
		if m.Role == transcript.RoleUser {
			user = m
		}
	}
	if user.Attachment == nil || !user.Attachment.IsImage() {
		t.Error("user message should reference the image")
	}

	// Remote request carries an inline-binary part
	foundInline := false
	for _, p := range sender.lastParts {
		if p.InlineData != nil {
			foundInline = true
		}
	}
	if !foundInline {
		t.Error("remote request should include an inline-binary part")
	}

	if ctrl.PendingAttachment() != nil {
		t.Error("send must consume the staged attachment")
	}
}

func TestOversizeAttachmentRejectedBeforeSend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "huge.png")
	if err := os.WriteFile(path, make([]byte, 12*1024*1024), 0o644); err != nil {
		t.Fatal(err)
	}

	sender := &fakeSender{}
	ctrl, store, _ := newTestController(sender)

	if _, err := ctrl.AttachFile(path); !apierrors.IsAttachmentRejected(err) {
		t.Fatalf("expected attachment rejection, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("rejected attachment must not reach the transcript")
	}
	if sender.sendCalls != 0 {
		t.Error("no remote call may be made for a rejected attachment")
	}
}

func TestResetClearsState(t *testing.T) {
	sender := &fakeSender{chunks: []models.StreamChunk{{Text: "ok", Final: true}}}
	ctrl, store, _ := newTestController(sender)
	ctrl.Start()

	_ = ctrl.Send(context.Background(), "hello")

	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	_ = os.WriteFile(path, []byte("pending"), 0o644)
	if _, err := ctrl.AttachFile(path); err != nil {
		t.Fatal(err)
	}

	if err := ctrl.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	snap := store.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected exactly one notice after reset, got %d messages", len(snap))
	}
	if snap[0].Role != transcript.RoleNotice {
		t.Errorf("expected a notice, got role %s", snap[0].Role)
	}
	if snap[0].Content() != "Chat cleared. Grim AI (Normal) ready." {
		t.Errorf("unexpected cleared notice: %q", snap[0].Content())
	}
	if ctrl.PendingAttachment() != nil {
		t.Error("reset must drop the staged attachment")
	}
	if sender.resetCalls != 1 {
		t.Errorf("reset must recreate the conversation, got %d resets", sender.resetCalls)
	}
}

func TestSetPersona(t *testing.T) {
	sender := &fakeSender{}
	ctrl, store, _ := newTestController(sender)
	ctrl.Start()

	if err := ctrl.SetPersona("angry"); err != nil {
		t.Fatalf("persona switch failed: %v", err)
	}

	if ctrl.Persona().Name != "angry" {
		t.Errorf("expected angry persona, got %s", ctrl.Persona().Name)
	}
	if !strings.Contains(sender.instruction, "foul mood") {
		t.Error("conversation should carry the new persona instruction")
	}

	snap := store.Snapshot()
	if len(snap) != 1 || !strings.Contains(snap[0].Content(), "(Angry Mode)") {
		t.Errorf("expected the angry greeting alone, got %+v", snap)
	}

	if err := ctrl.SetPersona("nonexistent"); err == nil {
		t.Error("unknown persona must be rejected")
	}
}

func TestAbortDiscardsLateFragments(t *testing.T) {
	block := make(chan struct{})
	sender := &fakeSender{
		chunks: []models.StreamChunk{
			{Text: "early"},
			{Text: " late"},
		},
		block: block,
	}
	ctrl, store, _ := newTestController(sender)

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Send(context.Background(), "go")
	}()

	for ctrl.State() != StateStreaming {
		runtime.Gosched()
	}

	ctrl.Abort()
	close(block)

	err := <-done
	if !errors.Is(err, apierrors.ErrAborted) {
		t.Fatalf("expected abort, got %v", err)
	}

	msg := assistantMessage(t, store)
	if msg.Status != transcript.StatusErrored {
		t.Errorf("aborted message should be errored, got %s", msg.Status)
	}
	if strings.Contains(msg.Content(), "late") {
		t.Error("fragments after abort must be discarded")
	}
	if ctrl.Busy() {
		t.Error("busy flag must clear after abort")
	}
}

func TestResetRejectedWhileBusy(t *testing.T) {
	block := make(chan struct{})
	sender := &fakeSender{
		chunks: []models.StreamChunk{{Text: "x"}},
		block:  block,
	}
	ctrl, _, _ := newTestController(sender)

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Send(context.Background(), "hi")
	}()
	for !ctrl.Busy() {
		runtime.Gosched()
	}

	if err := ctrl.Reset(); err == nil {
		t.Error("reset must be rejected while busy")
	}
	if err := ctrl.SetPersona("happy"); err == nil {
		t.Error("persona switch must be rejected while busy")
	}

	close(block)
	<-done
}
