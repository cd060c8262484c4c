package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/grimoco/grimchat/internal/models"
)

// fakeGenerator replays scripted chunks and records requests
type fakeGenerator struct {
	chunks  []models.StreamChunk
	err     error
	lastReq *models.GenerateRequest
	calls   int
}

func (f *fakeGenerator) GenerateStream(_ context.Context, _ models.Model, req *models.GenerateRequest, fn ChunkFunc) error {
	f.calls++
	f.lastReq = req
	for _, c := range f.chunks {
		if err := fn(c); err != nil {
			return err
		}
	}
	return f.err
}

func newTestSession(fake *fakeGenerator, instruction string) *ChatSession {
	return &ChatSession{
		client:      fake,
		model:       models.ModelFlash,
		instruction: instruction,
	}
}

func TestSendMessageStreamBuildsRequest(t *testing.T) {
	fake := &fakeGenerator{chunks: []models.StreamChunk{{Text: "hi", Final: true}}}
	s := newTestSession(fake, "be helpful")
	s.EnableSearch(true)

	err := s.SendMessageStream(context.Background(), []models.Part{models.TextPart("hello")}, func(models.StreamChunk) error {
		return nil
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	req := fake.lastReq
	if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "be helpful" {
		t.Error("request must carry the persona instruction")
	}
	if len(req.Contents) != 1 || req.Contents[0].Role != "user" {
		t.Fatalf("expected a single user turn, got %+v", req.Contents)
	}
	if len(req.Tools) != 1 || req.Tools[0].GoogleSearch == nil {
		t.Error("search grounding should be enabled")
	}
}

func TestSendMessageStreamCommitsHistory(t *testing.T) {
	fake := &fakeGenerator{chunks: []models.StreamChunk{
		{Text: "Hel"},
		{Text: "lo!", Final: true},
	}}
	s := newTestSession(fake, "")

	err := s.SendMessageStream(context.Background(), []models.Part{models.TextPart("hey")}, func(models.StreamChunk) error {
		return nil
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if s.HistoryLen() != 2 {
		t.Fatalf("expected user + model turns, got %d", s.HistoryLen())
	}

	// Second send carries the prior turns
	err = s.SendMessageStream(context.Background(), []models.Part{models.TextPart("again")}, func(models.StreamChunk) error {
		return nil
	})
	if err != nil {
		t.Fatalf("second send failed: %v", err)
	}
	if len(fake.lastReq.Contents) != 3 {
		t.Errorf("expected 3 turns in request, got %d", len(fake.lastReq.Contents))
	}
	if fake.lastReq.Contents[1].Role != "model" || fake.lastReq.Contents[1].Parts[0].Text != "Hello!" {
		t.Errorf("model turn must hold the accumulated reply, got %+v", fake.lastReq.Contents[1])
	}
}

func TestSendMessageStreamFailureLeavesHistory(t *testing.T) {
	fake := &fakeGenerator{
		chunks: []models.StreamChunk{{Text: "part"}},
		err:    errors.New("network down"),
	}
	s := newTestSession(fake, "")

	err := s.SendMessageStream(context.Background(), []models.Part{models.TextPart("hey")}, func(models.StreamChunk) error {
		return nil
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if s.HistoryLen() != 0 {
		t.Errorf("failed send must not commit history, got %d turns", s.HistoryLen())
	}
}

func TestSetInstructionDropsHistory(t *testing.T) {
	fake := &fakeGenerator{chunks: []models.StreamChunk{{Text: "ok", Final: true}}}
	s := newTestSession(fake, "old persona")

	_ = s.SendMessageStream(context.Background(), []models.Part{models.TextPart("hi")}, func(models.StreamChunk) error {
		return nil
	})
	if s.HistoryLen() == 0 {
		t.Fatal("setup: expected committed history")
	}

	s.SetInstruction("new persona")
	if s.HistoryLen() != 0 {
		t.Error("persona change must drop the history")
	}
	if s.Instruction() != "new persona" {
		t.Errorf("instruction not updated, got %q", s.Instruction())
	}
}

func TestResetDropsHistory(t *testing.T) {
	fake := &fakeGenerator{chunks: []models.StreamChunk{{Text: "ok", Final: true}}}
	s := newTestSession(fake, "")

	_ = s.SendMessageStream(context.Background(), []models.Part{models.TextPart("hi")}, func(models.StreamChunk) error {
		return nil
	})
	s.Reset()
	if s.HistoryLen() != 0 {
		t.Error("reset must drop the history")
	}
}

func TestSendMessageStreamEmptyParts(t *testing.T) {
	fake := &fakeGenerator{}
	s := newTestSession(fake, "")

	if err := s.SendMessageStream(context.Background(), nil, nil); err != nil {
		t.Fatalf("empty send should be a no-op, got %v", err)
	}
	if fake.calls != 0 {
		t.Error("empty send must not reach the service")
	}
}
