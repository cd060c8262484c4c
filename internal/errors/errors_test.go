package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestConcurrentStreamErrorIs(t *testing.T) {
	err := NewConcurrentStreamError("msg-1")

	if !errors.Is(err, ErrConcurrentStream) {
		t.Error("expected match with ErrConcurrentStream sentinel")
	}
	if !IsConcurrentStream(fmt.Errorf("send rejected: %w", err)) {
		t.Error("expected match through wrapping")
	}
}

func TestInvalidStateErrorMessage(t *testing.T) {
	err := NewInvalidStateError("extend", "msg-2", "complete")

	want := `cannot extend message msg-2 in status "complete"`
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("expected match with ErrInvalidState sentinel")
	}
}

func TestRemoteCallError(t *testing.T) {
	tests := []struct {
		name string
		err  *RemoteCallError
		want string
	}{
		{
			name: "with status code",
			err:  NewRemoteCallError(503, "https://example.com/generate", "unavailable"),
			want: "remote call failed [503] at https://example.com/generate: unavailable",
		},
		{
			name: "wrapped transport error",
			err:  WrapRemoteCallError("https://example.com/generate", errors.New("connection refused")),
			want: "remote call failed at https://example.com/generate: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tt.err.Error())
			}
			if !IsRemote(tt.err) {
				t.Error("expected IsRemote to be true")
			}
		})
	}
}

func TestRemoteCallErrorUnwrap(t *testing.T) {
	inner := errors.New("reset by peer")
	err := WrapRemoteCallError("endpoint", inner)

	if !errors.Is(err, inner) {
		t.Error("expected unwrap to reach the transport error")
	}
}

func TestAttachmentErrors(t *testing.T) {
	tooLarge := NewAttachmentTooLargeError("big.png", 12<<20, 10<<20)
	if !errors.Is(tooLarge, ErrAttachmentTooLarge) {
		t.Error("expected too-large kind")
	}
	if errors.Is(tooLarge, ErrAttachmentUnsupported) {
		t.Error("too-large must not match unsupported")
	}

	unsupported := NewAttachmentUnsupportedError("a.bin", "application/octet-stream")
	if !errors.Is(unsupported, ErrAttachmentUnsupported) {
		t.Error("expected unsupported kind")
	}
	if !IsAttachmentRejected(tooLarge) || !IsAttachmentRejected(unsupported) {
		t.Error("both kinds are attachment rejections")
	}
}

func TestIsTimeout(t *testing.T) {
	err := fmt.Errorf("send failed: %w", NewTimeoutError("no data for 120s"))
	if !IsTimeout(err) {
		t.Error("expected IsTimeout through wrapping")
	}
	if IsTimeout(errors.New("other")) {
		t.Error("unrelated error must not be a timeout")
	}
}

func TestIsFatalWiring(t *testing.T) {
	if !IsFatalWiring(NewNotFoundError("x")) {
		t.Error("NotFoundError is fatal wiring")
	}
	if !IsFatalWiring(NewInvalidStateError("complete", "x", "errored")) {
		t.Error("InvalidStateError is fatal wiring")
	}
	if IsFatalWiring(NewTimeoutError("")) {
		t.Error("timeout is not fatal wiring")
	}
}
