package commands

import (
	"strings"
	"testing"

	"github.com/grimoco/grimchat/internal/config"
	apierrors "github.com/grimoco/grimchat/internal/errors"
	"github.com/grimoco/grimchat/internal/models"
)

func TestGetModelPrefersFlag(t *testing.T) {
	old := modelFlag
	defer func() { modelFlag = old }()

	modelFlag = "gemini-2.5-pro"
	if got := getModel(); got != "gemini-2.5-pro" {
		t.Errorf("expected flag value, got %q", got)
	}
}

func TestResolvePersonaFromFlag(t *testing.T) {
	old := personaFlag
	defer func() { personaFlag = old }()

	personaFlag = "angry"
	p, err := resolvePersona(config.DefaultConfig())
	if err != nil {
		t.Fatalf("resolvePersona: %v", err)
	}
	if p.Name != "angry" {
		t.Errorf("expected angry persona, got %q", p.Name)
	}

	personaFlag = "nonexistent"
	if _, err := resolvePersona(config.DefaultConfig()); err == nil {
		t.Error("unknown persona flag must be an error")
	}
}

func TestResolvePersonaFallsBackToConfig(t *testing.T) {
	old := personaFlag
	defer func() { personaFlag = old }()
	personaFlag = ""

	cfg := config.DefaultConfig()
	cfg.Persona = "thinker"
	p, err := resolvePersona(cfg)
	if err != nil {
		t.Fatalf("resolvePersona: %v", err)
	}
	if p.Name != "thinker" {
		t.Errorf("expected thinker persona, got %q", p.Name)
	}
}

func TestCitationLinesDropMissingURI(t *testing.T) {
	lines := citationLines([]models.Citation{
		{URI: "https://a.example", Title: "A"},
		{URI: "", Title: "dropped"},
		{URI: "https://b.example"},
	})

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "A — https://a.example" {
		t.Errorf("titled citation formatted wrong: %q", lines[0])
	}
	if lines[1] != "https://b.example" {
		t.Errorf("untitled citation formatted wrong: %q", lines[1])
	}
}

func TestFormatQueryErrorHints(t *testing.T) {
	msg := formatQueryError(apierrors.NewTimeoutError("deadline exceeded"), "Generation failed")
	if !strings.Contains(msg, "timed out") {
		t.Errorf("timeout error should carry a timeout hint: %q", msg)
	}

	msg = formatQueryError(apierrors.NewRemoteCallError(429, "/stream", "quota"), "Generation failed")
	if !strings.Contains(msg, "quota") && !strings.Contains(msg, "API key") {
		t.Errorf("remote error should carry a service hint: %q", msg)
	}
}
