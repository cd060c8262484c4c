package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/grimoco/grimchat/internal/attach"
	"github.com/grimoco/grimchat/internal/config"
	apierrors "github.com/grimoco/grimchat/internal/errors"
	"github.com/grimoco/grimchat/internal/gemini"
	"github.com/grimoco/grimchat/internal/models"
	"github.com/grimoco/grimchat/internal/render"
)

var (
	colorText    = lipgloss.Color("252")
	colorTextDim = lipgloss.Color("245")
	colorSuccess = lipgloss.Color("78")
	colorPrimary = lipgloss.Color("105")
	colorError   = lipgloss.Color("203")
)

var (
	queryLabelStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	queryBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)

	citationStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)

// spinner handles the animated loading indicator on stderr
type spinner struct {
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

func newSpinner(message string) *spinner {
	return &spinner{
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(os.Stderr, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(os.Stderr, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	spin := lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).
		Render(chars[s.frame%len(chars)])
	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(os.Stderr, "\r\033[K%s %s", spin, msg)
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	check := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(os.Stderr, "%s %s\n", check, msg)
}

func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// runQuery executes a single prompt and prints the streamed response.
// If rawOutput is true, fragments go straight to stdout as they arrive.
func runQuery(prompt string, rawOutput bool) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	cfg, _ := config.LoadConfig()

	persona, err := resolvePersona(cfg)
	if err != nil {
		return err
	}

	modelName := getModel()
	if cfg.Verbose && !rawOutput {
		fmt.Fprintf(os.Stderr, "[verbose] Model: %s\n", modelName)
		fmt.Fprintf(os.Stderr, "[verbose] Persona: %s\n", persona.Name)
	}

	key, err := config.APIKey()
	if err != nil {
		return err
	}

	client, err := gemini.NewClient(key,
		gemini.WithModel(models.ModelFromName(modelName)),
		gemini.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	chat := client.StartChat(persona.Instruction)
	if searchFlag {
		chat.EnableSearch(true)
	}

	parts := []models.Part{}
	if attachFlag != "" {
		file, err := attach.Load(attachFlag)
		if err != nil {
			return fmt.Errorf("failed to attach file: %w", err)
		}
		parts = append(parts, file.Parts()...)
	}
	parts = append(parts, models.TextPart(prompt))

	var spin *spinner
	if !rawOutput {
		spin = newSpinner("Summoning Grim AI")
		spin.start()
	}

	var (
		reply     strings.Builder
		citations []models.Citation
	)
	started := time.Now()

	err = chat.SendMessageStream(context.Background(), parts, func(chunk models.StreamChunk) error {
		if rawOutput && chunk.HasText() {
			fmt.Print(chunk.Text)
		}
		reply.WriteString(chunk.Text)
		if len(chunk.Citations) > 0 {
			citations = chunk.Citations
		}
		return nil
	})
	elapsed := time.Since(started)

	if err != nil {
		if !rawOutput {
			spin.stopWithError()
			fmt.Fprintln(os.Stderr, formatQueryError(err, "Generation failed"))
		}
		return fmt.Errorf("generation failed: %w", err)
	}
	if !rawOutput {
		spin.stopWithSuccess("Done")
	}

	if cfg.Verbose && !rawOutput {
		fmt.Fprintf(os.Stderr, "[verbose] Request took %s\n", elapsed.Round(time.Millisecond))
	}

	text := reply.String()

	if rawOutput {
		if outputFlag != "" {
			if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return nil
		}
		if !strings.HasSuffix(text, "\n") {
			fmt.Println()
		}
		return nil
	}

	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		saved := lipgloss.NewStyle().Foreground(colorSuccess).Render(
			fmt.Sprintf("✓ Response saved to %s", outputFlag),
		)
		fmt.Fprintln(os.Stderr, saved)
		return nil
	}

	// Decorated output: bounded bubble width, markdown rendered for the terminal
	termWidth := getTerminalWidth()
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Println(queryLabelStyle.Render("☠ Grim AI"))

	rendered, err := render.Markdown(text, render.FromConfig(cfg.Markdown, contentWidth))
	if err != nil {
		rendered = text
	}
	rendered = strings.TrimRight(rendered, "\n")

	fmt.Println(queryBubbleStyle.Width(bubbleWidth).Render(rendered))

	if lines := citationLines(citations); len(lines) > 0 {
		fmt.Println(citationStyle.Render("Sources:"))
		for _, line := range lines {
			fmt.Println(citationStyle.Render("  " + line))
		}
	}

	return nil
}

// resolvePersona picks the persona for this run: flag first, then config
func resolvePersona(cfg config.Config) (config.Persona, error) {
	if personaFlag != "" {
		persona, err := config.GetPersona(personaFlag)
		if err != nil {
			return config.Persona{}, err
		}
		return persona, nil
	}
	return config.PersonaOrDefault(cfg.Persona), nil
}

// citationLines formats citations for display, dropping entries with no URI
func citationLines(citations []models.Citation) []string {
	lines := make([]string, 0, len(citations))
	for _, c := range citations {
		if c.URI == "" {
			continue
		}
		if c.Title != "" {
			lines = append(lines, fmt.Sprintf("%s — %s", c.Title, c.URI))
		} else {
			lines = append(lines, c.URI)
		}
	}
	return lines
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatQueryError formats an error with a hint drawn from its type
func formatQueryError(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	switch {
	case apierrors.IsTimeout(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Request timed out. Raise timeout_seconds in the config or try again"))
	case apierrors.IsRemote(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The service rejected the request. Check your API key and quota"))
	case apierrors.IsAttachmentRejected(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The attachment was rejected. Check its size and type"))
	}

	return sb.String()
}
