package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/grimoco/grimchat/internal/config"
	apierrors "github.com/grimoco/grimchat/internal/errors"
	"github.com/grimoco/grimchat/internal/markup"
	"github.com/grimoco/grimchat/internal/render"
	"github.com/grimoco/grimchat/internal/session"
	"github.com/grimoco/grimchat/internal/transcript"
)

// Message types for the TUI
type (
	// storeEventMsg wraps a transcript mutation
	storeEventMsg transcript.Event

	// sendDoneMsg reports the outcome of a send
	sendDoneMsg struct {
		err error
	}
)

// Model is the chat TUI state
type Model struct {
	ctrl  *session.Controller
	store *transcript.Store
	cfg   config.Config

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	styles   styles
	theme    markup.Theme

	events chan transcript.Event

	// State
	ready    bool
	busy     bool
	searchOn bool
	banner   string

	// Persona selection state
	selectingPersona bool
	personaCursor    int

	// Dimensions
	width  int
	height int
}

// NewModel creates the chat TUI over an already-started controller
func NewModel(ctrl *session.Controller, store *transcript.Store, cfg config.Config) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	st := newStyles(cfg.Theme)

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = st.loading

	m := Model{
		ctrl:     ctrl,
		store:    store,
		cfg:      cfg,
		textarea: ta,
		spinner:  s,
		styles:   st,
		theme:    markup.ThemeByName(cfg.Theme),
		events:   make(chan transcript.Event, 64),
	}

	// Store mutations arrive on the events channel; a full event buffer is
	// dropped rather than blocking the stream, since every redraw reads the
	// whole snapshot anyway.
	store.Subscribe(func(ev transcript.Event) {
		select {
		case m.events <- ev:
		default:
		}
	})

	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.waitForEvent(),
	)
}

// waitForEvent blocks until the transcript mutates
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return storeEventMsg(<-m.events)
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.selectingPersona {
		return m.updatePersonaSelection(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 5
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.textarea.SetWidth(contentWidth - 4)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
			m.textarea.SetWidth(contentWidth - 4)
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.busy {
				m.ctrl.Abort()
			} else {
				return m, tea.Quit
			}

		case "ctrl+y":
			m.banner = m.copyLastCodeBlock()

		case "enter":
			if m.busy {
				break
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" && m.ctrl.PendingAttachment() == nil {
				break
			}
			if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
				return m, tea.Quit
			}

			if handled, model, cmd := m.handleCommand(input); handled {
				return model, cmd
			}

			m.textarea.Reset()
			m.busy = true
			m.banner = ""
			return m, tea.Batch(
				m.sendMessage(input),
				m.spinner.Tick,
				m.waitForEvent(),
			)
		}

	case storeEventMsg:
		m.updateViewport()
		m.viewport.GotoBottom()
		cmds = append(cmds, m.waitForEvent())

	case sendDoneMsg:
		m.busy = false
		if msg.err != nil && apierrors.IsConcurrentStream(msg.err) {
			m.banner = "Still answering the last one."
		}
		m.updateViewport()
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		if m.busy {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.busy {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleCommand interprets slash commands. Returns handled=false for plain
// chat input.
func (m Model) handleCommand(input string) (bool, tea.Model, tea.Cmd) {
	if !strings.HasPrefix(input, "/") {
		return false, m, nil
	}

	fields := strings.Fields(input)
	command := fields[0]
	arg := strings.TrimSpace(strings.TrimPrefix(input, command))

	m.textarea.Reset()
	m.banner = ""

	switch command {
	case "/clear":
		if err := m.ctrl.Reset(); err != nil {
			m.banner = err.Error()
		}

	case "/persona", "/mode":
		if arg != "" {
			if err := m.ctrl.SetPersona(arg); err != nil {
				m.banner = err.Error()
			}
		} else {
			m.selectingPersona = true
			m.personaCursor = m.currentPersonaIndex()
		}

	case "/attach":
		if arg == "" {
			m.banner = "Usage: /attach <path>"
			break
		}
		f, err := m.ctrl.AttachFile(arg)
		if err != nil {
			m.banner = err.Error()
			break
		}
		m.banner = fmt.Sprintf("Attached %s (%d bytes). Sent with your next message.", f.Name, f.Size)

	case "/detach":
		m.ctrl.ClearAttachment()
		m.banner = "Attachment removed."

	case "/speak":
		enabled := !m.ctrl.SpeechEnabled()
		m.ctrl.SetSpeechEnabled(enabled)
		notice := "Speech synthesis disabled."
		if enabled {
			notice = "Speech synthesis enabled."
		}
		_, _ = m.store.Append(transcript.RoleNotice, notice, nil, transcript.StatusComplete)

	case "/search":
		m.searchOn = !m.searchOn
		m.ctrl.EnableSearch(m.searchOn)
		if m.searchOn {
			m.banner = "Web-search grounding enabled."
		} else {
			m.banner = "Web-search grounding disabled."
		}

	case "/export":
		path := arg
		if path == "" {
			path = filepath.Join(".", fmt.Sprintf("grimchat-%s.md", time.Now().Format("20060102-150405")))
		}
		if err := os.WriteFile(path, []byte(m.store.ExportMarkdown("Grim AI Chat")), 0o644); err != nil {
			m.banner = err.Error()
		} else {
			m.banner = "Transcript exported to " + path
		}

	default:
		m.banner = "Unknown command: " + command
	}

	return true, m, nil
}

// currentPersonaIndex returns the index of the active persona in the fixed set
func (m Model) currentPersonaIndex() int {
	active := m.ctrl.Persona().Name
	for i, p := range config.Personas() {
		if p.Name == active {
			return i
		}
	}
	return 0
}

// sendMessage runs the blocking send off the UI loop
func (m Model) sendMessage(input string) tea.Cmd {
	return func() tea.Msg {
		return sendDoneMsg{err: m.ctrl.Send(context.Background(), input)}
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return m.styles.loading.Render("  Initializing...")
	}

	if m.selectingPersona {
		return m.renderPersonaSelector()
	}

	var sections []string
	contentWidth := m.width - 4

	persona := m.ctrl.Persona()
	headerParts := []string{
		m.styles.title.Render("☠ Grim AI"),
		m.styles.hint.Render("  •  "),
		m.styles.subtitle.Render(persona.Name + " mode"),
	}
	if f := m.ctrl.PendingAttachment(); f != nil {
		headerParts = append(headerParts,
			m.styles.hint.Render("  •  "),
			m.styles.attachmentNote.Render("📎 "+f.Name),
		)
	}
	if m.ctrl.SpeechEnabled() {
		headerParts = append(headerParts,
			m.styles.hint.Render("  •  "),
			m.styles.subtitle.Render("🔊 speech"),
		)
	}
	header := m.styles.header.Width(contentWidth).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, headerParts...))
	sections = append(sections, header)

	sections = append(sections, m.viewport.View())

	var inputContent string
	if m.busy {
		label := persona.LoadingLabel
		if label == "" {
			label = "Grim AI is answering..."
		}
		inputContent = m.spinner.View() + " " + m.styles.loading.Render(label)
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			m.styles.inputLabel.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, m.styles.inputPanel.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.banner != "" {
		sections = append(sections, m.styles.errorBanner.Render("⚠ "+m.banner))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStatusBar renders the bottom shortcut bar
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Esc", "Abort/Quit"},
		{"Ctrl+Y", "Copy code"},
		{"/persona", "Mode"},
		{"/clear", "Reset"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, m.styles.statusKey.Render(s.key)+m.styles.statusDesc.Render(" "+s.desc))
	}
	return m.styles.statusBar.Width(width).Align(lipgloss.Center).
		Render(strings.Join(items, "  │  "))
}

// updateViewport rebuilds the chat view from the transcript snapshot. The
// streaming message re-renders through the fence-safe markup path on every
// fragment; completed messages go through glamour.
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i, msg := range m.store.Snapshot() {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(m.renderMessage(msg, bubbleWidth))
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

func (m *Model) renderMessage(msg transcript.Message, width int) string {
	switch msg.Role {
	case transcript.RoleNotice:
		return m.styles.noticeText.Render(msg.Content())

	case transcript.RoleUser:
		label := m.styles.userLabel.Render("⬤ You")
		body := m.styles.userBubble.Width(width).Render(msg.Content())
		out := label + "\n" + body
		if msg.Attachment != nil {
			note := fmt.Sprintf("📎 %s (%s)", msg.Attachment.Name, msg.Attachment.Mime)
			if msg.Attachment.TextExcerpt != "" {
				note += "\n" + msg.Attachment.TextExcerpt
			}
			out += "\n" + m.styles.attachmentNote.Width(width).Render(note)
		}
		return out

	default:
		label := m.styles.grimLabel.Render("☠ Grim AI")

		var body string
		switch msg.Status {
		case transcript.StatusStreaming:
			body = markup.Render(markup.Parse(msg.Content()), width-4, m.theme)
		case transcript.StatusErrored:
			body = m.styles.erroredText.Render(msg.Content())
		default:
			rendered, err := render.Markdown(msg.Content(), render.FromConfig(m.cfg.Markdown, width-4))
			if err != nil {
				rendered = markup.Render(markup.Parse(msg.Content()), width-4, m.theme)
			}
			body = strings.TrimRight(rendered, "\n")
		}

		out := label + "\n" + m.styles.grimBubble.Width(width).Render(body)

		// Citations render only with a resolvable locator
		var links []string
		for _, c := range msg.Citations {
			if c.URI == "" {
				continue
			}
			title := c.Title
			if title == "" {
				title = c.URI
			}
			links = append(links, m.styles.citationLink.Render(title+" — "+c.URI))
		}
		if len(links) > 0 {
			out += "\n" + m.styles.citationHeader.Render("Sources:") + "\n" + strings.Join(links, "\n")
		}
		return out
	}
}

// copyLastCodeBlock copies the newest assistant code block to the clipboard
func (m Model) copyLastCodeBlock() string {
	snapshot := m.store.Snapshot()
	for i := len(snapshot) - 1; i >= 0; i-- {
		msg := snapshot[i]
		if msg.Role != transcript.RoleAssistant {
			continue
		}
		doc := markup.Parse(msg.Content())
		blocks := doc.CodeBlocks()
		if len(blocks) == 0 {
			continue
		}
		if err := markup.CopyBlock(doc, len(blocks)-1); err != nil {
			return err.Error()
		}
		return "Code copied to clipboard."
	}
	return "No code block to copy."
}

// Run starts the chat TUI and blocks until exit
func Run(ctrl *session.Controller, store *transcript.Store, cfg config.Config) error {
	p := tea.NewProgram(
		NewModel(ctrl, store, cfg),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
