package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grimoco/grimchat/internal/config"
)

// updatePersonaSelection handles input while the persona overlay is open
func (m Model) updatePersonaSelection(msg tea.Msg) (tea.Model, tea.Cmd) {
	personas := config.Personas()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case storeEventMsg:
		return m, m.waitForEvent()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			m.selectingPersona = false

		case "up", "k":
			m.personaCursor--
			if m.personaCursor < 0 {
				m.personaCursor = len(personas) - 1
			}

		case "down", "j":
			m.personaCursor++
			if m.personaCursor >= len(personas) {
				m.personaCursor = 0
			}

		case "enter":
			selected := personas[m.personaCursor]
			m.selectingPersona = false
			if selected.Name != m.ctrl.Persona().Name {
				if err := m.ctrl.SetPersona(selected.Name); err != nil {
					m.banner = err.Error()
				}
			}
			m.updateViewport()
			m.viewport.GotoBottom()
		}
	}

	return m, nil
}

// renderPersonaSelector renders the persona overlay
func (m Model) renderPersonaSelector() string {
	width := m.width - 8
	if width < 40 {
		width = 40
	}

	active := m.ctrl.Persona().Name

	var content strings.Builder
	content.WriteString(m.styles.selectorTitle.Render("☠ Select a mode"))
	content.WriteString("\n\n")

	for i, p := range config.Personas() {
		cursor := "  "
		nameStyle := m.styles.selectorItem
		if i == m.personaCursor {
			cursor = m.styles.selectorCursor.Render("▸ ")
			nameStyle = m.styles.selectorActive
		}

		marker := ""
		if p.Name == active {
			marker = m.styles.hint.Render("  (current)")
		}

		line := fmt.Sprintf("%s%s%s", cursor, nameStyle.Render(p.Name), marker)
		line += m.styles.hint.Render(" — " + p.Description)
		content.WriteString(line)
		content.WriteString("\n")
	}

	content.WriteString("\n")
	shortcuts := []string{
		m.styles.statusKey.Render("↑↓") + m.styles.statusDesc.Render(" Navigate"),
		m.styles.statusKey.Render("Enter") + m.styles.statusDesc.Render(" Select"),
		m.styles.statusKey.Render("Esc") + m.styles.statusDesc.Render(" Cancel"),
	}
	content.WriteString(strings.Join(shortcuts, "  │  "))

	return m.styles.selectorBox.Width(width).Render(content.String())
}
