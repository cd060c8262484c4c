// Package tui provides the terminal chat interface for grimchat.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// palette is the color set for one theme
type palette struct {
	border   lipgloss.Color
	primary  lipgloss.Color
	accent   lipgloss.Color
	errorCol lipgloss.Color
	text     lipgloss.Color
	textDim  lipgloss.Color
}

func darkPalette() palette {
	return palette{
		border:   lipgloss.Color("240"),
		primary:  lipgloss.Color("105"),
		accent:   lipgloss.Color("86"),
		errorCol: lipgloss.Color("203"),
		text:     lipgloss.Color("252"),
		textDim:  lipgloss.Color("245"),
	}
}

func lightPalette() palette {
	return palette{
		border:   lipgloss.Color("250"),
		primary:  lipgloss.Color("57"),
		accent:   lipgloss.Color("30"),
		errorCol: lipgloss.Color("160"),
		text:     lipgloss.Color("235"),
		textDim:  lipgloss.Color("243"),
	}
}

// styles holds every lipgloss style the chat view uses, built once per theme
type styles struct {
	header         lipgloss.Style
	title          lipgloss.Style
	subtitle       lipgloss.Style
	hint           lipgloss.Style
	userLabel      lipgloss.Style
	userBubble     lipgloss.Style
	grimLabel      lipgloss.Style
	grimBubble     lipgloss.Style
	noticeText     lipgloss.Style
	erroredText    lipgloss.Style
	citationHeader lipgloss.Style
	citationLink   lipgloss.Style
	attachmentNote lipgloss.Style
	inputPanel     lipgloss.Style
	inputLabel     lipgloss.Style
	loading        lipgloss.Style
	statusBar      lipgloss.Style
	statusKey      lipgloss.Style
	statusDesc     lipgloss.Style
	errorBanner    lipgloss.Style
	selectorBox    lipgloss.Style
	selectorTitle  lipgloss.Style
	selectorItem   lipgloss.Style
	selectorActive lipgloss.Style
	selectorCursor lipgloss.Style
}

func newStyles(themeName string) styles {
	p := darkPalette()
	if themeName == "light" {
		p = lightPalette()
	}

	return styles{
		header: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 2),
		title:    lipgloss.NewStyle().Foreground(p.primary).Bold(true),
		subtitle: lipgloss.NewStyle().Foreground(p.textDim),
		hint:     lipgloss.NewStyle().Foreground(p.textDim),

		userLabel: lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		userBubble: lipgloss.NewStyle().
			Foreground(p.text).
			PaddingLeft(2),
		grimLabel: lipgloss.NewStyle().Foreground(p.primary).Bold(true),
		grimBubble: lipgloss.NewStyle().
			PaddingLeft(2),
		noticeText:  lipgloss.NewStyle().Foreground(p.textDim).Italic(true),
		erroredText: lipgloss.NewStyle().Foreground(p.errorCol),

		citationHeader: lipgloss.NewStyle().Foreground(p.textDim).Bold(true).PaddingLeft(2),
		citationLink:   lipgloss.NewStyle().Foreground(p.accent).Underline(true).PaddingLeft(2),
		attachmentNote: lipgloss.NewStyle().Foreground(p.textDim).Italic(true).PaddingLeft(2),

		inputPanel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),
		inputLabel: lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		loading:    lipgloss.NewStyle().Foreground(p.primary),

		statusBar:  lipgloss.NewStyle().Foreground(p.textDim),
		statusKey:  lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		statusDesc: lipgloss.NewStyle().Foreground(p.textDim),

		errorBanner: lipgloss.NewStyle().Foreground(p.errorCol).Bold(true),

		selectorBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.primary).
			Padding(1, 2),
		selectorTitle:  lipgloss.NewStyle().Foreground(p.primary).Bold(true),
		selectorItem:   lipgloss.NewStyle().Foreground(p.text),
		selectorActive: lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		selectorCursor: lipgloss.NewStyle().Foreground(p.primary).Bold(true),
	}
}
