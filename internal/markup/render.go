package markup

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// Theme bundles the lipgloss styles used to render a document
type Theme struct {
	Bold       lipgloss.Style
	Italic     lipgloss.Style
	Strike     lipgloss.Style
	InlineCode lipgloss.Style
	CodeHeader lipgloss.Style
	CodeBorder lipgloss.Style
	ChromaName string
}

// DarkTheme returns the default dark rendering theme
func DarkTheme() Theme {
	return Theme{
		Bold:       lipgloss.NewStyle().Bold(true),
		Italic:     lipgloss.NewStyle().Italic(true),
		Strike:     lipgloss.NewStyle().Strikethrough(true),
		InlineCode: lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Background(lipgloss.Color("236")),
		CodeHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
		CodeBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		ChromaName: "monokai",
	}
}

// LightTheme returns the rendering theme for light terminals
func LightTheme() Theme {
	return Theme{
		Bold:       lipgloss.NewStyle().Bold(true),
		Italic:     lipgloss.NewStyle().Italic(true),
		Strike:     lipgloss.NewStyle().Strikethrough(true),
		InlineCode: lipgloss.NewStyle().Foreground(lipgloss.Color("30")).Background(lipgloss.Color("254")),
		CodeHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Bold(true),
		CodeBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("248")).
			Padding(0, 1),
		ChromaName: "github",
	}
}

// ThemeByName maps a config theme name to a rendering theme
func ThemeByName(name string) Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}

// Render produces the terminal form of a document at the given width. Code
// blocks get a header with the language label and copy hint, a border, and
// syntax highlighting; open fences render without the copy hint since their
// body is still growing.
func Render(doc Document, width int, theme Theme) string {
	var parts []string
	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockCode:
			parts = append(parts, renderCode(b, width, theme))
		default:
			parts = append(parts, renderSpans(b.Spans, theme))
		}
	}
	return strings.Join(parts, "\n")
}

func renderSpans(spans []Span, theme Theme) string {
	var sb strings.Builder
	for _, sp := range spans {
		switch sp.Style {
		case SpanBold:
			sb.WriteString(theme.Bold.Render(sp.Text))
		case SpanItalic:
			sb.WriteString(theme.Italic.Render(sp.Text))
		case SpanStrike:
			sb.WriteString(theme.Strike.Render(sp.Text))
		case SpanCode:
			sb.WriteString(theme.InlineCode.Render(sp.Text))
		default:
			sb.WriteString(sp.Text)
		}
	}
	return sb.String()
}

func renderCode(b Block, width int, theme Theme) string {
	label := b.Lang
	if label == "" {
		label = "code"
	}
	header := label
	if !b.Open {
		header += "  (ctrl+y to copy)"
	}

	body := highlight(b.Body, b.Lang, theme.ChromaName)

	maxWidth := width - 4
	if maxWidth < 20 {
		maxWidth = 20
	}

	return theme.CodeBorder.MaxWidth(maxWidth).Render(
		theme.CodeHeader.Render(header) + "\n" + body)
}

// highlight runs chroma over a fence body, falling back to plain text when
// the language is unknown or tokenizing fails.
func highlight(code, language, styleName string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
