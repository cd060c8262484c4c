package transcript

import (
	"fmt"
	"strings"
)

// ExportMarkdown renders the current transcript as a Markdown document,
// suitable for saving from the TUI. Errored messages keep their flavored
// text; notices are rendered as blockquotes.
func (s *Store) ExportMarkdown(title string) string {
	snapshot := s.Snapshot()

	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("**Messages:** %d\n\n---\n\n", len(snapshot)))

	for i, msg := range snapshot {
		switch msg.Role {
		case RoleUser:
			sb.WriteString("## You")
		case RoleAssistant:
			sb.WriteString("## Grim AI")
		default:
			sb.WriteString("## Notice")
		}
		if !msg.CreatedAt.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(msg.CreatedAt.Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")

		if msg.Role == RoleNotice {
			sb.WriteString("> ")
			sb.WriteString(strings.ReplaceAll(msg.Content(), "\n", "\n> "))
			sb.WriteString("\n")
		} else {
			sb.WriteString(msg.Content())
			sb.WriteString("\n")
		}

		if msg.Attachment != nil {
			sb.WriteString(fmt.Sprintf("\n*Attached: %s (%s, %d bytes)*\n",
				msg.Attachment.Name, msg.Attachment.Mime, msg.Attachment.Size))
		}

		if len(msg.Citations) > 0 {
			sb.WriteString("\nSources:\n")
			for _, c := range msg.Citations {
				if c.URI == "" {
					continue
				}
				title := c.Title
				if title == "" {
					title = c.URI
				}
				sb.WriteString(fmt.Sprintf("- [%s](%s)\n", title, c.URI))
			}
		}

		if i < len(snapshot)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}
