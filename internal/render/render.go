// Package render produces the final terminal form of completed messages
// using glamour. Streaming messages are rendered elsewhere with the cheaper
// incremental markup path; glamour runs once per message, at completion.
package render

import (
	"github.com/grimoco/grimchat/internal/config"
)

// Options configures the markdown renderer
type Options struct {
	// Width defines the maximum output width (default: 80)
	Width int

	// Style defines the theme: "dark", "light", or a glamour style path
	Style string

	// EnableEmoji converts :emoji: to unicode characters
	EnableEmoji bool

	// PreserveNewLines preserves original line breaks
	PreserveNewLines bool
}

// DefaultOptions returns the default configuration
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// WithWidth returns Options with the specified width
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns Options with the specified style
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

// FromConfig builds Options from the user's markdown configuration
func FromConfig(cfg config.MarkdownConfig, width int) Options {
	opts := DefaultOptions().WithWidth(width)
	if cfg.Style != "" {
		opts.Style = cfg.Style
	}
	opts.EnableEmoji = cfg.EnableEmoji
	opts.PreserveNewLines = cfg.PreserveNewLines
	return opts
}

// Markdown renders markdown content for terminal display. Renderers are
// pooled per option set; glamour renderers are not safe for concurrent use.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// MarkdownWithWidth renders with default options at the given width
func MarkdownWithWidth(content string, width int) (string, error) {
	return Markdown(content, DefaultOptions().WithWidth(width))
}
