// Package markup turns raw model output into structured, terminal-safe
// markup. Parsing is a pure function of the full accumulated text: callers
// re-parse on every fragment instead of patching previous output, so a code
// fence that is still open mid-stream can never leak inline formatting.
package markup

import (
	"regexp"
	"strings"
)

// SpanStyle is the inline decoration applied to a span
type SpanStyle int

// Inline span styles
const (
	SpanPlain SpanStyle = iota
	SpanBold
	SpanItalic
	SpanStrike
	SpanCode
)

// Span is a run of text with a single inline style
type Span struct {
	Style SpanStyle
	Text  string
}

// BlockKind separates prose from fenced code
type BlockKind int

// Block kinds
const (
	BlockText BlockKind = iota
	BlockCode
)

// Block is one structural unit of a parsed message. Text blocks carry styled
// spans; code blocks carry the fence language and verbatim body. Open marks a
// fence whose closing marker has not arrived yet.
type Block struct {
	Kind  BlockKind
	Spans []Span
	Lang  string
	Body  string
	Open  bool
}

// Document is the parse result for one message
type Document struct {
	Blocks []Block
}

// CodeBlocks returns the code blocks in document order, for the copy
// affordance.
func (d Document) CodeBlocks() []Block {
	var out []Block
	for _, b := range d.Blocks {
		if b.Kind == BlockCode {
			out = append(out, b)
		}
	}
	return out
}

// PlainText flattens the document back to undecorated text
func (d Document) PlainText() string {
	var sb strings.Builder
	for i, b := range d.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		if b.Kind == BlockCode {
			sb.WriteString(b.Body)
			continue
		}
		for _, sp := range b.Spans {
			sb.WriteString(sp.Text)
		}
	}
	return sb.String()
}

var (
	ansiSeq = regexp.MustCompile(`\x1b(\[[0-9;?]*[a-zA-Z]|\][^\x07\x1b]*(\x07|\x1b\\)?|[@-Z\\-_])`)
)

// Sanitize strips terminal escape sequences and control characters from model
// output before parsing. Newlines and tabs survive; everything else below
// 0x20 is dropped. Model text must never be able to move the cursor or
// restyle the terminal.
func Sanitize(raw string) string {
	cleaned := ansiSeq.ReplaceAllString(raw, "")

	var sb strings.Builder
	sb.Grow(len(cleaned))
	for _, r := range cleaned {
		if r == '\n' || r == '\t' {
			sb.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Parse sanitizes raw text and splits it into text and code blocks. A line
// beginning with ``` toggles a fence; an optional language tag follows the
// opening marker. Fence bodies are kept verbatim and never receive inline
// styling, including while the fence is still open.
func Parse(raw string) Document {
	text := Sanitize(raw)
	lines := strings.Split(text, "\n")

	var doc Document
	var textLines []string
	var codeLines []string
	var lang string
	inFence := false

	flushText := func() {
		if len(textLines) == 0 {
			return
		}
		joined := strings.Join(textLines, "\n")
		textLines = nil
		if strings.TrimSpace(joined) == "" {
			return
		}
		doc.Blocks = append(doc.Blocks, Block{
			Kind:  BlockText,
			Spans: parseInline(joined),
		})
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "```") {
			if inFence {
				doc.Blocks = append(doc.Blocks, Block{
					Kind: BlockCode,
					Lang: lang,
					Body: strings.Join(codeLines, "\n"),
				})
				codeLines = nil
				lang = ""
				inFence = false
			} else {
				flushText()
				marker := strings.TrimLeft(line, " \t")
				lang = strings.TrimSpace(strings.TrimPrefix(marker, "```"))
				inFence = true
			}
			continue
		}
		if inFence {
			codeLines = append(codeLines, line)
		} else {
			textLines = append(textLines, line)
		}
	}

	if inFence {
		// Mid-stream: the closing marker has not arrived. Keep the body
		// verbatim so emphasis rules cannot fire inside it.
		doc.Blocks = append(doc.Blocks, Block{
			Kind: BlockCode,
			Lang: lang,
			Body: strings.Join(codeLines, "\n"),
			Open: true,
		})
	} else {
		flushText()
	}

	return doc
}

// parseInline splits prose into styled spans. Inline code binds tightest;
// bold is matched before italic so ** is not read as two empty emphases.
// An unpaired delimiter stays literal.
func parseInline(text string) []Span {
	var spans []Span
	var plain strings.Builder

	flushPlain := func() {
		if plain.Len() == 0 {
			return
		}
		spans = append(spans, Span{Style: SpanPlain, Text: plain.String()})
		plain.Reset()
	}

	emit := func(style SpanStyle, body string) {
		flushPlain()
		spans = append(spans, Span{Style: style, Text: body})
	}

	delims := []struct {
		marker string
		style  SpanStyle
	}{
		{"`", SpanCode},
		{"**", SpanBold},
		{"__", SpanBold},
		{"~~", SpanStrike},
		{"*", SpanItalic},
		{"_", SpanItalic},
	}

	i := 0
	for i < len(text) {
		matched := false
		for _, d := range delims {
			if !strings.HasPrefix(text[i:], d.marker) {
				continue
			}
			rest := text[i+len(d.marker):]
			end := strings.Index(rest, d.marker)
			if end < 0 {
				continue
			}
			// Empty pairs like ** or `` have nothing to style
			if end == 0 && d.style != SpanCode {
				continue
			}
			emit(d.style, rest[:end])
			i += len(d.marker) + end + len(d.marker)
			matched = true
			break
		}
		if matched {
			continue
		}
		plain.WriteByte(text[i])
		i++
	}

	flushPlain()
	return spans
}
