package models

// Citation is a grounding source reference attached by the service to support
// factual claims. Title may be empty; URI may be empty on malformed entries,
// in which case the citation is never rendered.
type Citation struct {
	URI   string
	Title string
}

// StreamChunk is one element of the streamed response sequence. Most chunks
// carry only a text delta; citation metadata typically arrives on the
// terminal chunk.
type StreamChunk struct {
	Text      string
	Citations []Citation
	Final     bool
}

// HasText reports whether the chunk carries a text delta
func (c StreamChunk) HasText() bool {
	return c.Text != ""
}
