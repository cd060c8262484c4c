package models

// Part is one ordered piece of an outbound message: either text or an inline
// binary payload (base64) with its mime type.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries a base64-encoded binary payload
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// TextPart builds a text-only part
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart builds an inline-binary part
func ImagePart(mime, base64Data string) Part {
	return Part{InlineData: &InlineData{MimeType: mime, Data: base64Data}}
}

// Content is one turn of the conversation as the service sees it
type Content struct {
	Role  string `json:"role"` // "user" or "model"
	Parts []Part `json:"parts"`
}

// GenerateRequest is the outbound payload for a streaming generation call
type GenerateRequest struct {
	SystemInstruction *Content  `json:"systemInstruction,omitempty"`
	Contents          []Content `json:"contents"`
	Tools             []Tool    `json:"tools,omitempty"`
}

// Tool enables a server-side capability. Only web-search grounding is used.
type Tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

// SearchTool returns the web-search grounding tool
func SearchTool() Tool {
	return Tool{GoogleSearch: &struct{}{}}
}
