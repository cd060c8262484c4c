// Package models contains data types and constants for the hosted
// generative-language service.
package models

// Service endpoints
const (
	EndpointBase     = "https://generativelanguage.googleapis.com/v1beta"
	EndpointModels   = EndpointBase + "/models"
	StreamMethod     = "streamGenerateContent"
	DefaultMimeImage = "image/png"
)

// Model represents an available generation model
type Model struct {
	Name        string
	Description string
}

// Available models
var (
	ModelFlash = Model{
		Name:        "gemini-2.5-flash",
		Description: "Fast general-purpose model",
	}

	ModelFlashThinking = Model{
		Name:        "gemini-2.5-flash-thinking",
		Description: "Slower, deeper reasoning",
	}

	ModelPro = Model{
		Name:        "gemini-2.5-pro",
		Description: "Highest quality responses",
	}

	// DefaultModel is the recommended default
	DefaultModel = ModelFlash
)

// AllModels returns a list of all available models
func AllModels() []Model {
	return []Model{ModelFlash, ModelFlashThinking, ModelPro}
}

// ModelFromName returns a Model by its name
func ModelFromName(name string) Model {
	for _, m := range AllModels() {
		if m.Name == name {
			return m
		}
	}
	return DefaultModel
}

// StreamEndpoint returns the full streaming URL for a model. The response is
// delivered as server-sent events, one JSON chunk per data line.
func StreamEndpoint(m Model) string {
	return EndpointModels + "/" + m.Name + ":" + StreamMethod + "?alt=sse"
}

// DefaultHeaders returns the default headers for generation requests
func DefaultHeaders(apiKey string) map[string]string {
	return map[string]string{
		"Content-Type":   "application/json",
		"Accept":         "text/event-stream",
		"x-goog-api-key": apiKey,
		"User-Agent":     "grimchat/0.1",
	}
}
