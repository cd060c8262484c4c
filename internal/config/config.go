// Package config handles preferences and persona definitions for grimchat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MarkdownConfig configures rendering of completed messages
type MarkdownConfig struct {
	Style            string `json:"style"`             // "dark", "light", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`      // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"` // Preserve original line breaks
}

// Config represents the persisted user preferences. The core reads these at
// startup and writes on change; nothing else is persisted across runs.
type Config struct {
	// Theme selects the light or dark color scheme for the TUI.
	Theme string `json:"theme"`
	// Persona is the name of the last-used persona; sessions start with it.
	Persona string `json:"persona"`
	// SpeakResponses enables text-to-speech playback of completed responses.
	SpeakResponses bool `json:"speak_responses"`
	// DefaultModel names the generation model to use.
	DefaultModel string `json:"default_model"`
	// TimeoutSeconds bounds a single generation request. Zero disables the
	// bound, matching the original behavior of waiting indefinitely.
	TimeoutSeconds int `json:"timeout_seconds"`
	// SpeechCommand overrides the synthesizer binary (default: autodetect).
	SpeechCommand string `json:"speech_command,omitempty"`
	// Verbose enables request timing and diagnostic output.
	Verbose  bool           `json:"verbose"`
	Markdown MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Theme:          "dark",
		Persona:        "normal",
		SpeakResponses: false,
		DefaultModel:   "gemini-2.5-flash",
		TimeoutSeconds: 120,
		Verbose:        false,
		Markdown:       DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".grimchat"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds the API key
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// APIKey resolves the service API key: environment first, then key file.
func APIKey() (string, error) {
	if key := os.Getenv("GRIMCHAT_API_KEY"); key != "" {
		return key, nil
	}

	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(filepath.Join(configDir, "api_key"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no API key found: set GRIMCHAT_API_KEY or run 'grimchat config set-key'")
		}
		return "", fmt.Errorf("failed to read API key: %w", err)
	}

	key := string(data)
	for len(key) > 0 && (key[len(key)-1] == '\n' || key[len(key)-1] == '\r') {
		key = key[:len(key)-1]
	}
	return key, nil
}

// SaveAPIKey stores the API key in the config directory
func SaveAPIKey(key string) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, "api_key"), []byte(key+"\n"), 0o600)
}
