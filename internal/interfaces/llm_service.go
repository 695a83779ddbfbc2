package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model operations. The insight
// orchestrator uses Chat for analysis completions; the extraction dispatcher
// uses TranscribeImage for vision OCR. Implementations may use Anthropic
// Claude or Google Gemini.
type LLMService interface {
	// Chat generates a completion response based on the conversation history.
	// The messages slice should contain the full conversation context in
	// chronological order, including system prompts and user messages.
	Chat(ctx context.Context, messages []Message) (string, error)

	// TranscribeImage sends an image to the provider's vision model with the
	// given instruction prompt and returns the raw response text. mediaType
	// is the image MIME type (e.g. "image/png").
	TranscribeImage(ctx context.Context, imageData []byte, mediaType string, prompt string) (string, error)

	// Name returns the provider name for audit records ("claude", "gemini")
	Name() string

	// Close releases resources and performs cleanup operations
	Close() error
}
