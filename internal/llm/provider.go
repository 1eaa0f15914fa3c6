// Package llm abstracts the language-model call behind a small provider
// interface so the rest of the system can treat model output as untrusted
// input from a swappable source.
package llm

import "context"

// Role identifies the sender of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    Role
	Content string
}

// Request holds the parameters of a completion call.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// JSONMode asks the provider for a structured JSON object response.
	JSONMode bool
}

// Response is the result of a completion call.
type Response struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// Provider is implemented by each model backend.
type Provider interface {
	// Complete sends one completion request and waits for the response.
	Complete(ctx context.Context, req Request) (*Response, error)
	// Name identifies the backend.
	Name() string
}
