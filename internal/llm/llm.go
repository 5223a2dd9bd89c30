// Package llm abstracts chat-completion providers behind a single
// non-streaming interface.
package llm

import (
	"context"
	"errors"
)

// ErrMissingCredentials is returned when a provider is constructed
// without an API key.
var ErrMissingCredentials = errors.New("missing chat provider API key")

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a chat transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request describes a single completion call.
type Request struct {
	System      string
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float64
}

// ChatProvider produces a single completion for an ordered message list.
// Reply recovery needs the complete text, so completions are not
// streamed.
type ChatProvider interface {
	Complete(ctx context.Context, req Request) (string, error)
}
