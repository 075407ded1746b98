// Package oracle defines the language-model completion interface used by the
// simulation core, plus the middleware chain wrapped around concrete
// provider clients. The oracle is the core's only non-deterministic
// dependency; everything downstream treats its output as untrusted text.
package oracle

import (
	"context"
)

// Role identifies the author of a message in a completion request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a completion request.
type Message struct {
	Role    Role
	Content string
}

// Request is a completion request. Only plain text in and out: the ReAct
// grammar lives entirely in message content, never in a tool-call API.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Response is the completion result.
type Response struct {
	Content    string
	StopReason string
}

// Completer generates text completions. Implementations are unreliable by
// contract: callers must expect timeouts, provider errors, and output that
// does not follow any requested format.
type Completer interface {
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in Request) (Response, error)

	// ModelName returns the model identifier for logging and metrics.
	ModelName() string
}

// NewRequest creates a completion request with default limits.
func NewRequest(messages ...Message) Request {
	return Request{
		Messages:    messages,
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
