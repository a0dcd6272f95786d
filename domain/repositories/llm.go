package repositories

import "context"

// LargeLanguageModel abstracts any hosted chat completion provider
type LargeLanguageModel interface {
	// CompleteStream sends the conversation and yields content deltas. Both
	// channels are closed when the completion ends; at most one error is sent.
	CompleteStream(ctx context.Context, messages []ChatMessage) (<-chan string, <-chan error)
}

// ChatMessage represents a single message in a conversation
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role defines the type of message sender
type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)
