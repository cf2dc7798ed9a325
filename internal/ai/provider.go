package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider sends one chat request and returns the assistant text.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
