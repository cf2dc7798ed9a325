package chat

import "time"

type EventType string

const (
	EventConversationCreated EventType = "conversation.created"
	EventConversationRenamed EventType = "conversation.renamed"
	EventMessageAppended     EventType = "message.appended"
)

// Event announces a committed change to a conversation.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Role           Role      `json:"role,omitempty"`
	At             time.Time `json:"at"`
}
