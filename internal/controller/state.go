package controller

import (
	"github.com/suPer8Hu/gopherchat/internal/auth"
	"github.com/suPer8Hu/gopherchat/internal/chat"
)

// Phase is the stage of a send cycle for one conversation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSending
	PhaseAwaitingCompletion
	PhasePersistingReply
	PhaseReconciling
)

func (p Phase) String() string {
	switch p {
	case PhaseSending:
		return "sending"
	case PhaseAwaitingCompletion:
		return "awaiting_completion"
	case PhasePersistingReply:
		return "persisting_reply"
	case PhaseReconciling:
		return "reconciling"
	default:
		return "idle"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Snapshot is a copy of the controller state. Mutating it has no effect on
// the controller.
type Snapshot struct {
	User          *auth.User          `json:"user"`
	Conversations []chat.Conversation `json:"conversations"`
	ActiveID      string              `json:"active_id,omitempty"`
	Messages      []chat.Message      `json:"messages"`
	// InFlight and Phase describe the active conversation.
	InFlight bool   `json:"in_flight"`
	Phase    Phase  `json:"phase"`
	Notice   string `json:"notice,omitempty"`
}

// ActiveConversation returns the active conversation from the list, if any.
func (s Snapshot) ActiveConversation() (chat.Conversation, bool) {
	for _, c := range s.Conversations {
		if c.ID == s.ActiveID {
			return c, true
		}
	}
	return chat.Conversation{}, false
}
