package rabbitmq

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/gopherchat/internal/chat"
)

func TestEncodeEvent(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	msg, err := encodeEvent(chat.Event{
		Type:           chat.EventMessageAppended,
		ConversationID: "c1",
		UserID:         "u1",
		Role:           chat.RoleAssistant,
		At:             at,
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "message.appended", msg.Type)
	assert.Equal(t, at, msg.Timestamp)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "c1", decoded["conversation_id"])
	assert.Equal(t, "assistant", decoded["role"])
}
