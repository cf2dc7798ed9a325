package rabbitmq

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/gopherchat/internal/chat"
)

type recordingAck struct {
	acked, nacked, requeued bool
}

func (r *recordingAck) Ack(bool) error {
	r.acked = true
	return nil
}

func (r *recordingAck) Nack(_ bool, requeue bool) error {
	r.nacked = true
	r.requeued = requeue
	return nil
}

func TestHandleDelivery_AcksHandledEvent(t *testing.T) {
	msg, err := encodeEvent(chat.Event{
		Type:           chat.EventMessageAppended,
		ConversationID: "c1",
		UserID:         "u1",
		Role:           chat.RoleUser,
		At:             time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var got chat.Event
	ack := &recordingAck{}
	handleDelivery(context.Background(), 0, msg.Body, ack, func(_ context.Context, ev chat.Event) error {
		got = ev
		return nil
	})

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	assert.Equal(t, "c1", got.ConversationID)
	assert.Equal(t, chat.RoleUser, got.Role)
}

func TestHandleDelivery_DeadLettersFailures(t *testing.T) {
	msg, err := encodeEvent(chat.Event{Type: chat.EventConversationCreated, ConversationID: "c1"})
	require.NoError(t, err)

	ack := &recordingAck{}
	handleDelivery(context.Background(), 0, msg.Body, ack, func(context.Context, chat.Event) error {
		return errors.New("redis down")
	})
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
	assert.False(t, ack.acked)
}

func TestHandleDelivery_RejectsMalformedBody(t *testing.T) {
	called := false
	for _, body := range []string{`not json`, `{"type":"message.appended"}`} {
		ack := &recordingAck{}
		handleDelivery(context.Background(), 0, []byte(body), ack, func(context.Context, chat.Event) error {
			called = true
			return nil
		})
		assert.True(t, ack.nacked, body)
		assert.False(t, ack.requeued, body)
	}
	assert.False(t, called)
}

func TestHandleDelivery_RequeuesOnShutdown(t *testing.T) {
	msg, err := encodeEvent(chat.Event{Type: chat.EventMessageAppended, ConversationID: "c1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	ack := &recordingAck{}
	handleDelivery(ctx, 0, msg.Body, ack, func(context.Context, chat.Event) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeued)

	// cancelled while the handler runs
	ctx, cancel = context.WithCancel(context.Background())
	ack = &recordingAck{}
	handleDelivery(ctx, 0, msg.Body, ack, func(ctx context.Context, _ chat.Event) error {
		cancel()
		return ctx.Err()
	})
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeued)
	assert.False(t, ack.acked)
}
