package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/gopherchat/internal/auth"
	"github.com/suPer8Hu/gopherchat/internal/chat"
)

var _ auth.SessionRegistry = (*Store)(nil)

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "gopherchat:session:abc", sessionKey("abc"))
}

// TestSessionLifecycle runs against a real Redis when REDIS_TEST_ADDR is set.
func TestSessionLifecycle(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	s := New(addr, "", 0)
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	require.NoError(t, s.SaveSession(ctx, "sess-1", "user-1", time.Minute))
	ok, err := s.SessionExists(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DeleteSession(ctx, "sess-1"))
	ok, err = s.SessionExists(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestActivity(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	s := New(addr, "", 0)
	defer s.Close()
	user := "activity-test-user"
	defer s.rdb.Del(ctx, activityKey(user))

	at := time.Date(2024, 6, 1, 10, 0, 0, 123, time.UTC)
	require.NoError(t, s.RecordActivity(ctx, chat.Event{
		Type:           chat.EventMessageAppended,
		ConversationID: "c1",
		UserID:         user,
		At:             at,
	}))

	got, err := s.Activity(ctx, user)
	require.NoError(t, err)
	require.Contains(t, got, "c1")
	assert.True(t, got["c1"].Equal(at))

	assert.Error(t, s.RecordActivity(ctx, chat.Event{ConversationID: "c1"}))
}
