package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/gopherchat/internal/auth"
	"github.com/suPer8Hu/gopherchat/internal/chat"
	"github.com/suPer8Hu/gopherchat/internal/controller"
)

// listStore serves a fixed conversation list and honours cancellation.
type listStore struct {
	convs []chat.Conversation
}

func (s *listStore) ListConversations(ctx context.Context, _ string) ([]chat.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.convs, nil
}

func (s *listStore) CreateConversation(context.Context, string, string) (string, error) {
	return "", nil
}

func (s *listStore) ListMessages(context.Context, string) ([]chat.Message, error) {
	return nil, nil
}

func (s *listStore) AppendMessage(context.Context, string, string, chat.Role) error {
	return nil
}

func (s *listStore) RenameConversation(context.Context, string, string) error {
	return nil
}

type noCompleter struct{}

func (noCompleter) Generate(context.Context, string) (string, error) { return "", nil }

type fixedIdentity struct {
	expiresAt time.Time
	signedOut []string
}

func (f *fixedIdentity) Authenticate(_ context.Context, creds auth.Credentials) (*auth.Session, error) {
	return &auth.Session{
		ID:        "s-" + creds.Email,
		Token:     "t-" + creds.Email,
		User:      auth.User{ID: "u-" + creds.Email, Email: creds.Email},
		ExpiresAt: f.expiresAt,
	}, nil
}

func (f *fixedIdentity) SignOut(_ context.Context, token string) {
	f.signedOut = append(f.signedOut, token)
}

func newTestHub(store controller.ConversationStore, id *fixedIdentity) *Hub {
	return NewHub(func() *controller.Controller {
		return controller.New(store, noCompleter{}, id)
	}, id)
}

func TestHub_EvictsExpiredControllers(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	id := &fixedIdentity{expiresAt: start.Add(time.Hour)}
	h := newTestHub(&listStore{}, id)
	h.now = func() time.Time { return start }

	_, _, err := h.SignIn(ctx, auth.Credentials{Email: "ann@example.com", Password: "pw"})
	require.NoError(t, err)
	_, _, err = h.SignIn(ctx, auth.Credentials{Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())

	h.now = func() time.Time { return start.Add(2 * time.Hour) }
	later := &auth.Session{
		ID:        "s-late",
		Token:     "t-late",
		User:      auth.User{ID: "u-late"},
		ExpiresAt: start.Add(3 * time.Hour),
	}
	c := h.Get(ctx, later)
	require.NotNil(t, c)
	assert.Equal(t, 1, h.Len())
	assert.Same(t, c, h.Get(ctx, later))
}

func TestHub_ResumeOutlivesCancelledRequest(t *testing.T) {
	store := &listStore{convs: []chat.Conversation{{ID: "c1", UserID: "u1", Title: "Saved"}}}
	h := newTestHub(store, &fixedIdentity{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sess := &auth.Session{ID: "s1", Token: "t1", User: auth.User{ID: "u1"}, ExpiresAt: time.Now().Add(time.Hour)}

	snap := h.Get(ctx, sess).Snapshot()
	require.Len(t, snap.Conversations, 1)
	assert.Equal(t, "Saved", snap.Conversations[0].Title)
	assert.Empty(t, snap.Notice)
}

func TestHub_SignOutDropsController(t *testing.T) {
	ctx := context.Background()
	id := &fixedIdentity{expiresAt: time.Now().Add(time.Hour)}
	h := newTestHub(&listStore{}, id)

	sess, _, err := h.SignIn(ctx, auth.Credentials{Email: "ann@example.com", Password: "pw"})
	require.NoError(t, err)
	h.SignOut(ctx, sess)

	assert.Zero(t, h.Len())
	assert.Equal(t, []string{"t-ann@example.com"}, id.signedOut)
}
