package controller

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/suPer8Hu/gopherchat/internal/auth"
	"github.com/suPer8Hu/gopherchat/internal/chat"
	"github.com/suPer8Hu/gopherchat/internal/common"
)

type fakeStore struct {
	mu    sync.Mutex
	clock time.Time
	next  int
	convs map[string]*chat.Conversation
	msgs  map[string][]chat.Message
	calls []string

	listConversationsErr error
	appendErr            map[chat.Role]error
	beforeListMessages   func(id string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		convs:     map[string]*chat.Conversation{},
		msgs:      map[string][]chat.Message{},
		appendErr: map[chat.Role]error{},
	}
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *fakeStore) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *fakeStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.calls...)
}

func (s *fakeStore) Title(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convs[id].Title
}

func (s *fakeStore) ListConversations(_ context.Context, userID string) ([]chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ListConversations")
	if s.listConversationsErr != nil {
		return nil, common.StoreError("list conversations", s.listConversationsErr)
	}
	var out []chat.Conversation
	for _, c := range s.convs {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *fakeStore) CreateConversation(_ context.Context, userID, title string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CreateConversation")
	s.next++
	id := fmt.Sprintf("c%02d", s.next)
	now := s.tick()
	if t, ok := chat.NormalizeTitle(title); ok {
		title = t
	} else {
		title = chat.DefaultTitle
	}
	s.convs[id] = &chat.Conversation{ID: id, UserID: userID, Title: title, CreatedAt: now, UpdatedAt: now}
	return id, nil
}

func (s *fakeStore) ListMessages(_ context.Context, id string) ([]chat.Message, error) {
	if hook := s.beforeListMessages; hook != nil {
		hook(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ListMessages")
	return append([]chat.Message{}, s.msgs[id]...), nil
}

func (s *fakeStore) AppendMessage(_ context.Context, id, content string, role chat.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("AppendMessage:" + string(role))
	if err := s.appendErr[role]; err != nil {
		return common.StoreError("append message", err)
	}
	c, ok := s.convs[id]
	if !ok {
		return common.StoreError("append message", chat.ErrConversationNotFound)
	}
	s.next++
	now := s.tick()
	s.msgs[id] = append(s.msgs[id], chat.Message{
		ID:             fmt.Sprintf("m%02d", s.next),
		ConversationID: id,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	})
	c.UpdatedAt = now
	return nil
}

func (s *fakeStore) RenameConversation(_ context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("RenameConversation")
	c, ok := s.convs[id]
	if !ok {
		return common.StoreError("rename conversation", chat.ErrConversationNotFound)
	}
	c.Title = title
	c.UpdatedAt = s.tick()
	return nil
}

type fakeCompleter struct {
	mu      sync.Mutex
	prompts []string
	reply   func(ctx context.Context, prompt string) (string, error)
}

func replyWith(text string) *fakeCompleter {
	return &fakeCompleter{reply: func(context.Context, string) (string, error) { return text, nil }}
}

func (f *fakeCompleter) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.reply(ctx, prompt)
}

func (f *fakeCompleter) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.prompts...)
}

type fakeIdentity struct {
	mu       sync.Mutex
	signOuts []string
}

func (f *fakeIdentity) Authenticate(_ context.Context, creds auth.Credentials) (*auth.Session, error) {
	if creds.Email != "ann@example.com" || creds.Password != "secret" {
		return nil, common.AuthError("authenticate", auth.ErrInvalidCredentials)
	}
	return &auth.Session{
		ID:    "sess-1",
		Token: "token-1",
		User:  auth.User{ID: "u-ann", Email: creds.Email, DisplayName: "Ann"},
	}, nil
}

func (f *fakeIdentity) SignOut(_ context.Context, token string) {
	f.mu.Lock()
	f.signOuts = append(f.signOuts, token)
	f.mu.Unlock()
}

type fakeEvents struct {
	mu     sync.Mutex
	events []chat.Event
	err    error
}

func (f *fakeEvents) Publish(_ context.Context, ev chat.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakeEvents) Types() []chat.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chat.EventType
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

var errBoom = errors.New("boom")
