package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/suPer8Hu/gopherchat/internal/auth"
	"github.com/suPer8Hu/gopherchat/internal/chat"
	"github.com/suPer8Hu/gopherchat/internal/common"
)

type ConversationStore interface {
	ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error)
	CreateConversation(ctx context.Context, userID, title string) (string, error)
	ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error)
	AppendMessage(ctx context.Context, conversationID, content string, role chat.Role) error
	RenameConversation(ctx context.Context, conversationID, title string) error
}

type Completer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Identity interface {
	Authenticate(ctx context.Context, creds auth.Credentials) (*auth.Session, error)
	SignOut(ctx context.Context, token string)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev chat.Event) error
}

var (
	ErrNotSignedIn         = errors.New("not signed in")
	ErrUnknownConversation = errors.New("unknown conversation")
	ErrBusy                = errors.New("a message is already being sent in this conversation")
)

type Option func(*Controller)

// WithHistory includes up to window prior messages in every prompt.
func WithHistory(window int) Option {
	return func(c *Controller) {
		c.includeHistory = true
		c.historyWindow = window
	}
}

func WithEvents(p EventPublisher) Option {
	return func(c *Controller) { c.events = p }
}

// Controller owns one client session's view of the remote data. All state
// changes go through its methods; readers take Snapshots.
type Controller struct {
	store     ConversationStore
	completer Completer
	identity  Identity
	events    EventPublisher
	now       func() time.Time

	includeHistory bool
	historyWindow  int

	mu            sync.Mutex
	user          *auth.User
	token         string
	conversations []chat.Conversation
	activeID      string
	messages      []chat.Message
	inFlight      map[string]Phase
	notice        string

	// epoch changes on every sign in/out so late results from a previous
	// session are dropped. The seq pairs order concurrent reloads.
	epoch       uint64
	convSeq     uint64
	convApplied uint64
	msgSeq      uint64
	msgApplied  uint64
}

func New(store ConversationStore, completer Completer, identity Identity, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		completer: completer,
		identity:  identity,
		now:       func() time.Time { return time.Now().UTC() },
		inFlight:  map[string]Phase{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Conversations: append([]chat.Conversation{}, c.conversations...),
		ActiveID:      c.activeID,
		Messages:      append([]chat.Message{}, c.messages...),
		Notice:        c.notice,
	}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	if p, ok := c.inFlight[c.activeID]; ok && c.activeID != "" {
		s.InFlight = true
		s.Phase = p
	}
	return s
}

func (c *Controller) DismissNotice() {
	c.mu.Lock()
	c.notice = ""
	c.mu.Unlock()
}

// SignIn authenticates and loads the user's conversation list.
func (c *Controller) SignIn(ctx context.Context, creds auth.Credentials) (*auth.Session, error) {
	sess, err := c.identity.Authenticate(ctx, creds)
	if err != nil {
		c.fail("sign in", err)
		return nil, err
	}
	c.start(sess.User, sess.Token)
	_ = c.Refresh(ctx)
	return sess, nil
}

// Resume attaches an already verified session, e.g. after a server restart.
func (c *Controller) Resume(ctx context.Context, user auth.User, token string) error {
	c.start(user, token)
	return c.Refresh(ctx)
}

func (c *Controller) start(user auth.User, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.user = &user
	c.token = token
}

// SignOut clears local state even when the remote sign out fails.
func (c *Controller) SignOut(ctx context.Context) {
	c.mu.Lock()
	token := c.token
	c.resetLocked()
	c.mu.Unlock()

	c.identity.SignOut(ctx, token)
}

func (c *Controller) resetLocked() {
	c.epoch++
	c.user = nil
	c.token = ""
	c.conversations = nil
	c.activeID = ""
	c.messages = nil
	c.inFlight = map[string]Phase{}
	c.notice = ""
}

// Refresh reloads the conversation list. On failure the list is emptied.
func (c *Controller) Refresh(ctx context.Context) error {
	user, epoch, err := c.currentUser("refresh")
	if err != nil {
		return err
	}
	return c.reloadConversations(ctx, user.ID, epoch)
}

// Select makes id the active conversation and reloads its messages.
func (c *Controller) Select(ctx context.Context, id string) error {
	const op = "select conversation"
	c.mu.Lock()
	if c.user == nil {
		c.mu.Unlock()
		return c.fail(op, common.AuthError(op, ErrNotSignedIn))
	}
	if !c.knownLocked(id) {
		c.mu.Unlock()
		return c.fail(op, common.ValidationError(op, ErrUnknownConversation.Error()))
	}
	epoch := c.epoch
	c.activateLocked(id)
	c.mu.Unlock()

	return c.reloadMessages(ctx, id, epoch)
}

func (c *Controller) knownLocked(id string) bool {
	for _, conv := range c.conversations {
		if conv.ID == id {
			return true
		}
	}
	return false
}

func (c *Controller) activateLocked(id string) {
	if c.activeID == id {
		return
	}
	c.activeID = id
	c.messages = nil
	// anything still loading for the previous conversation is stale now
	c.msgApplied = c.msgSeq
}

// NewConversation creates a conversation and makes it active. A non-blank
// firstMessage names the conversation and is sent right away.
func (c *Controller) NewConversation(ctx context.Context, firstMessage string) (string, error) {
	const op = "new conversation"
	user, epoch, err := c.currentUser(op)
	if err != nil {
		return "", err
	}

	title := chat.DefaultTitle
	if strings.TrimSpace(firstMessage) != "" {
		title = chat.DeriveTitle(firstMessage)
	}
	id, err := c.store.CreateConversation(ctx, user.ID, title)
	if err != nil {
		return "", c.fail(op, err)
	}
	c.publish(ctx, chat.Event{Type: chat.EventConversationCreated, ConversationID: id, UserID: user.ID})
	_ = c.reloadConversations(ctx, user.ID, epoch)

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return id, nil
	}
	c.activateLocked(id)
	c.mu.Unlock()

	if strings.TrimSpace(firstMessage) == "" {
		return id, nil
	}
	return id, c.Send(ctx, firstMessage)
}

// Send runs one send cycle in the active conversation. With no active
// conversation it does nothing.
func (c *Controller) Send(ctx context.Context, content string) error {
	const op = "send message"
	c.mu.Lock()
	if c.user == nil || c.activeID == "" {
		c.mu.Unlock()
		return nil
	}
	if strings.TrimSpace(content) == "" {
		c.mu.Unlock()
		return c.fail(op, common.ValidationError(op, "message must not be empty"))
	}
	convID := c.activeID
	if _, busy := c.inFlight[convID]; busy {
		c.mu.Unlock()
		return c.fail(op, common.ValidationError(op, ErrBusy.Error()))
	}
	c.inFlight[convID] = PhaseSending
	user, epoch := *c.user, c.epoch
	history := append([]chat.Message{}, c.messages...)
	title := c.titleLocked(convID)
	c.mu.Unlock()

	defer c.finish(convID, epoch)

	if err := c.store.AppendMessage(ctx, convID, content, chat.RoleUser); err != nil {
		return c.fail(op, err)
	}
	c.publish(ctx, chat.Event{Type: chat.EventMessageAppended, ConversationID: convID, UserID: user.ID, Role: chat.RoleUser})

	if title == chat.DefaultTitle {
		c.autoRename(ctx, user.ID, convID, content)
	}

	c.setPhase(convID, epoch, PhaseAwaitingCompletion)
	reply, err := c.completer.Generate(ctx, c.prompt(history, content))
	if err != nil {
		// the user turn is stored; show it even though no reply will follow
		c.reconcile(ctx, user.ID, convID, epoch)
		return c.fail(op, err)
	}

	c.setPhase(convID, epoch, PhasePersistingReply)
	if err := c.store.AppendMessage(ctx, convID, reply, chat.RoleAssistant); err != nil {
		c.reconcile(ctx, user.ID, convID, epoch)
		return c.fail(op, err)
	}
	c.publish(ctx, chat.Event{Type: chat.EventMessageAppended, ConversationID: convID, UserID: user.ID, Role: chat.RoleAssistant})

	c.setPhase(convID, epoch, PhaseReconciling)
	c.reconcile(ctx, user.ID, convID, epoch)
	return nil
}

func (c *Controller) titleLocked(id string) string {
	for _, conv := range c.conversations {
		if conv.ID == id {
			return conv.Title
		}
	}
	return ""
}

// autoRename names a default-titled conversation after its first message.
func (c *Controller) autoRename(ctx context.Context, userID, convID, content string) {
	title := chat.DeriveTitle(content)
	if title == chat.DefaultTitle {
		return
	}
	if err := c.store.RenameConversation(ctx, convID, title); err != nil {
		c.fail("rename conversation", err)
		return
	}
	c.publish(ctx, chat.Event{Type: chat.EventConversationRenamed, ConversationID: convID, UserID: userID})
}

func (c *Controller) reconcile(ctx context.Context, userID, convID string, epoch uint64) {
	_ = c.reloadMessages(ctx, convID, epoch)
	_ = c.reloadConversations(ctx, userID, epoch)
}

func (c *Controller) setPhase(convID string, epoch uint64, p Phase) {
	c.mu.Lock()
	if c.epoch == epoch {
		c.inFlight[convID] = p
	}
	c.mu.Unlock()
}

func (c *Controller) finish(convID string, epoch uint64) {
	c.mu.Lock()
	if c.epoch == epoch {
		delete(c.inFlight, convID)
	}
	c.mu.Unlock()
}

// Rename sets a new title. Blank titles are rejected without a store call.
func (c *Controller) Rename(ctx context.Context, id, title string) error {
	const op = "rename conversation"
	user, epoch, err := c.currentUser(op)
	if err != nil {
		return err
	}
	t, ok := chat.NormalizeTitle(title)
	if !ok {
		return c.fail(op, common.ValidationError(op, "title must not be empty"))
	}
	// only conversations listed for this user may be renamed
	c.mu.Lock()
	known := c.knownLocked(id)
	c.mu.Unlock()
	if !known {
		return c.fail(op, common.ValidationError(op, ErrUnknownConversation.Error()))
	}
	if err := c.store.RenameConversation(ctx, id, t); err != nil {
		return c.fail(op, err)
	}
	c.publish(ctx, chat.Event{Type: chat.EventConversationRenamed, ConversationID: id, UserID: user.ID})
	return c.reloadConversations(ctx, user.ID, epoch)
}

func (c *Controller) currentUser(op string) (auth.User, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		err := common.AuthError(op, ErrNotSignedIn)
		c.setNoticeLocked(err)
		return auth.User{}, 0, err
	}
	return *c.user, c.epoch, nil
}

func (c *Controller) reloadConversations(ctx context.Context, userID string, epoch uint64) error {
	c.mu.Lock()
	c.convSeq++
	seq := c.convSeq
	c.mu.Unlock()

	convs, err := c.store.ListConversations(ctx, userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || seq <= c.convApplied {
		return nil
	}
	c.convApplied = seq
	if err != nil {
		c.conversations = []chat.Conversation{}
		c.logAndNoticeLocked("list conversations", err)
		return err
	}
	c.conversations = convs
	return nil
}

func (c *Controller) reloadMessages(ctx context.Context, convID string, epoch uint64) error {
	c.mu.Lock()
	c.msgSeq++
	seq := c.msgSeq
	c.mu.Unlock()

	msgs, err := c.store.ListMessages(ctx, convID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.activeID != convID || seq <= c.msgApplied {
		return nil
	}
	c.msgApplied = seq
	if err != nil {
		c.logAndNoticeLocked("list messages", err)
		return err
	}
	c.messages = msgs
	return nil
}

// prompt builds the completion input. Without history it is the message alone.
func (c *Controller) prompt(history []chat.Message, content string) string {
	if !c.includeHistory || len(history) == 0 {
		return content
	}
	if c.historyWindow > 0 && len(history) > c.historyWindow {
		history = history[len(history)-c.historyWindow:]
	}
	var b strings.Builder
	for _, m := range history {
		b.WriteString(speaker(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString(speaker(chat.RoleUser))
	b.WriteString(": ")
	b.WriteString(content)
	return b.String()
}

func speaker(r chat.Role) string {
	if r == chat.RoleAssistant {
		return "Assistant"
	}
	return "User"
}

func (c *Controller) publish(ctx context.Context, ev chat.Event) {
	if c.events == nil {
		return
	}
	ev.At = c.now()
	if err := c.events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).
			Str("type", string(ev.Type)).
			Str("conversation_id", ev.ConversationID).
			Msg("publish chat event failed")
	}
}

// fail logs err, records it as the visible notice and returns it.
func (c *Controller) fail(op string, err error) error {
	c.mu.Lock()
	c.logAndNoticeLocked(op, err)
	c.mu.Unlock()
	return err
}

func (c *Controller) logAndNoticeLocked(op string, err error) {
	ev := log.Error()
	if common.IsKind(err, common.KindValidation) {
		ev = log.Debug()
	}
	if c.user != nil {
		ev = ev.Str("user_id", c.user.ID)
	}
	ev.Err(err).Str("op", op).Msg("chat operation failed")
	c.setNoticeLocked(err)
}

func (c *Controller) setNoticeLocked(err error) {
	c.notice = Notice(err)
}

// Notice renders err for end users.
func Notice(err error) string {
	var ce *common.Error
	if errors.As(err, &ce) && ce.Err != nil {
		switch ce.Kind {
		case common.KindValidation:
			return ce.Err.Error()
		case common.KindAuth:
			return fmt.Sprintf("Authentication failed: %v", ce.Err)
		case common.KindStore:
			return fmt.Sprintf("Could not %s: %v", ce.Op, ce.Err)
		case common.KindCompletion:
			return fmt.Sprintf("The assistant did not answer: %v", ce.Err)
		}
	}
	return err.Error()
}
