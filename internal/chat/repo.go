package chat

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/suPer8Hu/gopherchat/internal/common"
)

// ErrConversationNotFound is wrapped in a store error when a write targets
// a conversation that does not exist.
var ErrConversationNotFound = errors.New("conversation not found")

// Repo is the SQL conversation store.
type Repo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// ListConversations returns the user's conversations, most recently updated first.
func (r *Repo) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	var convs []Conversation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&convs).Error; err != nil {
		return nil, common.StoreError("list conversations", err)
	}
	return convs, nil
}

func (r *Repo) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	var c Conversation
	if err := r.db.WithContext(ctx).First(&c, "id = ?", conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.StoreError("get conversation", ErrConversationNotFound)
		}
		return nil, common.StoreError("get conversation", err)
	}
	return &c, nil
}

// CreateConversation stores a new conversation and returns its id.
// A blank title is replaced by DefaultTitle.
func (r *Repo) CreateConversation(ctx context.Context, userID, title string) (string, error) {
	if userID == "" {
		return "", common.ValidationError("create conversation", "user id is required")
	}
	t, ok := NormalizeTitle(title)
	if !ok {
		t = DefaultTitle
	}

	id, err := common.NewULID()
	if err != nil {
		return "", common.StoreError("create conversation", err)
	}
	now := r.now()
	conv := &Conversation{
		ID:        id,
		UserID:    userID,
		Title:     t,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		return "", common.StoreError("create conversation", err)
	}
	return id, nil
}

// ListMessages returns messages in ASC timestamp order (oldest -> newest).
func (r *Repo) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, common.StoreError("list messages", err)
	}
	return msgs, nil
}

// AppendMessage inserts a message and refreshes the conversation's updated_at
// in one transaction.
func (r *Repo) AppendMessage(ctx context.Context, conversationID, content string, role Role) error {
	if !role.Valid() {
		return common.ValidationError("append message", "invalid role "+string(role))
	}

	id, err := common.NewULID()
	if err != nil {
		return common.StoreError("append message", err)
	}
	now := r.now()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := conversationExists(tx, conversationID); err != nil {
			return err
		}
		if err := tx.Create(&Message{
			ID:             id,
			ConversationID: conversationID,
			Role:           role,
			Content:        content,
			CreatedAt:      now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&Conversation{}).
			Where("id = ?", conversationID).
			Update("updated_at", now).Error
	})
	if err != nil {
		return common.StoreError("append message", err)
	}
	return nil
}

// RenameConversation rejects blank titles without touching the database.
func (r *Repo) RenameConversation(ctx context.Context, conversationID, title string) error {
	t, ok := NormalizeTitle(title)
	if !ok {
		return common.ValidationError("rename conversation", "title must not be empty")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := conversationExists(tx, conversationID); err != nil {
			return err
		}
		return tx.Model(&Conversation{}).
			Where("id = ?", conversationID).
			Updates(map[string]any{
				"title":      t,
				"updated_at": r.now(),
			}).Error
	})
	if err != nil {
		return common.StoreError("rename conversation", err)
	}
	return nil
}

// conversationExists is checked explicitly because MySQL reports zero
// affected rows for updates that do not change any value.
func conversationExists(tx *gorm.DB, conversationID string) error {
	var n int64
	if err := tx.Model(&Conversation{}).Where("id = ?", conversationID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrConversationNotFound
	}
	return nil
}
