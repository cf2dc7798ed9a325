package mongostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/suPer8Hu/gopherchat/internal/chat"
	"github.com/suPer8Hu/gopherchat/internal/common"
)

const (
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
)

type conversationDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Title     string    `bson:"title"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d conversationDoc) conversation() chat.Conversation {
	return chat.Conversation{
		ID:        d.ID,
		UserID:    d.UserID,
		Title:     d.Title,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type messageDoc struct {
	ID             string    `bson:"_id"`
	ConversationID string    `bson:"conversation_id"`
	Content        string    `bson:"content"`
	Role           chat.Role `bson:"role"`
	Timestamp      time.Time `bson:"timestamp"`
}

func (d messageDoc) message() chat.Message {
	return chat.Message{
		ID:             d.ID,
		ConversationID: d.ConversationID,
		Content:        d.Content,
		Role:           d.Role,
		CreatedAt:      d.Timestamp.UTC(),
	}
}

// Store is the document database conversation store.
type Store struct {
	client        *mongo.Client
	conversations *mongo.Collection
	messages      *mongo.Collection
	now           func() time.Time
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo ping")
	}

	s := New(client, database)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:        client,
		conversations: db.Collection(conversationsCollection),
		messages:      db.Collection(messagesCollection),
		// Mongo keeps millisecond precision; truncate so reads equal writes.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes backing the two query shapes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.conversations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
	}); err != nil {
		return errors.Wrap(err, "create conversations index")
	}
	if _, err := s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "timestamp", Value: 1}},
	}); err != nil {
		return errors.Wrap(err, "create messages index")
	}
	return nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.conversations.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, common.StoreError("list conversations", err)
	}
	var docs []conversationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, common.StoreError("list conversations", err)
	}
	out := make([]chat.Conversation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.conversation())
	}
	return out, nil
}

func (s *Store) CreateConversation(ctx context.Context, userID, title string) (string, error) {
	if userID == "" {
		return "", common.ValidationError("create conversation", "user id is required")
	}
	t, ok := chat.NormalizeTitle(title)
	if !ok {
		t = chat.DefaultTitle
	}
	id, err := common.NewULID()
	if err != nil {
		return "", common.StoreError("create conversation", err)
	}
	now := s.now()
	if _, err := s.conversations.InsertOne(ctx, conversationDoc{
		ID:        id,
		UserID:    userID,
		Title:     t,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return "", common.StoreError("create conversation", err)
	}
	return id, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.messages.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, common.StoreError("list messages", err)
	}
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, common.StoreError("list messages", err)
	}
	out := make([]chat.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.message())
	}
	return out, nil
}

// AppendMessage touches the conversation first and then inserts the message.
// These are two separate writes: if the insert fails the conversation's
// updated_at has moved without a new message, which only affects list order.
// Multi-document transactions would need a replica set.
func (s *Store) AppendMessage(ctx context.Context, conversationID, content string, role chat.Role) error {
	if !role.Valid() {
		return common.ValidationError("append message", "invalid role "+string(role))
	}
	id, err := common.NewULID()
	if err != nil {
		return common.StoreError("append message", err)
	}
	now := s.now()

	res, err := s.conversations.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{"updated_at": now}},
	)
	if err != nil {
		return common.StoreError("append message", err)
	}
	if res.MatchedCount == 0 {
		return common.StoreError("append message", chat.ErrConversationNotFound)
	}

	if _, err := s.messages.InsertOne(ctx, messageDoc{
		ID:             id,
		ConversationID: conversationID,
		Content:        content,
		Role:           role,
		Timestamp:      now,
	}); err != nil {
		return common.StoreError("append message", err)
	}
	return nil
}

func (s *Store) RenameConversation(ctx context.Context, conversationID, title string) error {
	t, ok := chat.NormalizeTitle(title)
	if !ok {
		return common.ValidationError("rename conversation", "title must not be empty")
	}
	res, err := s.conversations.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{"title": t, "updated_at": s.now()}},
	)
	if err != nil {
		return common.StoreError("rename conversation", err)
	}
	if res.MatchedCount == 0 {
		return common.StoreError("rename conversation", chat.ErrConversationNotFound)
	}
	return nil
}
