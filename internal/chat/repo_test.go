package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/suPer8Hu/gopherchat/internal/common"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(gormsqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Conversation{}, &Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// tickingClock returns a clock advancing by one second on every call.
func tickingClock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
}

func newTestRepo(t *testing.T) (*Repo, *gorm.DB) {
	db := openTestDB(t)
	repo := NewRepo(db)
	repo.now = tickingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return repo, db
}

func TestListConversations_OnlyOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	a, err := repo.CreateConversation(ctx, "user-a", "first")
	require.NoError(t, err)
	b, err := repo.CreateConversation(ctx, "user-a", "second")
	require.NoError(t, err)
	_, err = repo.CreateConversation(ctx, "user-b", "someone else")
	require.NoError(t, err)

	convs, err := repo.ListConversations(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, b, convs[0].ID)
	assert.Equal(t, a, convs[1].ID)
	for _, c := range convs {
		assert.Equal(t, "user-a", c.UserID)
	}

	// appending to the older one moves it to the top
	require.NoError(t, repo.AppendMessage(ctx, a, "bump", RoleUser))
	convs, err = repo.ListConversations(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, a, convs[0].ID)
}

func TestCreateConversation_BlankTitleUsesDefault(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	id, err := repo.CreateConversation(ctx, "u1", "   ")
	require.NoError(t, err)

	c, err := repo.GetConversation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, c.Title)
	assert.True(t, c.CreatedAt.Equal(c.UpdatedAt))
}

func TestCreateConversation_RequiresUser(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.CreateConversation(context.Background(), "", "x")
	assert.True(t, common.IsKind(err, common.KindValidation))
}

func TestAppendMessage_OrderAndTouch(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	id, err := repo.CreateConversation(ctx, "u1", DefaultTitle)
	require.NoError(t, err)
	before, err := repo.GetConversation(ctx, id)
	require.NoError(t, err)

	require.NoError(t, repo.AppendMessage(ctx, id, "Hello", RoleUser))
	require.NoError(t, repo.AppendMessage(ctx, id, "Hi there!", RoleAssistant))

	msgs, err := repo.ListMessages(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "Hello", msgs[0].Content)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Hi there!", msgs[1].Content)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
	}

	after, err := repo.GetConversation(ctx, id)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.True(t, after.UpdatedAt.Equal(msgs[1].CreatedAt))
}

func TestListMessages_SameTimestampKeepsInsertOrder(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return frozen }

	id, err := repo.CreateConversation(ctx, "u1", "")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.AppendMessage(ctx, id, fmt.Sprintf("m%d", i), RoleUser))
	}

	msgs, err := repo.ListMessages(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.Content)
	}
}

func TestAppendMessage_UnknownConversation(t *testing.T) {
	ctx := context.Background()
	repo, db := newTestRepo(t)

	err := repo.AppendMessage(ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ", "orphan", RoleUser)
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindStore))
	assert.ErrorIs(t, err, ErrConversationNotFound)

	var n int64
	require.NoError(t, db.Model(&Message{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAppendMessage_RejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	id, err := repo.CreateConversation(ctx, "u1", "")
	require.NoError(t, err)

	err = repo.AppendMessage(ctx, id, "hi", Role("system"))
	assert.True(t, common.IsKind(err, common.KindValidation))
}

func TestRenameConversation(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	id, err := repo.CreateConversation(ctx, "u1", DefaultTitle)
	require.NoError(t, err)

	require.NoError(t, repo.RenameConversation(ctx, id, "  Trip plans  "))
	c, err := repo.GetConversation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Trip plans", c.Title)
	assert.True(t, c.UpdatedAt.After(c.CreatedAt))

	// same title again still succeeds
	require.NoError(t, repo.RenameConversation(ctx, id, "Trip plans"))
}

func TestRenameConversation_BlankIsRejected(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	id, err := repo.CreateConversation(ctx, "u1", DefaultTitle)
	require.NoError(t, err)

	err = repo.RenameConversation(ctx, id, " \t ")
	assert.True(t, common.IsKind(err, common.KindValidation))

	c, err := repo.GetConversation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, c.Title)
}

func TestRenameConversation_Unknown(t *testing.T) {
	repo, _ := newTestRepo(t)
	err := repo.RenameConversation(context.Background(), "missing", "x")
	assert.True(t, common.IsKind(err, common.KindStore))
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
