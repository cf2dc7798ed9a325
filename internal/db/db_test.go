package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSQLite(t *testing.T) {
	assert.True(t, IsSQLite("file::memory:?cache=shared"))
	assert.True(t, IsSQLite("chat.db"))
	assert.True(t, IsSQLite("/var/lib/gopherchat/data.sqlite"))
	assert.False(t, IsSQLite("app:apppass@tcp(127.0.0.1:3306)/gopherchat?parseTime=true"))
}

func TestConnect_MigratesSQLite(t *testing.T) {
	gdb, err := Connect("file:db_test?mode=memory&cache=shared")
	require.NoError(t, err)

	for _, table := range []string{"users", "chat_conversations", "chat_messages"} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
}
