package chat

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type Conversation struct {
	ID        string    `gorm:"type:varchar(26);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(26);not null;index:idx_chat_conv_user_updated,priority:1" json:"user_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index:idx_chat_conv_user_updated,priority:2" json:"updated_at"`
}

func (Conversation) TableName() string { return "chat_conversations" }

type Message struct {
	ID             string    `gorm:"type:varchar(26);primaryKey" json:"id"`
	ConversationID string    `gorm:"type:varchar(26);not null;index:idx_chat_msg_conv_ts,priority:1" json:"conversation_id"`
	Role           Role      `gorm:"type:varchar(16);not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"index:idx_chat_msg_conv_ts,priority:2" json:"timestamp"`
}

func (Message) TableName() string { return "chat_messages" }
