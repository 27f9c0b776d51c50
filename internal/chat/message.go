package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role 消息发送方
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message 对话中的一条消息，创建后不再修改
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage 创建带新ID和当前时间的消息
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// IsUser 是否为用户发送的消息
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}
