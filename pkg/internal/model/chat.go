package model

import "time"

// 聊天消息角色.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 针对某个文件的聊天消息，只追加，按 CreatedAt 升序读取.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey"    json:"id"`
	FileID    string    `gorm:"size:36;index" json:"file_id"`
	Role      string    `gorm:"size:16"       json:"role"`
	Content   string    `gorm:"type:text"     json:"content"`
	CreatedAt time.Time `gorm:"index"         json:"created_at"`
}
