package types

import "time"

// ChatTurn 一轮对话消息，role 为 user 或 assistant.
type ChatTurn struct {
	Role    string `binding:"required,oneof=user assistant" json:"role"`
	Content string `binding:"required"                      json:"content"`
}

// ChatRequest 聊天请求，messages 最后一条必须是 user 消息.
type ChatRequest struct {
	FileID   string     `binding:"required"       json:"file_id"`
	Messages []ChatTurn `binding:"required,min=1" json:"messages"`
}

// ChatHistoryItem 历史消息项.
type ChatHistoryItem struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatHistoryResponse 历史消息响应，按时间升序.
type ChatHistoryResponse struct {
	Messages []ChatHistoryItem `json:"messages"`
}
