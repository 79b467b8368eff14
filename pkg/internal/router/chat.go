package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/voxvault/pkg/internal/handle"
)

// RegisterChatRoutes 注册对话路由.
func RegisterChatRoutes(g *gin.RouterGroup) {
	// 流式对话
	g.POST("/chat", handle.ChatStream)
	// 聊天记录
	g.GET("/chat", handle.ChatHistory)
}
