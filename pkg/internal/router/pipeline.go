package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/voxvault/pkg/internal/handle"
)

// RegisterPipelineRoutes 注册处理管线路由.
func RegisterPipelineRoutes(g *gin.RouterGroup) {
	pipelineRoutes := g.Group("/pipeline")
	{
		// 同步转写
		pipelineRoutes.POST("/transcribe", handle.TranscribeFile)
		// 结构化分析（支持 X-Internal-Secret 内部调用）
		pipelineRoutes.POST("/analyze", handle.AnalyzeFile)
		// YouTube 字幕摄取
		pipelineRoutes.POST("/youtube", handle.ProcessYouTube)
	}
}
