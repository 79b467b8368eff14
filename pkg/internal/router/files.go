package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/voxvault/pkg/internal/handle"
)

// RegisterFilesRoutes 注册文件相关路由.
// listCache 非 nil 时挂在文件列表接口上.
func RegisterFilesRoutes(g *gin.RouterGroup, listCache gin.HandlerFunc) {
	filesRoutes := g.Group("/files")
	{
		// 上传媒体文件（multipart，同步转写）
		filesRoutes.POST("/upload", handle.UploadFile)
		// 文件详情（含转写与分析）
		filesRoutes.GET("/:id", handle.GetFile)
		// 删除文件及衍生数据
		filesRoutes.DELETE("/:id", handle.DeleteFile)

		// 文件列表
		if listCache != nil {
			filesRoutes.GET("", listCache, handle.ListFiles)
		} else {
			filesRoutes.GET("", handle.ListFiles)
		}
	}
}
