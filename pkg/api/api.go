// Package api 定义 HTTP 服务的对外接口，将业务路由注册到 gin 引擎.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/voxvault/pkg/internal/router"
	"github.com/yeisme/voxvault/pkg/internal/storage"
)

// RegisterRoutes 注册 /api/v1 下的全部业务路由到传入的 gin 引擎.
func RegisterRoutes(e *gin.Engine, mgr *storage.Manager) *gin.Engine {
	router.RegisterAPIRoutes(e.Group("/api/v1"), mgr)

	return e
}
