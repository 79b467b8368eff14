// Package router 管理路由配置，将路径绑定到 pkg/internal/handle 的处理器.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/voxvault/pkg/cache"
	"github.com/yeisme/voxvault/pkg/internal/storage"
	"github.com/yeisme/voxvault/pkg/middleware"
)

// RegisterAPIRoutes 注册 /api/v1 下的全部业务路由.
// KV 可用时为只读列表接口启用响应缓存.
func RegisterAPIRoutes(g *gin.RouterGroup, mgr *storage.Manager) {
	var listCache gin.HandlerFunc

	if kvc := mgr.GetKVClient(); kvc != nil {
		cfg := middleware.DefaultCacheConfig(cache.NewCache(kvc.KVStore))
		// 列表按用户区分，避免跨用户串缓存
		cfg.VaryHeaders = []string{"X-User"}
		listCache = middleware.CacheMiddleware(cfg)
	}

	RegisterFilesRoutes(g, listCache)
	RegisterPipelineRoutes(g)
	RegisterChatRoutes(g)
	RegisterHealthCheckRoute(g)
	RegisterSchedulerRoutes(g)
}
