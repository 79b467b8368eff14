// Package router 管理路由配置，用于设置HTTP服务的路由.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/voxvault/pkg/internal/handle"
	"github.com/yeisme/voxvault/pkg/middleware"
)

// RegisterSchedulerRoutes 注册调度器相关路由，仅管理员可操作.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	schedRoutes := g.Group("/scheduler", middleware.RequireMinRole(middleware.RoleAdmin))
	{
		schedRoutes.GET("/jobs", handle.SchedulerJobs)

		schedRoutes.POST("/jobs/stop", handle.SchedulerStopJobs)

		schedRoutes.DELETE("/jobs/:id", handle.SchedulerRemoveJob)

		schedRoutes.GET("/queue/waiting", handle.SchedulerQueueWaiting)
	}
}
