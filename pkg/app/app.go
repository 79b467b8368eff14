// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"os"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/voxvault/pkg/api"
	"github.com/yeisme/voxvault/pkg/configs"
	"github.com/yeisme/voxvault/pkg/internal/jobs"
	"github.com/yeisme/voxvault/pkg/internal/storage"
	"github.com/yeisme/voxvault/pkg/internal/worker"
	"github.com/yeisme/voxvault/pkg/log"
	"github.com/yeisme/voxvault/pkg/metrics"
	"github.com/yeisme/voxvault/pkg/middleware"
	"github.com/yeisme/voxvault/pkg/scheduler"
	"github.com/yeisme/voxvault/pkg/tracing"
)

type App struct {
	Engine *gin.Engine
	config *configs.AppConfig

	manager *storage.Manager
	sched   *scheduler.Scheduler
	cancel  contextPkg.CancelFunc
}

func NewApp(configPath string) *App {
	ctx, cancel := contextPkg.WithCancel(contextPkg.Background())
	engine := gin.New()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	// 初始化追踪
	config := configs.GetConfig()
	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	// 定时任务：僵死转写清扫 + 分析积压补偿
	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager); err != nil {
		fmt.Printf("Error registering cron jobs: %v\n", err)
		os.Exit(1)
	}

	sched.Start()

	// 管线事件消费者，MQ 未配置时内部降级为空跑
	go func() {
		if err := worker.New(manager).Run(ctx); err != nil && !errors.Is(err, contextPkg.Canceled) {
			l.Error().Err(err).Msg("pipeline worker exited")
		}
	}()

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		// 流式对话逐块刷写，不经过 gzip 缓冲
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/chat"})),
		middleware.CORSMiddleware(config.Server),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.AuthMiddleware(config.Auth),
		middleware.RoleMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.StorageMiddleware(manager),
		middleware.SchedulerMiddleware(sched),
	)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	api.RegisterRoutes(engine, manager)

	return &App{
		Engine:  engine,
		config:  config,
		manager: manager,
		sched:   sched,
		cancel:  cancel,
	}
}

func (a *App) Run() error {
	defer a.Shutdown()

	return a.Engine.Run(fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port))
}

// Shutdown 停止后台组件并释放存储连接.
func (a *App) Shutdown() {
	a.cancel()

	if a.sched != nil {
		if err := a.sched.Stop(); err != nil {
			log.Logger().Warn().Err(err).Msg("Failed to stop scheduler")
		}
	}

	if a.manager != nil {
		if err := a.manager.Close(); err != nil {
			log.Logger().Warn().Err(err).Msg("Failed to close storage manager")
		}
	}
}
