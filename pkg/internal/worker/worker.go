// Package worker 订阅管线事件并驱动后台阶段执行.
package worker

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	ctxPkg "github.com/yeisme/voxvault/pkg/context"
	"github.com/yeisme/voxvault/pkg/internal/service"
	"github.com/yeisme/voxvault/pkg/internal/storage"
	"github.com/yeisme/voxvault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/voxvault/pkg/log"
	"github.com/yeisme/voxvault/pkg/queue"
)

// Worker 管线事件消费者.
type Worker struct {
	mgr *storage.Manager
}

// New 创建消费者.
func New(mgr *storage.Manager) *Worker {
	return &Worker{mgr: mgr}
}

// Run 启动消费循环，阻塞直到 ctx 取消。
// MQ 不可用时直接返回（单机部署依赖进程内触发与补偿任务）.
func (w *Worker) Run(ctx context.Context) error {
	mqc := w.mgr.GetMQClient()
	if mqc == nil {
		nlog.Logger().Info().Msg("mq unavailable, pipeline worker disabled")
		return nil
	}

	baseCtx := ctxPkg.WithStorageManager(ctx, w.mgr)

	g, gctx := errgroup.WithContext(baseCtx)

	g.Go(func() error {
		return w.consumeAnalyzeRequests(gctx, mqc)
	})

	return g.Wait()
}

// consumeAnalyzeRequests 消费 vv.analyze.requested 并执行分析阶段。
// 消息一律 Ack：畸形消息重投无意义，分析失败由补偿任务重发请求，
// 留在流里只会形成毒丸循环.
func (w *Worker) consumeAnalyzeRequests(ctx context.Context, mqc *mq.Client) error {
	msgs, err := mqc.Subscribe(ctx, queue.TopicAnalyzeRequested)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", queue.TopicAnalyzeRequested, err)
	}

	nlog.Logger().Info().Str("topic", queue.TopicAnalyzeRequested).Msg("pipeline worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}

			env, err := queue.ParseAnalyzeRequested(msg)
			if err != nil {
				nlog.Logger().Warn().Err(err).Str("msg_id", msg.UUID).Msg("drop malformed analyze request")
				msg.Ack()

				continue
			}

			fileID := env.Payload.File.FileID

			svc := service.NewPipelineService(ctx)
			if _, err := svc.Analyze(ctx, fileID); err != nil {
				nlog.Logger().Error().Err(err).
					Str("file_id", fileID).
					Str("reason", env.Payload.Reason).
					Msg("analysis from event failed")
			}

			msg.Ack()
		}
	}
}
