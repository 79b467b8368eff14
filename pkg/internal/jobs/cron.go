// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"
	"time"

	ctxPkg "github.com/yeisme/voxvault/pkg/context"
	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/internal/service"
	"github.com/yeisme/voxvault/pkg/internal/storage"
	"github.com/yeisme/voxvault/pkg/log"
	"github.com/yeisme/voxvault/pkg/queue"
	"github.com/yeisme/voxvault/pkg/scheduler"
)

// staleTranscribingAfter 卡在 transcribing 超过该时长视为死亡.
const staleTranscribingAfter = time.Hour

// RegisterCronJobs 配置管线的补偿任务：
//   - 每 10 分钟把卡死在 transcribing 的文件标记为 failed
//   - 每 15 分钟为已转写但缺少分析的文件重发分析请求
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	_ = sched.AddCron(JobStaleTranscribingSweep, CronStaleTranscribingSweep, func(ctx context.Context) {
		runStaleTranscribingSweep(ctx, mgr)
	}, baseCtx)

	_ = sched.AddCron(JobAnalysisBacklog, CronAnalysisBacklog, func(ctx context.Context) {
		runAnalysisBacklog(ctx, mgr)
	}, baseCtx)

	return nil
}

// runStaleTranscribingSweep 把长时间停留在 transcribing 的文件标记为 failed。
// 进程崩溃或转写服务超时都可能留下这种孤儿状态.
func runStaleTranscribingSweep(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", JobStaleTranscribingSweep).Logger()

	dbc := mgr.GetDBClient()
	if dbc == nil || dbc.GetDB() == nil {
		l.Error().Msg("db not initialized")
		return
	}

	deadline := time.Now().Add(-staleTranscribingAfter)

	res := dbc.GetDB().WithContext(ctx).
		Model(&model.File{}).
		Where("status = ? AND updated_at < ?", model.StatusTranscribing, deadline).
		Update("status", model.StatusFailed)
	if res.Error != nil {
		l.Error().Err(res.Error).Msg("sweep failed")
		return
	}

	if res.RowsAffected > 0 {
		l.Warn().Int64("affected", res.RowsAffected).Time("deadline", deadline).
			Msg("marked stale transcribing files as failed")
	}
}

// runAnalysisBacklog 为已转写但没有分析行的文件重发分析请求。
// 消息 ID 是确定性的，重复补偿会在流层被去重；MQ 不可用时直接
// 在进程内执行分析.
func runAnalysisBacklog(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", JobAnalysisBacklog).Logger()

	dbc := mgr.GetDBClient()
	if dbc == nil || dbc.GetDB() == nil {
		l.Error().Msg("db not initialized")
		return
	}

	var files []model.File
	if err := dbc.GetDB().WithContext(ctx).
		Where("status = ?", model.StatusTranscribed).
		Where("id NOT IN (?)", dbc.GetDB().Model(&model.Analysis{}).Select("file_id")).
		Limit(100).
		Find(&files).Error; err != nil {
		l.Error().Err(err).Msg("list backlog failed")
		return
	}

	if len(files) == 0 {
		return
	}

	mqc := mgr.GetMQClient()

	for i := range files {
		f := &files[i]

		if mqc != nil && mqc.Publisher() != nil {
			err := queue.PublishAnalyzeRequested(mqc.Publisher(), queue.AnalyzeRequestedPayload{
				File: queue.FileRef{
					FileID:    f.ID,
					User:      f.User,
					Bucket:    f.Bucket,
					ObjectKey: f.ObjectKey,
				},
				Reason: "reconcile",
			})
			if err != nil {
				l.Error().Err(err).Str("file_id", f.ID).Msg("republish analyze request failed")
			}

			continue
		}

		svc := service.NewPipelineService(ctx)
		if _, err := svc.Analyze(ctx, f.ID); err != nil {
			l.Error().Err(err).Str("file_id", f.ID).Msg("in-process backlog analysis failed")
		}
	}

	l.Info().Int("count", len(files)).Msg("analysis backlog processed")
}
