// Package service 实现媒体处理管线的业务逻辑：
// 摄取（上传 / YouTube 字幕）、语音转写、结构化分析与基于转写文本的对话.
package service

import (
	"context"
	"io"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"github.com/yeisme/voxvault/pkg/cache"
	"github.com/yeisme/voxvault/pkg/configs"
	ctxPkg "github.com/yeisme/voxvault/pkg/context"
	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/internal/provider/anthropic"
	"github.com/yeisme/voxvault/pkg/internal/provider/assemblyai"
	"github.com/yeisme/voxvault/pkg/internal/provider/youtubetx"
	"github.com/yeisme/voxvault/pkg/internal/storage/kv"
	nlog "github.com/yeisme/voxvault/pkg/log"
	"github.com/yeisme/voxvault/pkg/queue"
)

// ObjectStore 管线需要的对象存储能力子集.
type ObjectStore interface {
	Bucket() string
	Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (minio.UploadInfo, error)
	SignedGetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, objectKey string) error
}

// SpeechProvider 语音转写服务.
type SpeechProvider interface {
	Transcribe(ctx context.Context, audioURL string) (*assemblyai.Transcript, error)
}

// ChatProvider 对话模型服务，支持一次性补全与流式输出.
type ChatProvider interface {
	Complete(ctx context.Context, system string, msgs []anthropic.MessageParam) (string, error)
	Stream(ctx context.Context, system string, msgs []anthropic.MessageParam, fn func(delta string) error) error
}

// TranscriptProvider YouTube 字幕抓取服务.
type TranscriptProvider interface {
	Fetch(ctx context.Context, videoID string) (*youtubetx.VideoTranscript, bool, error)
}

// PipelineService 媒体处理管线服务.
type PipelineService struct {
	db    *gorm.DB
	store ObjectStore
	// pub 为 nil 表示 MQ 不可用，异步触发退化为进程内调用
	pub   message.Publisher
	kv    kv.KVStore
	cache *cache.Cache

	speech SpeechProvider
	chat   ChatProvider
	yt     TranscriptProvider

	providers configs.ProvidersConfig
}

// NewPipelineService 从 context 中的存储管理器构建管线服务.
func NewPipelineService(c context.Context) *PipelineService {
	ps := &PipelineService{
		providers: configs.GetConfig().Providers,
	}

	if dbc := ctxPkg.GetDBClient(c); dbc != nil {
		ps.db = dbc.GetDB()
	}

	if s3c := ctxPkg.GetS3Client(c); s3c != nil {
		ps.store = s3c
	}

	if mqc := ctxPkg.GetMQClient(c); mqc != nil {
		ps.pub = mqc.Publisher()
	}

	if kvc := ctxPkg.GetKVClient(c); kvc != nil {
		ps.kv = kvc.KVStore
		ps.cache = cache.NewCache(kvc.KVStore)
	}

	ps.speech = assemblyai.NewClient(ps.providers.AssemblyAI)
	ps.chat = anthropic.NewClient(ps.providers.Anthropic)
	ps.yt = youtubetx.NewClient(ps.providers.YouTubeTranscript)

	return ps
}

// fileRef 从模型构建事件引用.
func fileRef(f *model.File) queue.FileRef {
	return queue.FileRef{
		FileID:      f.ID,
		User:        f.User,
		Bucket:      f.Bucket,
		ObjectKey:   f.ObjectKey,
		ContentType: f.ContentType,
		Size:        f.Size,
	}
}

// setStatus 更新文件状态列并同步内存中的模型.
func (s *PipelineService) setStatus(ctx context.Context, file *model.File, status string) error {
	if err := s.db.WithContext(ctx).Model(&model.File{}).
		Where("id = ?", file.ID).
		Update("status", status).Error; err != nil {
		return err
	}

	file.Status = status

	return nil
}

// triggerAnalyze 异步触发分析，错误只记日志不上抛。
// 优先走事件总线（确定性消息 ID 由 JetStream 在流层去重），
// MQ 不可用或发布失败时退化为进程内 goroutine.
func (s *PipelineService) triggerAnalyze(ctx context.Context, file *model.File, reason string) {
	if s.pub != nil {
		err := queue.PublishAnalyzeRequested(s.pub, queue.AnalyzeRequestedPayload{
			File:   fileRef(file),
			Reason: reason,
		})
		if err == nil {
			return
		}

		nlog.Logger().Warn().Err(err).Str("file_id", file.ID).
			Msg("publish analyze request failed, falling back to in-process")
	}

	go func(fileID string, bg context.Context) {
		if _, err := s.Analyze(bg, fileID); err != nil {
			nlog.Logger().Error().Err(err).Str("file_id", fileID).Msg("in-process analysis failed")
		}
	}(file.ID, context.WithoutCancel(ctx))
}
