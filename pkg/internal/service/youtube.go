package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/internal/types"
	"github.com/yeisme/voxvault/pkg/metrics"
	"github.com/yeisme/voxvault/pkg/queue"
)

const youtubeServiceName = "youtube-transcript-api"

// 受支持的视频链接格式，视频 ID 固定 11 位.
var youtubeURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]{11})`),
}

// ExtractYouTubeVideoID 从视频链接中提取视频 ID，不发起网络请求.
func ExtractYouTubeVideoID(rawURL string) (string, bool) {
	for _, p := range youtubeURLPatterns {
		if m := p.FindStringSubmatch(rawURL); len(m) == 2 {
			return m[1], true
		}
	}

	return "", false
}

// ProcessYouTube 摄取 YouTube 字幕：校验链接 → 抓取字幕 →
// 字幕文本作为 text/plain 对象入库 → 直接建 transcribed 档并插入转写行 →
// 异步触发分析（触发失败只记日志）.
func (s *PipelineService) ProcessYouTube(ctx context.Context, user, rawURL string) (*types.YouTubeProcessResponse, error) {
	videoID, ok := ExtractYouTubeVideoID(rawURL)
	if !ok {
		return nil, fmt.Errorf("unsupported youtube url %q: %w", rawURL, ErrInvalidInput)
	}

	vt, hasTranscript, err := s.yt.Fetch(ctx, videoID)
	if err != nil {
		metrics.PipelineStageCounter.WithLabelValues("youtube", "failure").Inc()
		return nil, newProviderError(youtubeServiceName, "fetch", err)
	}

	if !hasTranscript {
		metrics.PipelineStageCounter.WithLabelValues("youtube", "failure").Inc()
		return nil, fmt.Errorf("video %s has no transcript: %w", videoID, ErrNotFound)
	}

	title := vt.Title
	if title == "" {
		title = videoID
	}

	fileName := safeTitle(title) + ".txt"
	id := uuid.NewString()
	objectKey := fmt.Sprintf("%s/%s-%s", user, id, fileName)

	if _, err := s.store.Put(ctx, objectKey,
		strings.NewReader(vt.Text), int64(len(vt.Text)), "text/plain"); err != nil {
		metrics.PipelineStageCounter.WithLabelValues("youtube", "failure").Inc()
		return nil, fmt.Errorf("store transcript object %s: %w", objectKey, err)
	}

	file := &model.File{
		ID:               id,
		User:             user,
		FileName:         fileName,
		OriginalFileName: title,
		ContentType:      "text/plain",
		Size:             int64(len(vt.Text)),
		ObjectKey:        objectKey,
		Bucket:           s.store.Bucket(),
		SourceType:       model.SourceYouTube,
		// 字幕即转写结果，无音频转写步骤
		Status: model.StatusTranscribed,
	}

	tr := &model.Transcription{
		FileID:         id,
		TranscriptText: vt.Text,
		WordCount:      len(strings.Fields(vt.Text)),
		Language:       vt.Language,
		Service:        youtubeServiceName,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(file).Error; err != nil {
			return err
		}

		return tx.Create(tr).Error
	})
	if err != nil {
		metrics.PipelineStageCounter.WithLabelValues("youtube", "failure").Inc()
		return nil, fmt.Errorf("save youtube file: %w", err)
	}

	metrics.PipelineStageCounter.WithLabelValues("youtube", "success").Inc()

	if s.pub != nil {
		_ = queue.PublishFileStored(s.pub, queue.FileStoredPayload{
			File:     fileRef(file),
			Source:   model.SourceYouTube,
			FileName: fileName,
		})
	}

	s.triggerAnalyze(ctx, file, "youtube")

	return &types.YouTubeProcessResponse{
		Success: true,
		FileID:  id,
		Title:   title,
	}, nil
}

// safeTitle 生成文件系统安全的标题：非字母数字一律替换为下划线并转小写.
func safeTitle(title string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	return b.String()
}
