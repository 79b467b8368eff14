package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/internal/types"
	nlog "github.com/yeisme/voxvault/pkg/log"
	"github.com/yeisme/voxvault/pkg/metrics"
	"github.com/yeisme/voxvault/pkg/queue"
)

const transcribeServiceName = "assemblyai"

// Transcribe 对指定文件执行语音转写阶段：
// 状态置 transcribing → 生成预签名下载 URL → 提交转写并轮询 →
// 落库转写文本 → 状态置 transcribed → 异步触发分析。
// 任何失败都会把文件状态置为 failed 并上抛错误.
func (s *PipelineService) Transcribe(ctx context.Context, fileID string) (*types.TranscribeResponse, error) {
	var file model.File
	if err := s.db.WithContext(ctx).First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("file %s: %w", fileID, ErrNotFound)
		}

		return nil, fmt.Errorf("load file %s: %w", fileID, err)
	}

	if err := s.setStatus(ctx, &file, model.StatusTranscribing); err != nil {
		return nil, fmt.Errorf("mark transcribing: %w", err)
	}

	tr, err := s.runTranscription(ctx, &file)
	if err != nil {
		metrics.PipelineStageCounter.WithLabelValues("transcribe", "failure").Inc()

		// 状态强制 failed，再上抛原始错误
		if stErr := s.setStatus(ctx, &file, model.StatusFailed); stErr != nil {
			nlog.Logger().Error().Err(stErr).Str("file_id", file.ID).Msg("mark failed after transcription error")
		}

		if s.pub != nil {
			_ = queue.PublishTranscribeFailed(s.pub, queue.TranscribeFailedPayload{
				File:  fileRef(&file),
				Error: err.Error(),
			})
		}

		return nil, err
	}

	metrics.PipelineStageCounter.WithLabelValues("transcribe", "success").Inc()

	if s.pub != nil {
		_ = queue.PublishTranscribeCompleted(s.pub, queue.TranscribeCompletedPayload{
			File:            fileRef(&file),
			WordCount:       tr.WordCount,
			DurationSeconds: tr.DurationSeconds,
			Language:        tr.Language,
			Service:         tr.Service,
		})
	}

	s.triggerAnalyze(ctx, &file, "transcribe")

	return &types.TranscribeResponse{
		Success:         true,
		FileID:          file.ID,
		WordCount:       tr.WordCount,
		DurationSeconds: tr.DurationSeconds,
		Language:        tr.Language,
	}, nil
}

// runTranscription 执行转写主体：签名 URL、调用转写服务、落库、置 transcribed.
func (s *PipelineService) runTranscription(ctx context.Context, file *model.File) (*model.Transcription, error) {
	audioURL, err := s.store.SignedGetURL(ctx, file.ObjectKey, s.providers.AssemblyAI.GetSignedURLExpiry())
	if err != nil {
		return nil, fmt.Errorf("presign audio url: %w", err)
	}

	result, err := s.speech.Transcribe(ctx, audioURL)
	if err != nil {
		return nil, newProviderError(transcribeServiceName, "transcribe", err)
	}

	wordCount := len(result.Words)
	if wordCount == 0 {
		wordCount = len(strings.Fields(result.Text))
	}

	tr := &model.Transcription{
		FileID:          file.ID,
		TranscriptText:  result.Text,
		WordCount:       wordCount,
		DurationSeconds: result.AudioDuration,
		Language:        result.LanguageCode,
		ConfidenceScore: result.Confidence,
		Service:         transcribeServiceName,
	}

	if err := s.db.WithContext(ctx).Create(tr).Error; err != nil {
		return nil, fmt.Errorf("save transcription: %w", err)
	}

	if err := s.setStatus(ctx, file, model.StatusTranscribed); err != nil {
		return nil, fmt.Errorf("mark transcribed: %w", err)
	}

	nlog.Logger().Info().
		Str("file_id", file.ID).
		Int("word_count", tr.WordCount).
		Float64("duration_seconds", tr.DurationSeconds).
		Msg("transcription completed")

	return tr, nil
}
