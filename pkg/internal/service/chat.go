package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/voxvault/pkg/cache"
	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/internal/provider/anthropic"
	"github.com/yeisme/voxvault/pkg/internal/types"
	"github.com/yeisme/voxvault/pkg/metrics"
	"github.com/yeisme/voxvault/pkg/queue"
)

const (
	// 注入系统提示词的转写文本上限（按字符截断）
	maxChatTranscriptChars = 50_000

	// 对话上下文（摘要 + 转写）的缓存 TTL
	chatContextTTL = 10 * time.Minute
)

// chatContext 构建系统提示词所需的文件上下文.
type chatContext struct {
	Summary    string `json:"summary"`
	Transcript string `json:"transcript"`
}

func chatContextCacheKey(fileID string) string {
	return "chat:ctx:" + fileID
}

// ChatStream 基于转写文本的流式对话。
// 最新的 user 消息在生成前落库；助手回复在流完整结束后才落库，
// 中途失败不会留下半截回复。每个增量通过 sink 透传给调用方.
func (s *PipelineService) ChatStream(ctx context.Context, user, fileID string,
	turns []types.ChatTurn, sink func(delta string) error,
) error {
	file, err := s.loadOwnedFile(ctx, user, fileID)
	if err != nil {
		return err
	}

	if len(turns) == 0 || turns[len(turns)-1].Role != model.RoleUser {
		return fmt.Errorf("last message must be from user: %w", ErrInvalidInput)
	}

	cctx, err := s.loadChatContext(ctx, file.ID)
	if err != nil {
		return err
	}

	// 生成前先持久化用户消息
	latest := turns[len(turns)-1]
	userMsg := &model.ChatMessage{
		FileID:  file.ID,
		Role:    model.RoleUser,
		Content: latest.Content,
	}

	if err := s.db.WithContext(ctx).Create(userMsg).Error; err != nil {
		return fmt.Errorf("save user message: %w", err)
	}

	msgs := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, anthropic.MessageParam{Role: t.Role, Content: t.Content})
	}

	started := time.Now()

	var reply strings.Builder

	err = s.chat.Stream(ctx, buildChatSystemPrompt(cctx), msgs, func(delta string) error {
		reply.WriteString(delta)
		return sink(delta)
	})
	if err != nil {
		metrics.PipelineStageCounter.WithLabelValues("chat", "failure").Inc()
		return newProviderError(analysisServiceName, "chat", err)
	}

	assistantMsg := &model.ChatMessage{
		FileID:  file.ID,
		Role:    model.RoleAssistant,
		Content: reply.String(),
	}

	if err := s.db.WithContext(ctx).Create(assistantMsg).Error; err != nil {
		return fmt.Errorf("save assistant message: %w", err)
	}

	metrics.PipelineStageCounter.WithLabelValues("chat", "success").Inc()

	if s.pub != nil {
		_ = queue.PublishChatMessageAppended(s.pub, queue.ChatMessageAppendedPayload{
			File:    fileRef(file),
			Role:    model.RoleAssistant,
			Length:  reply.Len(),
			Elapsed: time.Since(started).Milliseconds(),
		})
	}

	return nil
}

// ChatHistory 返回文件的全部聊天记录，按时间升序.
func (s *PipelineService) ChatHistory(ctx context.Context, user, fileID string) (*types.ChatHistoryResponse, error) {
	file, err := s.loadOwnedFile(ctx, user, fileID)
	if err != nil {
		return nil, err
	}

	var msgs []model.ChatMessage
	if err := s.db.WithContext(ctx).
		Where("file_id = ?", file.ID).
		Order("created_at asc, id asc").
		Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}

	items := make([]types.ChatHistoryItem, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, types.ChatHistoryItem{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}

	return &types.ChatHistoryResponse{Messages: items}, nil
}

// loadChatContext 加载对话上下文（分析摘要 + 截断后的转写文本），
// 经 KV 缓存短期复用，避免每条消息都重读大文本.
func (s *PipelineService) loadChatContext(ctx context.Context, fileID string) (chatContext, error) {
	getter := func() (chatContext, error) {
		var tr model.Transcription
		if err := s.db.WithContext(ctx).
			Where("file_id = ?", fileID).
			Order("id asc").
			First(&tr).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return chatContext{}, fmt.Errorf("transcription for file %s: %w", fileID, ErrNotFound)
			}

			return chatContext{}, fmt.Errorf("load transcription: %w", err)
		}

		cctx := chatContext{
			Transcript: truncateChars(tr.TranscriptText, maxChatTranscriptChars),
		}

		// 分析摘要可选，未生成时仅用转写文本
		var an model.Analysis
		if err := s.db.WithContext(ctx).
			Where("file_id = ?", fileID).
			Order("id asc").
			First(&an).Error; err == nil {
			cctx.Summary = an.Summary
		}

		return cctx, nil
	}

	if s.cache == nil {
		return getter()
	}

	return cache.GetOrSet(ctx, s.cache, chatContextCacheKey(fileID), getter, chatContextTTL)
}

// buildChatSystemPrompt 构建嵌入分析摘要与转写文本的系统提示词.
func buildChatSystemPrompt(cctx chatContext) string {
	var b strings.Builder

	b.WriteString("You are a helpful assistant answering questions about a transcribed piece of media. " +
		"Ground every answer in the transcript below. If the transcript does not contain the answer, say so.\n")

	if cctx.Summary != "" {
		b.WriteString("\nAnalysis summary:\n")
		b.WriteString(cctx.Summary)
		b.WriteString("\n")
	}

	b.WriteString("\nTranscript:\n")
	b.WriteString(cctx.Transcript)

	return b.String()
}

// loadOwnedFile 加载文件并校验归属.
func (s *PipelineService) loadOwnedFile(ctx context.Context, user, fileID string) (*model.File, error) {
	var file model.File
	if err := s.db.WithContext(ctx).First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("file %s: %w", fileID, ErrNotFound)
		}

		return nil, fmt.Errorf("load file %s: %w", fileID, err)
	}

	if file.User != user {
		return nil, fmt.Errorf("file %s belongs to another user: %w", fileID, ErrForbidden)
	}

	return &file, nil
}
