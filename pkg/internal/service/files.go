package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/internal/types"
	nlog "github.com/yeisme/voxvault/pkg/log"
	"github.com/yeisme/voxvault/pkg/queue"
)

// ListFiles 返回用户的全部文件，按创建时间倒序.
func (s *PipelineService) ListFiles(ctx context.Context, user string) (*types.ListFilesResponse, error) {
	var files []model.File
	if err := s.db.WithContext(ctx).
		Where("user = ?", user).
		Order("created_at desc").
		Find(&files).Error; err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	items := make([]types.FileItem, 0, len(files))
	for i := range files {
		items = append(items, types.NewFileItem(&files[i]))
	}

	return &types.ListFilesResponse{Files: items, Total: len(items)}, nil
}

// GetFile 返回单个文件详情，附带转写与分析（若已生成）.
func (s *PipelineService) GetFile(ctx context.Context, user, fileID string) (*types.FileDetailResponse, error) {
	file, err := s.loadOwnedFile(ctx, user, fileID)
	if err != nil {
		return nil, err
	}

	resp := &types.FileDetailResponse{File: types.NewFileItem(file)}

	var tr model.Transcription
	if err := s.db.WithContext(ctx).
		Where("file_id = ?", file.ID).
		Order("id asc").
		First(&tr).Error; err == nil {
		resp.Transcription = &types.TranscriptionView{
			TranscriptText:  tr.TranscriptText,
			WordCount:       tr.WordCount,
			DurationSeconds: tr.DurationSeconds,
			Language:        tr.Language,
			ConfidenceScore: tr.ConfidenceScore,
			Service:         tr.Service,
		}
	}

	var an model.Analysis
	if err := s.db.WithContext(ctx).
		Where("file_id = ?", file.ID).
		Order("id asc").
		First(&an).Error; err == nil {
		resp.Analysis = &types.AnalysisView{
			Summary:            an.Summary,
			KeyPoints:          decodeStringList(an.KeyPointsJSON),
			Insights:           an.Insights,
			TimeAssessment:     an.TimeAssessment,
			TargetAudience:     an.TargetAudience,
			RewriteSuggestions: decodeStringList(an.RewriteSuggestionsJSON),
			Topics:             decodeStringList(an.TopicsJSON),
			Sentiment:          an.Sentiment,
			ActionItems:        decodeStringList(an.ActionItemsJSON),
			Service:            an.Service,
		}
	}

	return resp, nil
}

// DeleteFile 删除文件及其衍生数据。对象删除尽力而为；
// 数据库行在单个事务中删除，重复删除返回 NotFound.
func (s *PipelineService) DeleteFile(ctx context.Context, user, fileID string) (*types.DeleteFileResponse, error) {
	file, err := s.loadOwnedFile(ctx, user, fileID)
	if err != nil {
		return nil, err
	}

	if file.ObjectKey != "" {
		if err := s.store.Remove(ctx, file.ObjectKey); err != nil {
			nlog.Logger().Warn().Err(err).
				Str("file_id", file.ID).
				Str("object_key", file.ObjectKey).
				Msg("remove object failed, continuing with row deletes")
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", file.ID).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}

		if err := tx.Where("file_id = ?", file.ID).Delete(&model.Analysis{}).Error; err != nil {
			return err
		}

		if err := tx.Where("file_id = ?", file.ID).Delete(&model.Transcription{}).Error; err != nil {
			return err
		}

		return tx.Delete(&model.File{}, "id = ?", file.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete file %s: %w", file.ID, err)
	}

	if s.pub != nil {
		_ = queue.PublishFileDeleted(s.pub, queue.FileDeletedPayload{File: fileRef(file)})
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, chatContextCacheKey(file.ID))
	}

	return &types.DeleteFileResponse{Success: true, FileID: file.ID}, nil
}
