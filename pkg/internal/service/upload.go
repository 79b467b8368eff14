package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/internal/types"
	nlog "github.com/yeisme/voxvault/pkg/log"
	"github.com/yeisme/voxvault/pkg/queue"
)

// Upload 摄取直传文件：对象写入 user/<uuid>-<filename>，
// 建档（status=processing）后在请求内同步执行转写，分析按事件异步触发.
func (s *PipelineService) Upload(ctx context.Context, user, fileName, contentType string,
	size int64, reader io.Reader,
) (*types.UploadFileResponse, error) {
	if fileName == "" {
		return nil, fmt.Errorf("file name required: %w", ErrInvalidInput)
	}

	id := uuid.NewString()
	objectKey := fmt.Sprintf("%s/%s-%s", user, id, fileName)

	if _, err := s.store.Put(ctx, objectKey, reader, size, contentType); err != nil {
		return nil, fmt.Errorf("store object %s: %w", objectKey, err)
	}

	file := &model.File{
		ID:               id,
		User:             user,
		FileName:         fileName,
		OriginalFileName: fileName,
		ContentType:      contentType,
		Size:             size,
		ObjectKey:        objectKey,
		Bucket:           s.store.Bucket(),
		SourceType:       model.SourceUpload,
		Status:           model.StatusProcessing,
	}

	if err := s.db.WithContext(ctx).Create(file).Error; err != nil {
		// 元数据落库失败时回收已写入的对象
		if rmErr := s.store.Remove(ctx, objectKey); rmErr != nil {
			nlog.Logger().Warn().Err(rmErr).Str("object_key", objectKey).Msg("rollback uploaded object failed")
		}

		return nil, fmt.Errorf("save file record: %w", err)
	}

	if s.pub != nil {
		_ = queue.PublishFileStored(s.pub, queue.FileStoredPayload{
			File:     fileRef(file),
			Source:   model.SourceUpload,
			FileName: fileName,
		})
	}

	// 转写在请求内同步执行，失败时文件已被标记 failed
	if _, err := s.Transcribe(ctx, file.ID); err != nil {
		return &types.UploadFileResponse{
			Success: false,
			FileID:  file.ID,
			Status:  model.StatusFailed,
		}, err
	}

	return &types.UploadFileResponse{
		Success: true,
		FileID:  file.ID,
		Status:  model.StatusTranscribed,
	}, nil
}
