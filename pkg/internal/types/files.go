// Package types 定义 HTTP 层的请求与响应结构体.
package types

import (
	"time"

	"github.com/yeisme/voxvault/pkg/internal/model"
)

// FileItem 文件列表项.
type FileItem struct {
	ID               string    `json:"id"`
	FileName         string    `json:"file_name"`
	OriginalFileName string    `json:"original_file_name,omitempty"`
	ContentType      string    `json:"content_type,omitempty"`
	Size             int64     `json:"size"`
	SourceType       string    `json:"source_type"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewFileItem 从模型构建列表项.
func NewFileItem(f *model.File) FileItem {
	return FileItem{
		ID:               f.ID,
		FileName:         f.FileName,
		OriginalFileName: f.OriginalFileName,
		ContentType:      f.ContentType,
		Size:             f.Size,
		SourceType:       f.SourceType,
		Status:           f.Status,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// ListFilesResponse 文件列表响应，按创建时间倒序.
type ListFilesResponse struct {
	Files []FileItem `json:"files"`
	Total int        `json:"total"`
}

// TranscriptionView 转写结果视图.
type TranscriptionView struct {
	TranscriptText  string  `json:"transcript_text"`
	WordCount       int     `json:"word_count"`
	DurationSeconds float64 `json:"duration_seconds"`
	Language        string  `json:"language,omitempty"`
	ConfidenceScore float64 `json:"confidence_score,omitempty"`
	Service         string  `json:"service,omitempty"`
}

// AnalysisView 结构化分析视图，列表字段已从 JSON 列展开.
type AnalysisView struct {
	Summary            string   `json:"summary"`
	KeyPoints          []string `json:"key_points"`
	Insights           string   `json:"insights"`
	TimeAssessment     string   `json:"time_assessment"`
	TargetAudience     string   `json:"target_audience"`
	RewriteSuggestions []string `json:"rewrite_suggestions"`
	Topics             []string `json:"topics"`
	Sentiment          string   `json:"sentiment"`
	ActionItems        []string `json:"action_items"`
	Service            string   `json:"service,omitempty"`
}

// FileDetailResponse 单个文件详情，包含转写与分析（若已生成）.
type FileDetailResponse struct {
	File          FileItem           `json:"file"`
	Transcription *TranscriptionView `json:"transcription,omitempty"`
	Analysis      *AnalysisView      `json:"analysis,omitempty"`
}

// DeleteFileResponse 删除文件响应.
type DeleteFileResponse struct {
	Success bool   `json:"success"`
	FileID  string `json:"file_id"`
}

// UploadFileResponse 上传响应.
type UploadFileResponse struct {
	Success bool   `json:"success"`
	FileID  string `json:"file_id"`
	Status  string `json:"status"`
}
