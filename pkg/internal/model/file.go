// Package model 定义媒体处理管线的数据库模型.
package model

import (
	"time"
)

// 文件处理状态，只允许前进；分析失败回退 transcribed，其余失败进入 failed.
const (
	StatusProcessing   = "processing"   // 已入库，尚未开始转写
	StatusTranscribing = "transcribing" // 转写进行中
	StatusTranscribed  = "transcribed"  // 转写文本已落库
	StatusCompleted    = "completed"    // 结构化分析已生成
	StatusFailed       = "failed"       // 转写失败
)

// 文件摄取来源.
const (
	SourceUpload  = "upload"
	SourceYouTube = "youtube"
)

// File 媒体文件模型，处理管线的根实体.
type File struct {
	// ID 使用 uuid 字符串，上传时生成并进入对象键
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// 用户名或租户标识
	User             string `gorm:"size:255;index"  json:"user"`
	FileName         string `gorm:"size:512"        json:"file_name"`
	OriginalFileName string `gorm:"size:512"        json:"original_file_name"`
	ContentType      string `gorm:"size:255"        json:"content_type"`
	Size             int64  `json:"size"`
	// 对象键（S3 key）与桶
	ObjectKey string `gorm:"size:1024;index" json:"object_key"`
	Bucket    string `gorm:"size:255"        json:"bucket"`
	// SourceType upload 或 youtube
	SourceType string `gorm:"size:32;index" json:"source_type"`
	// Status 处理状态，见 Status* 常量
	Status    string    `gorm:"size:32;index" json:"status"`
	CreatedAt time.Time `gorm:"index"         json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AllModels 返回用于 AutoMigrate 的所有模型.
func AllModels() []any {
	return []any{
		&File{},
		&Transcription{},
		&Analysis{},
		&ChatMessage{},
	}
}
