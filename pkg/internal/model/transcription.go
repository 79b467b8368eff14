package model

import "time"

// Transcription 转写结果，一个文件通常只有一条，消费方取最早一条.
type Transcription struct {
	ID     uint   `gorm:"primaryKey"     json:"id"`
	FileID string `gorm:"size:36;index"  json:"file_id"`
	// TranscriptText 完整转写文本
	TranscriptText string `gorm:"type:text" json:"transcript_text"`
	WordCount      int    `json:"word_count"`
	// DurationSeconds 音频时长（秒）
	DurationSeconds float64 `json:"duration_seconds"`
	Language        string  `gorm:"size:32" json:"language"`
	ConfidenceScore float64 `json:"confidence_score"`
	// Service 产生转写的服务：assemblyai / youtube-transcript-api
	Service   string    `gorm:"size:64" json:"service"`
	CreatedAt time.Time `json:"created_at"`
}
