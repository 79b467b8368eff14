package types

// TranscribeRequest 转写请求.
type TranscribeRequest struct {
	FileID string `binding:"required" json:"file_id"`
}

// TranscribeResponse 转写响应.
type TranscribeResponse struct {
	Success         bool    `json:"success"`
	FileID          string  `json:"file_id"`
	WordCount       int     `json:"word_count,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Language        string  `json:"language,omitempty"`
}

// AnalyzeRequest 分析请求.
type AnalyzeRequest struct {
	FileID string `binding:"required" json:"file_id"`
}

// AnalyzeResponse 分析响应.
type AnalyzeResponse struct {
	Success bool `json:"success"`
	// Degraded 表示模型输出未能解析为结构化 JSON，写入了降级记录
	Degraded bool `json:"degraded,omitempty"`
}

// YouTubeProcessRequest YouTube 摄取请求，URL 需要符合受支持的视频链接格式.
type YouTubeProcessRequest struct {
	URL string `binding:"required" json:"url" rule:"youtube_url"`
}

// YouTubeProcessResponse YouTube 摄取响应.
type YouTubeProcessResponse struct {
	Success bool   `json:"success"`
	FileID  string `json:"file_id"`
	Title   string `json:"title,omitempty"`
}
