package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 媒体文件领域 --------------------------

// FileRef 标识媒体文件及其在对象存储中的位置.
type FileRef struct {
	FileID      string `json:"file_id"`
	User        string `json:"user,omitempty"`
	Bucket      string `json:"bucket,omitempty"`
	ObjectKey   string `json:"object_key,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// FileStoredPayload 媒体对象已写入对象存储且元数据落库.
type FileStoredPayload struct {
	File FileRef `json:"file"`
	// Source 摄取来源：upload 或 youtube.
	Source   string `json:"source,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// FileDeletedPayload 媒体文件及其衍生数据（转写、分析、聊天记录）已删除.
type FileDeletedPayload struct {
	File FileRef `json:"file"`
}

// -------------------------- 语音转写领域 --------------------------

// TranscribeRequestedPayload 请求对指定文件进行语音转写.
type TranscribeRequestedPayload struct {
	File FileRef `json:"file"`
}

// TranscribeCompletedPayload 转写完成，转写文本已落库.
type TranscribeCompletedPayload struct {
	File            FileRef `json:"file"`
	WordCount       int     `json:"word_count,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Language        string  `json:"language,omitempty"`
	Service         string  `json:"service,omitempty"`
}

// TranscribeFailedPayload 转写失败，文件已标记 failed.
type TranscribeFailedPayload struct {
	File  FileRef `json:"file"`
	Error string  `json:"error"`
}

// -------------------------- 结构化分析领域 --------------------------

// AnalyzeRequestedPayload 请求对已转写文件生成结构化分析.
type AnalyzeRequestedPayload struct {
	File FileRef `json:"file"`
	// Reason 触发来源：transcribe/youtube/reconcile/manual，便于排障.
	Reason string `json:"reason,omitempty"`
}

// AnalyzeCompletedPayload 分析完成，文件进入 completed.
type AnalyzeCompletedPayload struct {
	File FileRef `json:"file"`
	// Degraded 表示模型输出无法解析为结构化 JSON，写入了降级记录.
	Degraded bool `json:"degraded,omitempty"`
}

// AnalyzeFailedPayload 分析失败，文件状态已回退 transcribed.
type AnalyzeFailedPayload struct {
	File  FileRef `json:"file"`
	Error string  `json:"error"`
}

// -------------------------- 对话领域 --------------------------

// ChatMessageAppendedPayload 聊天消息已持久化.
type ChatMessageAppendedPayload struct {
	File    FileRef `json:"file"`
	Role    string  `json:"role"`
	Length  int     `json:"length,omitempty"`
	Elapsed int64   `json:"elapsed_ms,omitempty"`
}
