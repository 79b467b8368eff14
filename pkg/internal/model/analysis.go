package model

import "time"

// Analysis 结构化分析结果，每个文件最多一条，重新分析时先删后插.
// 列表类字段以 JSON 字符串存储，便于跨数据库兼容.
type Analysis struct {
	ID      uint   `gorm:"primaryKey"    json:"id"`
	FileID  string `gorm:"size:36;index" json:"file_id"`
	Summary string `gorm:"type:text"     json:"summary"`
	// KeyPointsJSON 核心要点列表（JSON 数组）
	KeyPointsJSON  string `gorm:"type:text" json:"key_points_json"`
	Insights       string `gorm:"type:text" json:"insights"`
	TimeAssessment string `gorm:"type:text" json:"time_assessment"`
	TargetAudience string `gorm:"type:text" json:"target_audience"`
	// RewriteSuggestionsJSON 改写建议列表（JSON 数组）
	RewriteSuggestionsJSON string `gorm:"type:text" json:"rewrite_suggestions_json"`
	// TopicsJSON 主题列表（JSON 数组）
	TopicsJSON string `gorm:"type:text" json:"topics_json"`
	Sentiment  string `gorm:"size:64"   json:"sentiment"`
	// ActionItemsJSON 行动项列表（JSON 数组）
	ActionItemsJSON string `gorm:"type:text" json:"action_items_json"`
	// Service 产生分析的服务，目前固定 claude
	Service   string    `gorm:"size:64" json:"service"`
	CreatedAt time.Time `json:"created_at"`
}
