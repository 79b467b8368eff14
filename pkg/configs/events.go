package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled  bool                 `mapstructure:"enabled"` // 总开关
	Pipeline PipelineEventsConfig `mapstructure:"pipeline"`
}

// PipelineEventsConfig 针对媒体处理管线的事件开关。
type PipelineEventsConfig struct {
	FileStored          bool `mapstructure:"file_stored"`
	FileDeleted         bool `mapstructure:"file_deleted"`
	TranscribeRequested bool `mapstructure:"transcribe_requested"`
	TranscribeCompleted bool `mapstructure:"transcribe_completed"`
	TranscribeFailed    bool `mapstructure:"transcribe_failed"`
	AnalyzeRequested    bool `mapstructure:"analyze_requested"`
	AnalyzeCompleted    bool `mapstructure:"analyze_completed"`
	AnalyzeFailed       bool `mapstructure:"analyze_failed"`
	ChatMessageAppended bool `mapstructure:"chat_message_appended"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用事件系统
	v.SetDefault("events.enabled", true)

	// 管线事件：分析触发依赖事件总线，必须默认开启
	v.SetDefault("events.pipeline.file_stored", true)
	v.SetDefault("events.pipeline.file_deleted", true)
	v.SetDefault("events.pipeline.analyze_requested", true)
	v.SetDefault("events.pipeline.transcribe_completed", true)
	v.SetDefault("events.pipeline.transcribe_failed", true)
	v.SetDefault("events.pipeline.analyze_completed", true)
	v.SetDefault("events.pipeline.analyze_failed", true)

	// 可选事件：默认关闭，按需开启
	v.SetDefault("events.pipeline.transcribe_requested", false)
	v.SetDefault("events.pipeline.chat_message_appended", false) // 聊天消息量可能很大，默认关闭
}
