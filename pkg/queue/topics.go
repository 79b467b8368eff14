// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：vv.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：file(媒体文件)、transcribe(语音转写)、analyze(结构化分析)、chat(对话)
// 状态：请求(requested)、完成(completed)、失败(failed)

const (
	// 媒体文件领域.
	TopicFileStored  = "vv.file.stored"  // 媒体对象已写入对象存储且元数据落库
	TopicFileDeleted = "vv.file.deleted" // 媒体文件及其衍生数据已删除

	// 语音转写领域.
	TopicTranscribeRequested = "vv.transcribe.requested" // 请求对指定文件进行语音转写
	TopicTranscribeCompleted = "vv.transcribe.completed" // 转写完成，转写文本已落库
	TopicTranscribeFailed    = "vv.transcribe.failed"    // 转写失败，文件已标记 failed

	// 结构化分析领域.
	TopicAnalyzeRequested = "vv.analyze.requested" // 请求对已转写文件生成结构化分析
	TopicAnalyzeCompleted = "vv.analyze.completed" // 分析完成，文件进入 completed
	TopicAnalyzeFailed    = "vv.analyze.failed"    // 分析失败，文件回退 transcribed

	// 对话领域.
	TopicChatMessageAppended = "vv.chat.message.appended" // 聊天消息已持久化
)

// 主题分组，用于批量操作或权限控制.
var (
	// 媒体文件相关主题集合.
	FileTopics = []string{
		TopicFileStored, TopicFileDeleted,
	}

	// 转写相关主题集合.
	TranscribeTopics = []string{
		TopicTranscribeRequested, TopicTranscribeCompleted, TopicTranscribeFailed,
	}

	// 分析相关主题集合.
	AnalyzeTopics = []string{
		TopicAnalyzeRequested, TopicAnalyzeCompleted, TopicAnalyzeFailed,
	}

	// 对话相关主题集合.
	ChatTopics = []string{
		TopicChatMessageAppended,
	}
)
