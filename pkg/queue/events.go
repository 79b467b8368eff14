package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishFileStored 发布 vv.file.stored 事件。
// 媒体对象写入对象存储并且元数据落库后调用，通知下游流程（如转写）。
// 可通过可选项 opts 注入 TraceID、Producer 等头部信息。
func PublishFileStored(pub message.Publisher, payload FileStoredPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileStored, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicFileStored, msg)
}

// ParseFileStored 将 Watermill 消息解析为强类型 Envelope（FileStoredPayload）。
func ParseFileStored(msg *message.Message) (Message[FileStoredPayload], error) {
	return ParseWatermillMessage[FileStoredPayload](msg)
}

// PublishFileDeleted 发布 vv.file.deleted 事件。
func PublishFileDeleted(pub message.Publisher, payload FileDeletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicFileDeleted, msg)
}

// PublishAnalyzeRequested 发布 vv.analyze.requested 事件。
// 消息 ID 为 file_id+analyze 的确定性哈希：转写完成与调度器补偿可能对同一
// 文件重复触发分析，JetStream 的 msg-ID 跟踪会把重复请求在流层丢弃。
func PublishAnalyzeRequested(pub message.Publisher, payload AnalyzeRequestedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAnalyzeRequested, payload, opts...)
	if err != nil {
		return err
	}

	msg.UUID = DeterministicMessageID(payload.File.FileID, "analyze")

	return pub.Publish(TopicAnalyzeRequested, msg)
}

// ParseAnalyzeRequested 将 Watermill 消息解析为强类型 Envelope（AnalyzeRequestedPayload）。
func ParseAnalyzeRequested(msg *message.Message) (Message[AnalyzeRequestedPayload], error) {
	return ParseWatermillMessage[AnalyzeRequestedPayload](msg)
}

// PublishTranscribeCompleted 发布 vv.transcribe.completed 事件。
func PublishTranscribeCompleted(pub message.Publisher, payload TranscribeCompletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicTranscribeCompleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicTranscribeCompleted, msg)
}

// PublishTranscribeFailed 发布 vv.transcribe.failed 事件。
func PublishTranscribeFailed(pub message.Publisher, payload TranscribeFailedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicTranscribeFailed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicTranscribeFailed, msg)
}

// PublishAnalyzeCompleted 发布 vv.analyze.completed 事件。
func PublishAnalyzeCompleted(pub message.Publisher, payload AnalyzeCompletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAnalyzeCompleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicAnalyzeCompleted, msg)
}

// PublishChatMessageAppended 发布 vv.chat.message.appended 事件。
func PublishChatMessageAppended(pub message.Publisher, payload ChatMessageAppendedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicChatMessageAppended, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicChatMessageAppended, msg)
}

// PublishAnalyzeFailed 发布 vv.analyze.failed 事件。
func PublishAnalyzeFailed(pub message.Publisher, payload AnalyzeFailedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAnalyzeFailed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicAnalyzeFailed, msg)
}
