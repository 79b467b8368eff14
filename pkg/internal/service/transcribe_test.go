package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/internal/provider/assemblyai"
	"github.com/yeisme/voxvault/pkg/queue"
)

// TestTranscribe_Success 测试转写成功：落库、状态推进、事件发布.
func TestTranscribe_Success(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusProcessing)

	env.speech.result = &assemblyai.Transcript{
		Text:          "hello world from the talk",
		Confidence:    0.95,
		LanguageCode:  "en_us",
		AudioDuration: 42.5,
	}

	resp, err := env.svc.Transcribe(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if !resp.Success {
		t.Error("expected success response")
	}

	if resp.WordCount != 5 {
		t.Errorf("expected word count 5, got %d", resp.WordCount)
	}

	if got := env.fileStatus(t, file.ID); got != model.StatusTranscribed {
		t.Errorf("expected status transcribed, got %s", got)
	}

	var tr model.Transcription
	if err := env.db.First(&tr, "file_id = ?", file.ID).Error; err != nil {
		t.Fatalf("transcription row missing: %v", err)
	}

	if tr.Service != "assemblyai" {
		t.Errorf("unexpected service: %s", tr.Service)
	}

	if tr.DurationSeconds != 42.5 {
		t.Errorf("unexpected duration: %v", tr.DurationSeconds)
	}

	// 转写服务应收到预签名 URL
	if !strings.HasPrefix(env.speech.audioURL, "https://signed.example/") {
		t.Errorf("speech provider did not receive signed url: %s", env.speech.audioURL)
	}

	if got := env.pub.topicMessages(queue.TopicTranscribeCompleted); len(got) != 1 {
		t.Errorf("expected 1 transcribe.completed event, got %d", len(got))
	}
}

// TestTranscribe_TriggersAnalyzeWithDeterministicID 测试分析触发事件使用确定性消息 ID.
func TestTranscribe_TriggersAnalyzeWithDeterministicID(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusProcessing)

	env.speech.result = &assemblyai.Transcript{Text: "some words"}

	if _, err := env.svc.Transcribe(context.Background(), file.ID); err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	msgs := env.pub.topicMessages(queue.TopicAnalyzeRequested)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 analyze.requested event, got %d", len(msgs))
	}

	want := queue.DeterministicMessageID(file.ID, "analyze")
	if msgs[0].UUID != want {
		t.Errorf("expected deterministic message id %s, got %s", want, msgs[0].UUID)
	}

	env.speech.result = &assemblyai.Transcript{Text: "other words"}

	// 重复转写触发的重复请求必须携带同一 ID，供流层去重
	if _, err := env.svc.Transcribe(context.Background(), file.ID); err != nil {
		t.Fatalf("second Transcribe failed: %v", err)
	}

	msgs = env.pub.topicMessages(queue.TopicAnalyzeRequested)
	if len(msgs) != 2 || msgs[1].UUID != want {
		t.Errorf("duplicate trigger should reuse message id %s", want)
	}
}

// TestTranscribe_ProviderFailure 测试转写失败：状态 failed，错误上抛.
func TestTranscribe_ProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusProcessing)

	env.speech.err = fmt.Errorf("audio unreachable")

	_, err := env.svc.Transcribe(context.Background(), file.ID)
	if err == nil {
		t.Fatal("expected error")
	}

	var pErr *ProviderError
	if !errors.As(err, &pErr) {
		t.Errorf("expected ProviderError, got %T: %v", err, err)
	}

	if got := env.fileStatus(t, file.ID); got != model.StatusFailed {
		t.Errorf("expected status failed, got %s", got)
	}

	if got := env.pub.topicMessages(queue.TopicTranscribeFailed); len(got) != 1 {
		t.Errorf("expected 1 transcribe.failed event, got %d", len(got))
	}

	// 失败时不触发分析
	if got := env.pub.topicMessages(queue.TopicAnalyzeRequested); len(got) != 0 {
		t.Errorf("expected no analyze.requested events, got %d", len(got))
	}
}

// TestTranscribe_FileNotFound 测试文件不存在.
func TestTranscribe_FileNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Transcribe(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
