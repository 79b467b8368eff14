package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/internal/storage/kv"
	"github.com/yeisme/voxvault/pkg/queue"
)

const validAnalysisJSON = `{
	"summary": "A talk about Go",
	"key_points": ["concurrency", "simplicity"],
	"insights": "the speaker values pragmatism",
	"time_assessment": "worth the time",
	"target_audience": "Go developers",
	"rewrite_suggestions": ["tighten the intro"],
	"topics": ["go", "engineering"],
	"sentiment": "positive",
	"action_items": ["share the recording"]
}`

// TestAnalyze_Success 测试分析成功：分析行落库，状态 completed.
func TestAnalyze_Success(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusTranscribed)
	env.seedTranscription(t, file.ID, "hello world transcript")

	env.chat.completeOut = validAnalysisJSON

	resp, err := env.svc.Analyze(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !resp.Success || resp.Degraded {
		t.Errorf("unexpected response: %+v", resp)
	}

	if got := env.fileStatus(t, file.ID); got != model.StatusCompleted {
		t.Errorf("expected status completed, got %s", got)
	}

	var an model.Analysis
	if err := env.db.First(&an, "file_id = ?", file.ID).Error; err != nil {
		t.Fatalf("analysis row missing: %v", err)
	}

	if an.Summary != "A talk about Go" {
		t.Errorf("unexpected summary: %q", an.Summary)
	}

	if got := decodeStringList(an.KeyPointsJSON); len(got) != 2 || got[0] != "concurrency" {
		t.Errorf("unexpected key points: %v", got)
	}

	if got := env.pub.topicMessages(queue.TopicAnalyzeCompleted); len(got) != 1 {
		t.Errorf("expected 1 analyze.completed event, got %d", len(got))
	}
}

// TestAnalyze_ReplacesPriorAnalysis 测试重新分析采用先删后插，只保留一行.
func TestAnalyze_ReplacesPriorAnalysis(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusTranscribed)
	env.seedTranscription(t, file.ID, "transcript text")

	env.chat.completeOut = validAnalysisJSON

	for range 2 {
		if _, err := env.svc.Analyze(context.Background(), file.ID); err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
	}

	var count int64
	if err := env.db.Model(&model.Analysis{}).Where("file_id = ?", file.ID).Count(&count).Error; err != nil {
		t.Fatalf("count analyses: %v", err)
	}

	if count != 1 {
		t.Errorf("expected exactly 1 analysis row, got %d", count)
	}
}

// TestAnalyze_FencedJSON 测试从围栏或前后缀文本中提取 JSON 片段.
func TestAnalyze_FencedJSON(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusTranscribed)
	env.seedTranscription(t, file.ID, "transcript text")

	env.chat.completeOut = "Here is the analysis:\n```json\n" + validAnalysisJSON + "\n```\nHope that helps."

	resp, err := env.svc.Analyze(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if resp.Degraded {
		t.Error("expected structured parse, got degraded record")
	}
}

// TestAnalyze_DegradedRecord 测试完全无法解析时写入降级记录且状态仍 completed.
func TestAnalyze_DegradedRecord(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusTranscribed)
	env.seedTranscription(t, file.ID, "transcript text")

	env.chat.completeOut = "I cannot produce JSON today."

	resp, err := env.svc.Analyze(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !resp.Degraded {
		t.Error("expected degraded response")
	}

	if got := env.fileStatus(t, file.ID); got != model.StatusCompleted {
		t.Errorf("expected status completed, got %s", got)
	}

	var an model.Analysis
	if err := env.db.First(&an, "file_id = ?", file.ID).Error; err != nil {
		t.Fatalf("analysis row missing: %v", err)
	}

	if got := decodeStringList(an.KeyPointsJSON); len(got) != 1 || got[0] != "Could not parse structured analysis" {
		t.Errorf("unexpected degraded key points: %v", got)
	}

	if !strings.HasPrefix(an.Insights, "Raw output: ") {
		t.Errorf("unexpected degraded insights: %q", an.Insights)
	}

	if an.TimeAssessment != "N/A" || an.TargetAudience != "N/A" {
		t.Errorf("expected N/A placeholders, got %q / %q", an.TimeAssessment, an.TargetAudience)
	}
}

// TestAnalyze_ProviderFailureReverts 测试模型调用失败时状态回退 transcribed.
func TestAnalyze_ProviderFailureReverts(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusTranscribed)
	env.seedTranscription(t, file.ID, "transcript text")

	env.chat.completeErr = fmt.Errorf("model overloaded")

	_, err := env.svc.Analyze(context.Background(), file.ID)
	if err == nil {
		t.Fatal("expected error")
	}

	var pErr *ProviderError
	if !errors.As(err, &pErr) {
		t.Errorf("expected ProviderError, got %T", err)
	}

	if got := env.fileStatus(t, file.ID); got != model.StatusTranscribed {
		t.Errorf("expected status reverted to transcribed, got %s", got)
	}

	if got := env.pub.topicMessages(queue.TopicAnalyzeFailed); len(got) != 1 {
		t.Errorf("expected 1 analyze.failed event, got %d", len(got))
	}
}

// TestAnalyze_MissingTranscription 测试缺少转写行.
func TestAnalyze_MissingTranscription(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusTranscribed)

	_, err := env.svc.Analyze(context.Background(), file.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestAnalyze_EmptyTranscript 测试空转写文本.
func TestAnalyze_EmptyTranscript(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusTranscribed)
	env.seedTranscription(t, file.ID, "   ")

	_, err := env.svc.Analyze(context.Background(), file.ID)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

// TestAnalyze_TruncatesTranscript 测试超长转写文本按上限截断后提交模型.
func TestAnalyze_TruncatesTranscript(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusTranscribed)
	env.seedTranscription(t, file.ID, strings.Repeat("a", maxAnalysisTranscriptChars+1000))

	env.chat.completeOut = validAnalysisJSON

	if _, err := env.svc.Analyze(context.Background(), file.ID); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// 提示词 = 固定指令 + 截断后的转写
	if len(env.chat.lastUser) > len(analysisPrompt)+maxAnalysisTranscriptChars+64 {
		t.Errorf("transcript was not truncated, prompt length %d", len(env.chat.lastUser))
	}
}

// TestAnalyze_StageLockSkips 测试阶段锁占用时跳过而不调用模型.
func TestAnalyze_StageLockSkips(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusTranscribed)
	env.seedTranscription(t, file.ID, "transcript text")

	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatalf("new memory kv: %v", err)
	}

	env.svc.kv = store

	if err := store.Set(context.Background(), "analyze:"+file.ID, []byte("1"), analyzeLockTTL); err != nil {
		t.Fatalf("set lock: %v", err)
	}

	env.chat.completeOut = validAnalysisJSON

	resp, err := env.svc.Analyze(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !resp.Success {
		t.Error("expected success (skip) response")
	}

	// 没有调用模型，也没有写分析行
	var count int64
	_ = env.db.Model(&model.Analysis{}).Where("file_id = ?", file.ID).Count(&count).Error

	if count != 0 {
		t.Errorf("expected no analysis row when lock held, got %d", count)
	}
}
