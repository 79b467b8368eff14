package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/internal/provider/youtubetx"
	"github.com/yeisme/voxvault/pkg/queue"
)

// TestExtractYouTubeVideoID 测试受支持的链接格式与拒绝场景.
func TestExtractYouTubeVideoID(t *testing.T) {
	cases := []struct {
		url    string
		wantID string
		wantOK bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", true},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "", false},
		{"https://www.youtube.com/watch?v=short", "", false},
		{"not a url", "", false},
	}

	for _, tc := range cases {
		id, ok := ExtractYouTubeVideoID(tc.url)
		if ok != tc.wantOK || id != tc.wantID {
			t.Errorf("ExtractYouTubeVideoID(%q) = (%q, %v), want (%q, %v)",
				tc.url, id, ok, tc.wantID, tc.wantOK)
		}
	}
}

// TestSafeTitle 测试标题转文件系统安全名称.
func TestSafeTitle(t *testing.T) {
	if got := safeTitle("My Great Talk! (2024)"); got != "my_great_talk___2024_" {
		t.Errorf("unexpected safe title: %q", got)
	}
}

// TestProcessYouTube_Success 测试字幕摄取成功：对象入库、直接 transcribed、触发分析.
func TestProcessYouTube_Success(t *testing.T) {
	env := newTestEnv(t)

	env.yt.ok = true
	env.yt.result = &youtubetx.VideoTranscript{
		Title:    "Go Talk",
		Language: "en",
		Text:     "hello from youtube",
	}

	resp, err := env.svc.ProcessYouTube(context.Background(), "alice", "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("ProcessYouTube failed: %v", err)
	}

	if !resp.Success || resp.FileID == "" {
		t.Errorf("unexpected response: %+v", resp)
	}

	var file model.File
	if err := env.db.First(&file, "id = ?", resp.FileID).Error; err != nil {
		t.Fatalf("file row missing: %v", err)
	}

	// 字幕即转写结果，跳过音频转写步骤
	if file.Status != model.StatusTranscribed {
		t.Errorf("expected status transcribed, got %s", file.Status)
	}

	if file.SourceType != model.SourceYouTube {
		t.Errorf("expected source youtube, got %s", file.SourceType)
	}

	if !env.store.has(file.ObjectKey) {
		t.Errorf("transcript object not stored at %s", file.ObjectKey)
	}

	var tr model.Transcription
	if err := env.db.First(&tr, "file_id = ?", file.ID).Error; err != nil {
		t.Fatalf("transcription row missing: %v", err)
	}

	if tr.Service != "youtube-transcript-api" || tr.Language != "en" {
		t.Errorf("unexpected transcription: service=%s language=%s", tr.Service, tr.Language)
	}

	if got := env.pub.topicMessages(queue.TopicAnalyzeRequested); len(got) != 1 {
		t.Errorf("expected 1 analyze.requested event, got %d", len(got))
	}
}

// TestProcessYouTube_InvalidURL 测试非法链接在任何网络调用前被拒绝.
func TestProcessYouTube_InvalidURL(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ProcessYouTube(context.Background(), "alice", "https://example.com/video")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	if env.yt.called {
		t.Error("transcript provider must not be called for invalid urls")
	}
}

// TestProcessYouTube_NoTranscript 测试视频无可用字幕.
func TestProcessYouTube_NoTranscript(t *testing.T) {
	env := newTestEnv(t)
	env.yt.ok = false

	_, err := env.svc.ProcessYouTube(context.Background(), "alice", "https://youtu.be/dQw4w9WgXcQ")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestProcessYouTube_ProviderError 测试抓取失败返回 ProviderError.
func TestProcessYouTube_ProviderError(t *testing.T) {
	env := newTestEnv(t)
	env.yt.err = fmt.Errorf("upstream 502")

	_, err := env.svc.ProcessYouTube(context.Background(), "alice", "https://youtu.be/dQw4w9WgXcQ")

	var pErr *ProviderError
	if !errors.As(err, &pErr) {
		t.Errorf("expected ProviderError, got %T: %v", err, err)
	}
}
