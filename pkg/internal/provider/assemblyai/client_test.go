package assemblyai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yeisme/voxvault/pkg/configs"
)

func testConfig(baseURL string) configs.AssemblyAIConfig {
	return configs.AssemblyAIConfig{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		PollInterval:    1,
		PollTimeout:     10,
		SignedURLExpiry: 3600,
	}
}

// TestTranscribe_Completed 测试提交后轮询直到完成.
func TestTranscribe_Completed(t *testing.T) {
	var polls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/transcript":
			w.Write([]byte(`{"id":"tr-1","status":"queued"}`))
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v2/transcript/"):
			// 第一次轮询返回 processing，第二次 completed
			if atomic.AddInt32(&polls, 1) == 1 {
				w.Write([]byte(`{"id":"tr-1","status":"processing"}`))
			} else {
				w.Write([]byte(`{"id":"tr-1","status":"completed","text":"hello world","confidence":0.93,` +
					`"language_code":"en_us","audio_duration":12.5,"words":[{"text":"hello"},{"text":"world"}]}`))
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))

	tr, err := c.Transcribe(context.Background(), "https://example.com/audio.mp3")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if tr.Text != "hello world" {
		t.Errorf("unexpected text: %q", tr.Text)
	}

	if tr.LanguageCode != "en_us" {
		t.Errorf("unexpected language: %q", tr.LanguageCode)
	}

	if len(tr.Words) != 2 {
		t.Errorf("expected 2 words, got %d", len(tr.Words))
	}

	if atomic.LoadInt32(&polls) < 2 {
		t.Errorf("expected at least 2 polls, got %d", polls)
	}
}

// TestTranscribe_ProviderError 测试任务以 error 状态结束.
func TestTranscribe_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"id":"tr-2","status":"queued"}`))
			return
		}

		w.Write([]byte(`{"id":"tr-2","status":"error","error":"audio unreachable"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))

	_, err := c.Transcribe(context.Background(), "https://example.com/bad.mp3")
	if err == nil {
		t.Fatal("expected error")
	}

	if !strings.Contains(err.Error(), "audio unreachable") {
		t.Errorf("expected provider error message, got: %v", err)
	}
}

// TestTranscribe_SubmitRejected 测试提交被拒绝时不进入轮询.
func TestTranscribe_SubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad api key"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))

	_, err := c.Transcribe(context.Background(), "https://example.com/audio.mp3")
	if err == nil {
		t.Fatal("expected error")
	}
}
