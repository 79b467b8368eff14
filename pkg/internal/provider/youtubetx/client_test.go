package youtubetx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yeisme/voxvault/pkg/configs"
)

func testConfig(baseURL string) configs.YouTubeTranscriptConfig {
	return configs.YouTubeTranscriptConfig{Token: "test-token", BaseURL: baseURL}
}

// TestFetch 测试字幕段落合并.
func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Basic test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "abc123def45") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Write([]byte(`[{"id":"abc123def45","title":"My Talk","tracks":[{"language":"en",` +
			`"transcript":[{"text":"hello"},{"text":"world"},{"text":""}]}]}]`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))

	vt, ok, err := c.Fetch(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if !ok {
		t.Fatal("expected transcript to be available")
	}

	if vt.Text != "hello world" {
		t.Errorf("unexpected text: %q", vt.Text)
	}

	if vt.Title != "My Talk" {
		t.Errorf("unexpected title: %q", vt.Title)
	}

	if vt.Language != "en" {
		t.Errorf("unexpected language: %q", vt.Language)
	}
}

// TestFetch_NoTranscript 测试无可用字幕时 ok=false 且无错误.
func TestFetch_NoTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"abc123def45","title":"Silent","tracks":[]}]`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))

	_, ok, err := c.Fetch(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if ok {
		t.Error("expected ok=false for missing transcript")
	}
}

// TestFetch_UpstreamError 测试上游非 2xx.
func TestFetch_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))

	_, _, err := c.Fetch(context.Background(), "abc123def45")
	if err == nil {
		t.Fatal("expected error")
	}
}
