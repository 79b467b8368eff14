package handle_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/voxvault/pkg/internal/handle"
)

// TestMissingUserUnauthorized 验证缺少用户身份时统一返回 401.
// Release 模式下 checkUser 不再注入测试默认用户，身份缺失在进入业务逻辑前拦截.
func TestMissingUserUnauthorized(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	e := gin.New()
	e.POST("/chat", handle.ChatStream)
	e.GET("/chat", handle.ChatHistory)
	e.GET("/files", handle.ListFiles)
	e.POST("/pipeline/youtube", handle.ProcessYouTube)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"chat stream", http.MethodPost, "/chat", `{"file_id":"f1","messages":[{"role":"user","content":"hi"}]}`},
		{"chat history", http.MethodGet, "/chat?file_id=f1", ""},
		{"files list", http.MethodGet, "/files", ""},
		{"youtube ingest", http.MethodPost, "/pipeline/youtube", `{"url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}

			w := httptest.NewRecorder()
			e.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401 without user identity, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}
