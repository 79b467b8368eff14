// Package youtubetx 封装 youtube-transcript.io 的字幕抓取 API.
package youtubetx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/voxvault/pkg/configs"
	"github.com/yeisme/voxvault/pkg/metrics"
)

const defaultHTTPTimeout = 60 * time.Second

// segment 单条字幕.
type segment struct {
	Text  string `json:"text"`
	Start string `json:"start"`
	Dur   string `json:"dur"`
}

// track 单个语言轨道.
type track struct {
	Language   string    `json:"language"`
	Transcript []segment `json:"transcript"`
}

// item 单个视频的字幕结果.
type item struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Tracks []track `json:"tracks"`
}

// VideoTranscript 抓取结果：标题 + 合并后的完整字幕文本.
type VideoTranscript struct {
	VideoID  string
	Title    string
	Language string
	Text     string
}

// Client youtube-transcript.io HTTP 客户端.
type Client struct {
	cfg        configs.YouTubeTranscriptConfig
	httpClient *http.Client
}

// NewClient 创建客户端.
func NewClient(cfg configs.YouTubeTranscriptConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Fetch 抓取单个视频的字幕.
// 返回值 ok=false 表示视频存在但没有可用字幕文本.
func (c *Client) Fetch(ctx context.Context, videoID string) (*VideoTranscript, bool, error) {
	start := time.Now()
	defer func() {
		metrics.ProviderDuration.WithLabelValues("youtube_transcript", "fetch").Observe(time.Since(start).Seconds())
	}()

	body, err := sonic.Marshal(map[string][]string{"ids": {videoID}})
	if err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/transcripts", bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}

	req.Header.Set("Authorization", "Basic "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("youtube-transcript: unexpected status %d: %s", resp.StatusCode, data)
	}

	var items []item
	if err := sonic.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("decode transcripts response: %w", err)
	}

	if len(items) == 0 {
		return nil, false, fmt.Errorf("youtube-transcript: empty response for video %s", videoID)
	}

	first := items[0]
	if len(first.Tracks) == 0 || len(first.Tracks[0].Transcript) == 0 {
		return nil, false, nil
	}

	tr := first.Tracks[0]
	parts := make([]string, 0, len(tr.Transcript))

	for _, seg := range tr.Transcript {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}

	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return nil, false, nil
	}

	lang := tr.Language
	if lang == "" {
		lang = "en"
	}

	return &VideoTranscript{
		VideoID:  videoID,
		Title:    first.Title,
		Language: lang,
		Text:     text,
	}, true, nil
}
