// Package anthropic 封装 Anthropic messages API 的 HTTP 客户端，
// 支持一次性补全与 SSE 流式输出.
package anthropic

import (
	"bufio"
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

const (
	apiVersion = "2023-06-01"

	// 流式响应没有整体超时，依赖调用方 context；一次性补全给宽松上限.
	defaultCompleteTimeout = 5 * time.Minute

	// SSE 单行缓冲上限，模型输出的 delta 较小，1MB 足够.
	maxSSELineSize = 1 << 20
)

// MessageParam 对话消息.
type MessageParam struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesRequest messages API 请求体.
type messagesRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	System    string         `json:"system,omitempty"`
	Messages  []MessageParam `json:"messages"`
	Stream    bool           `json:"stream,omitempty"`
}

// contentBlock 响应内容块.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// messagesResponse messages API 响应体.
type messagesResponse struct {
	ID      string         `json:"id"`
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// streamEvent SSE 事件负载，只关心文本增量.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *apiError `json:"error,omitempty"`
}

// Client Anthropic HTTP 客户端.
type Client struct {
	cfg        configs.AnthropicConfig
	httpClient *http.Client
}

// NewClient 创建客户端.
func NewClient(cfg configs.AnthropicConfig) *Client {
	return &Client{
		cfg: cfg,
		// 流式请求由 context 控制生命周期，这里不设 Timeout
		httpClient: &http.Client{},
	}
}

// Complete 发送对话并返回完整文本（拼接所有 text 内容块）.
func (c *Client) Complete(ctx context.Context, system string, msgs []MessageParam) (string, error) {
	start := time.Now()
	defer func() {
		metrics.ProviderDuration.WithLabelValues("anthropic", "complete").Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, defaultCompleteTimeout)
	defer cancel()

	resp, err := c.send(ctx, system, msgs, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("anthropic: unexpected status %d: %s", resp.StatusCode, data)
	}

	var mr messagesResponse
	if err := sonic.Unmarshal(data, &mr); err != nil {
		return "", fmt.Errorf("decode messages response: %w", err)
	}

	if mr.Error != nil {
		return "", fmt.Errorf("anthropic: %s: %s", mr.Error.Type, mr.Error.Message)
	}

	var sb strings.Builder
	for _, block := range mr.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return sb.String(), nil
}

// Stream 以流式方式发送对话，每个文本增量回调一次 fn.
// fn 返回错误时中止流并透传该错误.
func (c *Client) Stream(ctx context.Context, system string, msgs []MessageParam, fn func(delta string) error) error {
	start := time.Now()
	defer func() {
		metrics.ProviderDuration.WithLabelValues("anthropic", "stream").Observe(time.Since(start).Seconds())
	}()

	resp, err := c.send(ctx, system, msgs, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("anthropic: unexpected status %d: %s", resp.StatusCode, data)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			break
		}

		var ev streamEvent
		if err := sonic.UnmarshalString(payload, &ev); err != nil {
			// 忽略无法解析的事件（ping 等）
			continue
		}

		switch ev.Type {
		case "content_block_delta":
			if ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
				if err := fn(ev.Delta.Text); err != nil {
					return err
				}
			}
		case "error":
			if ev.Error != nil {
				return fmt.Errorf("anthropic: %s: %s", ev.Error.Type, ev.Error.Message)
			}

			return fmt.Errorf("anthropic: stream error")
		case "message_stop":
			return nil
		}
	}

	return scanner.Err()
}

// send 构造并发出 messages 请求.
func (c *Client) send(ctx context.Context, system string, msgs []MessageParam, stream bool) (*http.Response, error) {
	body, err := sonic.Marshal(messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    system,
		Messages:  msgs,
		Stream:    stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal messages request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	return c.httpClient.Do(req)
}
