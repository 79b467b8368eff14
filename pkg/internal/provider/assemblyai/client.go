// Package assemblyai 封装 AssemblyAI 语音转写 API 的 HTTP 客户端.
// 流程为提交-轮询：POST /v2/transcript 创建任务，随后按固定间隔
// GET /v2/transcript/{id} 直到 completed 或 error.
package assemblyai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"

	"github.com/yeisme/voxvault/pkg/configs"
	nlog "github.com/yeisme/voxvault/pkg/log"
	"github.com/yeisme/voxvault/pkg/metrics"
)

// 任务状态.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

const defaultHTTPTimeout = 30 * time.Second

// Word 转写词条，只用于统计词数.
type Word struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Transcript 转写任务的响应.
type Transcript struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	Text          string  `json:"text"`
	Confidence    float64 `json:"confidence"`
	LanguageCode  string  `json:"language_code"`
	AudioDuration float64 `json:"audio_duration"`
	Words         []Word  `json:"words"`
	Error         string  `json:"error"`
}

// submitRequest 创建任务的请求体.
type submitRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
}

// Client AssemblyAI HTTP 客户端.
type Client struct {
	cfg        configs.AssemblyAIConfig
	httpClient *http.Client
}

// NewClient 创建客户端.
func NewClient(cfg configs.AssemblyAIConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Transcribe 提交音频 URL 并阻塞等待转写完成.
// 任务以 error 状态结束时返回带提供商错误信息的 error.
func (c *Client) Transcribe(ctx context.Context, audioURL string) (*Transcript, error) {
	start := time.Now()

	id, err := c.submit(ctx, audioURL)
	if err != nil {
		return nil, err
	}

	nlog.Logger().Debug().Str("transcript_id", id).Msg("assemblyai job submitted")

	tr, err := c.poll(ctx, id)

	metrics.ProviderDuration.WithLabelValues("assemblyai", "transcribe").Observe(time.Since(start).Seconds())

	return tr, err
}

// submit 创建转写任务，返回任务 ID.
func (c *Client) submit(ctx context.Context, audioURL string) (string, error) {
	body, err := sonic.Marshal(submitRequest{AudioURL: audioURL, SpeakerLabels: true})
	if err != nil {
		return "", fmt.Errorf("marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var tr Transcript
	if err := c.do(req, &tr); err != nil {
		return "", fmt.Errorf("submit transcript: %w", err)
	}

	if tr.ID == "" {
		return "", fmt.Errorf("submit transcript: empty transcript id")
	}

	return tr.ID, nil
}

// poll 按固定间隔轮询任务直到终态，整体受 PollTimeout 约束.
func (c *Client) poll(ctx context.Context, id string) (*Transcript, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.cfg.GetPollTimeout())
	defer cancel()

	var result *Transcript

	operation := func() error {
		req, err := http.NewRequestWithContext(pollCtx, http.MethodGet, c.cfg.BaseURL+"/v2/transcript/"+id, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		req.Header.Set("Authorization", c.cfg.APIKey)

		var tr Transcript
		if err := c.do(req, &tr); err != nil {
			// 瞬时网络错误重试
			return err
		}

		switch tr.Status {
		case StatusCompleted:
			result = &tr
			return nil
		case StatusError:
			return backoff.Permanent(fmt.Errorf("transcription failed: %s", tr.Error))
		default:
			return fmt.Errorf("transcript %s still %s", id, tr.Status)
		}
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(c.cfg.GetPollInterval()), pollCtx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}

	return result, nil
}

// do 执行请求并解析 JSON 响应，非 2xx 返回错误.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("assemblyai: unexpected status %d: %s", resp.StatusCode, data)
	}

	return sonic.Unmarshal(data, out)
}
