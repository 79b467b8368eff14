package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/internal/provider/anthropic"
	"github.com/yeisme/voxvault/pkg/internal/types"
	nlog "github.com/yeisme/voxvault/pkg/log"
	"github.com/yeisme/voxvault/pkg/metrics"
	"github.com/yeisme/voxvault/pkg/queue"
)

const (
	analysisServiceName = "claude"

	// 提交给模型的转写文本上限（按字符截断）
	maxAnalysisTranscriptChars = 150_000

	// 降级记录中保留的原始输出预览长度
	degradedRawPreviewChars = 500

	// 阶段锁 TTL，超过视为上一次分析已死
	analyzeLockTTL = 10 * time.Minute
)

// analysisPrompt 要求模型只输出符合固定 schema 的 JSON.
const analysisPrompt = `You are an expert content analyst. Analyze the transcript below and respond with ONLY a valid JSON object, no markdown fences and no commentary, using exactly this schema:
{
  "summary": "concise summary of the content",
  "key_points": ["list of the main points"],
  "insights": "deeper observations about the content",
  "time_assessment": "whether the content respects the audience's time",
  "target_audience": "who this content is for",
  "rewrite_suggestions": ["concrete suggestions to improve the content"],
  "topics": ["main topics covered"],
  "sentiment": "overall sentiment",
  "action_items": ["actionable takeaways"]
}`

// analysisOutput 模型输出的结构化分析.
type analysisOutput struct {
	Summary            string   `json:"summary"`
	KeyPoints          []string `json:"key_points"`
	Insights           string   `json:"insights"`
	TimeAssessment     string   `json:"time_assessment"`
	TargetAudience     string   `json:"target_audience"`
	RewriteSuggestions []string `json:"rewrite_suggestions"`
	Topics             []string `json:"topics"`
	Sentiment          string   `json:"sentiment"`
	ActionItems        []string `json:"action_items"`
}

// Analyze 对已转写文件生成结构化分析：
// 调用模型 → 解析 JSON（失败则写降级记录）→ 先删后插分析行 →
// 状态置 completed。模型调用或落库失败时状态回退 transcribed 并上抛.
func (s *PipelineService) Analyze(ctx context.Context, fileID string) (*types.AnalyzeResponse, error) {
	var file model.File
	if err := s.db.WithContext(ctx).First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("file %s: %w", fileID, ErrNotFound)
		}

		return nil, fmt.Errorf("load file %s: %w", fileID, err)
	}

	// 阶段锁：同一文件的并发分析直接跳过，避免重复调用模型
	release, acquired := s.acquireAnalyzeLock(ctx, fileID)
	if !acquired {
		nlog.Logger().Info().Str("file_id", fileID).Msg("analysis already in progress, skipping")
		return &types.AnalyzeResponse{Success: true}, nil
	}
	defer release()

	var tr model.Transcription
	if err := s.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("id asc").
		First(&tr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transcription for file %s: %w", fileID, ErrNotFound)
		}

		return nil, fmt.Errorf("load transcription: %w", err)
	}

	if strings.TrimSpace(tr.TranscriptText) == "" {
		return nil, fmt.Errorf("file %s has empty transcript: %w", fileID, ErrInvalidState)
	}

	excerpt := truncateChars(tr.TranscriptText, maxAnalysisTranscriptChars)

	raw, err := s.chat.Complete(ctx, "", []anthropic.MessageParam{{
		Role:    model.RoleUser,
		Content: analysisPrompt + "\n\nTranscript:\n" + excerpt,
	}})
	if err != nil {
		return nil, s.failAnalysis(ctx, &file, newProviderError(analysisServiceName, "analyze", err))
	}

	out, degraded := parseAnalysisOutput(raw)
	if degraded {
		nlog.Logger().Warn().Str("file_id", fileID).Msg("model output was not valid JSON, storing degraded analysis")
	}

	analysis := analysisToModel(fileID, &out)

	// 重新分析采用先删后插，保证每个文件只有一条分析
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", fileID).Delete(&model.Analysis{}).Error; err != nil {
			return err
		}

		if err := tx.Create(analysis).Error; err != nil {
			return err
		}

		return tx.Model(&model.File{}).Where("id = ?", fileID).
			Update("status", model.StatusCompleted).Error
	})
	if err != nil {
		return nil, s.failAnalysis(ctx, &file, fmt.Errorf("save analysis: %w", err))
	}

	file.Status = model.StatusCompleted

	metrics.PipelineStageCounter.WithLabelValues("analyze", "success").Inc()

	if s.pub != nil {
		_ = queue.PublishAnalyzeCompleted(s.pub, queue.AnalyzeCompletedPayload{
			File:     fileRef(&file),
			Degraded: degraded,
		})
	}

	// 分析变化后作废对话上下文缓存
	if s.cache != nil {
		_ = s.cache.Delete(ctx, chatContextCacheKey(fileID))
	}

	return &types.AnalyzeResponse{Success: true, Degraded: degraded}, nil
}

// failAnalysis 分析失败：状态回退 transcribed，记录指标与事件，返回原错误.
func (s *PipelineService) failAnalysis(ctx context.Context, file *model.File, cause error) error {
	metrics.PipelineStageCounter.WithLabelValues("analyze", "failure").Inc()

	if err := s.setStatus(ctx, file, model.StatusTranscribed); err != nil {
		nlog.Logger().Error().Err(err).Str("file_id", file.ID).Msg("revert status after analysis failure")
	}

	if s.pub != nil {
		_ = queue.PublishAnalyzeFailed(s.pub, queue.AnalyzeFailedPayload{
			File:  fileRef(file),
			Error: cause.Error(),
		})
	}

	return cause
}

// acquireAnalyzeLock 尝试获取阶段锁，返回释放函数与是否获取成功。
// KV 不可用时退化为无锁（尽力而为的防重入）.
func (s *PipelineService) acquireAnalyzeLock(ctx context.Context, fileID string) (func(), bool) {
	if s.kv == nil {
		return func() {}, true
	}

	key := "analyze:" + fileID

	if exists, err := s.kv.Exists(ctx, key); err == nil && exists {
		return nil, false
	}

	if err := s.kv.Set(ctx, key, []byte("1"), analyzeLockTTL); err != nil {
		// 锁失败不阻塞分析
		nlog.Logger().Warn().Err(err).Str("file_id", fileID).Msg("acquire analyze lock failed")
		return func() {}, true
	}

	return func() {
		if err := s.kv.Delete(ctx, key); err != nil {
			nlog.Logger().Warn().Err(err).Str("file_id", fileID).Msg("release analyze lock failed")
		}
	}, true
}

// parseAnalysisOutput 解析模型输出。依次尝试整体解析、首个 { 到
// 末个 } 的片段解析；都失败时返回保留原始输出的降级记录.
func parseAnalysisOutput(raw string) (analysisOutput, bool) {
	trimmed := strings.TrimSpace(raw)

	var out analysisOutput
	if err := sonic.UnmarshalString(trimmed, &out); err == nil {
		return out, false
	}

	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			if err := sonic.UnmarshalString(trimmed[start:end+1], &out); err == nil {
				return out, false
			}
		}
	}

	return analysisOutput{
		Summary:            trimmed,
		KeyPoints:          []string{"Could not parse structured analysis"},
		Insights:           "Raw output: " + truncateChars(trimmed, degradedRawPreviewChars),
		TimeAssessment:     "N/A",
		TargetAudience:     "N/A",
		RewriteSuggestions: []string{},
		Topics:             []string{},
		Sentiment:          "N/A",
		ActionItems:        []string{},
	}, true
}

// analysisToModel 把模型输出转换为数据库行，列表字段序列化为 JSON 字符串.
func analysisToModel(fileID string, out *analysisOutput) *model.Analysis {
	return &model.Analysis{
		FileID:                 fileID,
		Summary:                out.Summary,
		KeyPointsJSON:          encodeStringList(out.KeyPoints),
		Insights:               out.Insights,
		TimeAssessment:         out.TimeAssessment,
		TargetAudience:         out.TargetAudience,
		RewriteSuggestionsJSON: encodeStringList(out.RewriteSuggestions),
		TopicsJSON:             encodeStringList(out.Topics),
		Sentiment:              out.Sentiment,
		ActionItemsJSON:        encodeStringList(out.ActionItems),
		Service:                analysisServiceName,
	}
}

// encodeStringList 序列化字符串列表，nil 视为空列表.
func encodeStringList(list []string) string {
	if list == nil {
		list = []string{}
	}

	data, err := sonic.Marshal(list)
	if err != nil {
		return "[]"
	}

	return string(data)
}

// decodeStringList 反序列化 JSON 列，失败返回空列表.
func decodeStringList(data string) []string {
	if data == "" {
		return []string{}
	}

	var list []string
	if err := sonic.UnmarshalString(data, &list); err != nil || list == nil {
		return []string{}
	}

	return list
}

// truncateChars 按字符（rune）截断字符串，避免截断多字节序列.
func truncateChars(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}
