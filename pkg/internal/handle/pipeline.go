package handle

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/voxvault/pkg/configs"
	"github.com/yeisme/voxvault/pkg/internal/service"
	"github.com/yeisme/voxvault/pkg/internal/types"
	"github.com/yeisme/voxvault/pkg/log"
	"github.com/yeisme/voxvault/pkg/rule"
)

// TranscribeFile 对指定文件同步执行语音转写.
//
//	@Summary		转写媒体文件
//	@Description	为指定文件生成预签名音频 URL，提交语音转写服务并等待完成，成功后异步触发结构化分析
//	@Tags			处理管线
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.TranscribeRequest		true	"转写请求"
//	@Success		200		{object}	types.TranscribeResponse	"转写结果"
//	@Failure		400		{object}	map[string]string			"请求参数错误"
//	@Failure		404		{object}	map[string]string			"文件不存在"
//	@Failure		500		{object}	map[string]string			"转写失败"
//	@Router			/api/v1/pipeline/transcribe [post]
func TranscribeFile(c *gin.Context) {
	var req types.TranscribeRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid transcribe request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewPipelineService(c.Request.Context())

	resp, err := svc.Transcribe(c.Request.Context(), req.FileID)
	if err != nil {
		abortWithServiceError(c, err, "transcription failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AnalyzeFile 对已转写文件生成结构化分析.
// 携带正确 X-Internal-Secret 头的请求跳过用户校验，供事件消费者与
// 服务间调用使用.
//
//	@Summary		分析已转写文件
//	@Description	基于转写文本调用模型生成结构化分析（摘要、要点、洞察等），输出无法解析时写入降级记录
//	@Tags			处理管线
//	@Accept			json
//	@Produce		json
//	@Param			request				body		types.AnalyzeRequest	true	"分析请求"
//	@Param			X-Internal-Secret	header		string					false	"内部调用共享密钥"
//	@Success		200					{object}	types.AnalyzeResponse	"分析结果"
//	@Failure		400					{object}	map[string]string		"请求参数错误"
//	@Failure		401					{object}	map[string]string		"用户无效"
//	@Failure		404					{object}	map[string]string		"文件或转写不存在"
//	@Failure		500					{object}	map[string]string		"分析失败"
//	@Router			/api/v1/pipeline/analyze [post]
func AnalyzeFile(c *gin.Context) {
	var req types.AnalyzeRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid analyze request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if !isInternalCall(c) {
		if user, err := checkUser(c); user == "" || err != nil {
			log.Logger().Warn().Err(err).Msg("missing or invalid user")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})

			return
		}
	}

	svc := service.NewPipelineService(c.Request.Context())

	resp, err := svc.Analyze(c.Request.Context(), req.FileID)
	if err != nil {
		abortWithServiceError(c, err, "analysis failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ProcessYouTube 摄取 YouTube 视频字幕并触发分析.
//
//	@Summary		摄取YouTube字幕
//	@Description	校验视频链接、抓取字幕文本、建档并直接进入已转写状态，随后异步触发分析
//	@Tags			处理管线
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.YouTubeProcessRequest		true	"YouTube 摄取请求"
//	@Success		200		{object}	types.YouTubeProcessResponse	"摄取结果"
//	@Failure		400		{object}	map[string]string				"链接格式不支持"
//	@Failure		401		{object}	map[string]string				"用户无效"
//	@Failure		404		{object}	map[string]string				"视频无可用字幕"
//	@Failure		500		{object}	map[string]string				"字幕抓取失败"
//	@Router			/api/v1/pipeline/youtube [post]
func ProcessYouTube(c *gin.Context) {
	var req types.YouTubeProcessRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid youtube request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		log.Logger().Warn().Err(err).Msg("unsupported youtube url")
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported youtube url"})

		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		log.Logger().Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewPipelineService(c.Request.Context())

	resp, err := svc.ProcessYouTube(c.Request.Context(), user, req.URL)
	if err != nil {
		abortWithServiceError(c, err, "youtube ingestion failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// isInternalCall 校验内部调用共享密钥，恒定时间比较.
func isInternalCall(c *gin.Context) bool {
	secret := configs.GetConfig().Providers.InternalSecret
	if secret == "" {
		return false
	}

	header := c.GetHeader("X-Internal-Secret")

	return subtle.ConstantTimeCompare([]byte(header), []byte(secret)) == 1
}
