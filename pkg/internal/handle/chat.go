package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/voxvault/pkg/internal/service"
	"github.com/yeisme/voxvault/pkg/internal/types"
	"github.com/yeisme/voxvault/pkg/log"
)

// ChatStream 基于转写文本的流式对话，分块 text/plain 输出.
//
//	@Summary		流式对话
//	@Description	以文件转写文本与分析摘要为上下文进行对话，模型增量以 chunked text/plain 返回
//	@Tags			对话
//	@Accept			json
//	@Produce		plain
//	@Param			request	body		types.ChatRequest	true	"对话请求"
//	@Success		200		{string}	string				"模型回复（流式）"
//	@Failure		400		{object}	map[string]string	"请求参数错误"
//	@Failure		401		{object}	map[string]string	"用户无效"
//	@Failure		404		{object}	map[string]string	"文件或转写不存在"
//	@Failure		500		{object}	map[string]string	"对话失败"
//	@Router			/api/v1/chat [post]
func ChatStream(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid chat request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		log.Logger().Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewPipelineService(c.Request.Context())

	// 响应头在第一个增量前写出；此后发生的错误只能中断连接
	streamStarted := false

	err = svc.ChatStream(c.Request.Context(), user, req.FileID, req.Messages, func(delta string) error {
		if !streamStarted {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Status(http.StatusOK)

			streamStarted = true
		}

		if _, err := c.Writer.WriteString(delta); err != nil {
			return err
		}

		c.Writer.Flush()

		return nil
	})
	if err != nil {
		if streamStarted {
			log.Logger().Error().Err(err).Msg("chat stream aborted mid-response")
			c.Abort()

			return
		}

		abortWithServiceError(c, err, "chat failed")

		return
	}

	if !streamStarted {
		// 模型没有任何输出，返回空体
		c.Status(http.StatusOK)
	}
}

// ChatHistory 返回文件的聊天记录.
//
//	@Summary		聊天记录
//	@Description	返回指定文件的全部聊天消息，按时间升序
//	@Tags			对话
//	@Produce		json
//	@Param			file_id	query		string						true	"文件 ID"
//	@Success		200		{object}	types.ChatHistoryResponse	"聊天记录"
//	@Failure		400		{object}	map[string]string			"缺少 file_id"
//	@Failure		401		{object}	map[string]string			"用户无效"
//	@Failure		404		{object}	map[string]string			"文件不存在"
//	@Router			/api/v1/chat [get]
func ChatHistory(c *gin.Context) {
	fileID := c.Query("file_id")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_id is required"})
		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		log.Logger().Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewPipelineService(c.Request.Context())

	resp, err := svc.ChatHistory(c.Request.Context(), user, fileID)
	if err != nil {
		abortWithServiceError(c, err, "chat history failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}
