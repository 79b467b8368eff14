package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/voxvault/pkg/internal/service"
	"github.com/yeisme/voxvault/pkg/log"
)

// UploadFile 处理媒体文件上传：对象入库、建档并在请求内同步转写.
//
//	@Summary		上传媒体文件
//	@Description	multipart 上传单个音视频文件，存储后同步执行语音转写，分析异步触发
//	@Tags			文件
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file						true	"上传的媒体文件"
//	@Success		200		{object}	types.UploadFileResponse	"上传与转写结果"
//	@Failure		400		{object}	map[string]string			"请求参数错误"
//	@Failure		401		{object}	map[string]string			"用户无效"
//	@Failure		500		{object}	map[string]string			"上传或转写失败"
//	@Router			/api/v1/files/upload [post]
func UploadFile(c *gin.Context) {
	l := log.Logger()

	file, err := c.FormFile("file")
	if err != nil {
		l.Warn().Err(err).Msg("failed to get uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})

		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})

		return
	}

	src, err := file.Open()
	if err != nil {
		l.Error().Err(err).Msg("failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process file"})

		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")

	svc := service.NewPipelineService(c.Request.Context())

	resp, err := svc.Upload(c.Request.Context(), user, file.Filename, contentType, file.Size, src)
	if err != nil {
		abortWithServiceError(c, err, "upload failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListFiles 返回当前用户的文件列表.
//
//	@Summary		文件列表
//	@Description	返回当前用户的全部文件，按创建时间倒序
//	@Tags			文件
//	@Produce		json
//	@Success		200	{object}	types.ListFilesResponse	"文件列表"
//	@Failure		401	{object}	map[string]string		"用户无效"
//	@Router			/api/v1/files [get]
func ListFiles(c *gin.Context) {
	user, err := checkUser(c)
	if user == "" || err != nil {
		log.Logger().Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewPipelineService(c.Request.Context())

	resp, err := svc.ListFiles(c.Request.Context(), user)
	if err != nil {
		abortWithServiceError(c, err, "list files failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetFile 返回单个文件详情，附带转写与分析.
//
//	@Summary		文件详情
//	@Description	返回文件元数据、转写文本与结构化分析（若已生成）
//	@Tags			文件
//	@Produce		json
//	@Param			id	path		string						true	"文件 ID"
//	@Success		200	{object}	types.FileDetailResponse	"文件详情"
//	@Failure		401	{object}	map[string]string			"用户无效"
//	@Failure		403	{object}	map[string]string			"非本人文件"
//	@Failure		404	{object}	map[string]string			"文件不存在"
//	@Router			/api/v1/files/{id} [get]
func GetFile(c *gin.Context) {
	user, err := checkUser(c)
	if user == "" || err != nil {
		log.Logger().Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewPipelineService(c.Request.Context())

	resp, err := svc.GetFile(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err, "get file failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteFile 删除文件及其衍生数据.
//
//	@Summary		删除文件
//	@Description	删除对象（尽力而为）及文件、转写、分析、聊天记录数据库行
//	@Tags			文件
//	@Produce		json
//	@Param			id	path		string						true	"文件 ID"
//	@Success		200	{object}	types.DeleteFileResponse	"删除结果"
//	@Failure		401	{object}	map[string]string			"用户无效"
//	@Failure		403	{object}	map[string]string			"非本人文件"
//	@Failure		404	{object}	map[string]string			"文件不存在"
//	@Router			/api/v1/files/{id} [delete]
func DeleteFile(c *gin.Context) {
	user, err := checkUser(c)
	if user == "" || err != nil {
		log.Logger().Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewPipelineService(c.Request.Context())

	resp, err := svc.DeleteFile(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err, "delete file failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}
