package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/voxvault/pkg/internal/service"
	"github.com/yeisme/voxvault/pkg/log"
)

// mapServiceError 将业务哨兵错误映射为 HTTP 状态码，未识别的错误
// （包括外部服务错误）一律 500.
func mapServiceError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// abortWithServiceError 记录日志并按映射返回错误响应.
func abortWithServiceError(c *gin.Context, err error, msg string) {
	l := log.Logger()

	status := mapServiceError(err)
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Msg(msg)
	} else {
		l.Warn().Err(err).Msg(msg)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
