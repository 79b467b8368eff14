package handle

import (
	"github.com/go-playground/validator/v10"

	"github.com/yeisme/voxvault/pkg/internal/service"
	"github.com/yeisme/voxvault/pkg/log"
	"github.com/yeisme/voxvault/pkg/rule"
)

// init 注册请求体使用的自定义校验规则.
func init() {
	err := rule.RegisterValidation("youtube_url", func(fl validator.FieldLevel) bool {
		_, ok := service.ExtractYouTubeVideoID(fl.Field().String())

		return ok
	})
	if err != nil {
		log.Logger().Error().Err(err).Msg("Failed to register youtube_url validation")
	}
}
