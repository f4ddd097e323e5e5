// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"reflect-story-api/internal/interfaces/http/dto"
	"reflect-story-api/pkg/errors"
	"reflect-story-api/pkg/logger"
)

// renderError 按应用错误输出响应，未知错误统一 500
func renderError(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)
	if appErr.Code == errors.CodeUnknown {
		logger.Error(c.Request.Context(), "unhandled error", err,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		dto.InternalError(c, "internal server error")
		return
	}
	dto.FromAppError(c, appErr)
}
