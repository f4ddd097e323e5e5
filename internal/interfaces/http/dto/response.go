// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reflect-story-api/pkg/errors"
)

// ErrorResponse 错误响应结构
// 客户端约定只读取 detail 字段
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Success 返回 200，直接输出领域对象
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error 返回错误响应
func Error(c *gin.Context, httpCode int, detail string) {
	c.JSON(httpCode, ErrorResponse{Detail: detail})
}

// BadRequest 返回 400 错误
func BadRequest(c *gin.Context, detail string) {
	Error(c, http.StatusBadRequest, detail)
}

// NotFound 返回 404 错误
func NotFound(c *gin.Context, detail string) {
	Error(c, http.StatusNotFound, detail)
}

// UnprocessableEntity 返回 422 错误
func UnprocessableEntity(c *gin.Context, detail string) {
	Error(c, http.StatusUnprocessableEntity, detail)
}

// BadGateway 返回 502 错误
func BadGateway(c *gin.Context, detail string) {
	Error(c, http.StatusBadGateway, detail)
}

// InternalError 返回 500 错误
func InternalError(c *gin.Context, detail string) {
	Error(c, http.StatusInternalServerError, detail)
}

// FromAppError 按应用错误的 HTTP 状态码输出错误响应
func FromAppError(c *gin.Context, err *errors.AppError) {
	detail := err.Message
	if err.Detail != "" {
		detail = err.Detail
	}
	Error(c, err.HTTPStatus, detail)
}
