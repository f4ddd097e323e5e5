package handler

import (
	"github.com/gin-gonic/gin"

	"reflect-story-api/internal/application/status"
	"reflect-story-api/internal/interfaces/http/dto"
)

// StatusHandler 连通性检查处理器
type StatusHandler struct {
	statusService *status.Service
}

// NewStatusHandler 创建连通性检查处理器
func NewStatusHandler(statusService *status.Service) *StatusHandler {
	return &StatusHandler{
		statusService: statusService,
	}
}

// Hello 根路径欢迎响应
// @Summary 欢迎信息
// @Tags System
// @Produce json
// @Success 200 {object} dto.HelloResponse
// @Router /api/ [get]
func (h *StatusHandler) Hello(c *gin.Context) {
	dto.Success(c, dto.HelloResponse{Message: "Hello World"})
}

// Create 记录一次客户端检查
// @Summary 记录连通性检查
// @Tags System
// @Accept json
// @Produce json
// @Param body body dto.StatusCreateRequest true "客户端名称"
// @Success 200 {object} entity.StatusCheck
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/status [post]
func (h *StatusHandler) Create(c *gin.Context) {
	var req dto.StatusCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	check, err := h.statusService.Record(c.Request.Context(), req.ClientName)
	if err != nil {
		renderError(c, err)
		return
	}
	dto.Success(c, check)
}

// List 返回最近的检查记录
// @Summary 查询连通性检查记录
// @Tags System
// @Produce json
// @Success 200 {array} entity.StatusCheck
// @Router /api/status [get]
func (h *StatusHandler) List(c *gin.Context) {
	checks, err := h.statusService.List(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	dto.Success(c, checks)
}
