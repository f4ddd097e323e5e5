package handler

import (
	"github.com/gin-gonic/gin"

	"reflect-story-api/internal/application/chat"
	"reflect-story-api/internal/interfaces/http/dto"
)

// ChatHandler 对话处理器
type ChatHandler struct {
	chatService *chat.Service
}

// NewChatHandler 创建对话处理器
func NewChatHandler(chatService *chat.Service) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// Chat 发送一轮对话
// @Summary 发送对话
// @Description 把对话消息中转到当前配置的 AI 提供商
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body dto.ChatRequest true "对话消息"
// @Success 200 {object} entity.ChatResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.chatService.Chat(c.Request.Context(), req.ToEntity())
	if err != nil {
		renderError(c, err)
		return
	}
	dto.Success(c, resp)
}

// ProviderInfo 查询当前生效的提供商
// @Summary 提供商信息
// @Description 返回当前解析出的提供商、模型与所有可用提供商
// @Tags Chat
// @Produce json
// @Success 200 {object} entity.ProviderInfo
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/provider-info [get]
func (h *ChatHandler) ProviderInfo(c *gin.Context) {
	info, err := h.chatService.ProviderInfo(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	dto.Success(c, info)
}
