package handler

import (
	"github.com/gin-gonic/gin"

	"reflect-story-api/internal/application/story"
	"reflect-story-api/internal/interfaces/http/dto"
	"reflect-story-api/pkg/errors"
)

// StoryHandler 故事文档处理器
type StoryHandler struct {
	storyService *story.Service
}

// NewStoryHandler 创建故事文档处理器
func NewStoryHandler(storyService *story.Service) *StoryHandler {
	return &StoryHandler{
		storyService: storyService,
	}
}

// Init 初始化或返回已有的故事文档
// @Summary 初始化故事文档
// @Description 同一客户端重复调用幂等，返回已有文档
// @Tags Story
// @Accept json
// @Produce json
// @Param body body dto.StoryInitRequest true "客户端标识"
// @Success 200 {object} entity.Story
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /api/story/init [post]
func (h *StoryHandler) Init(c *gin.Context) {
	var req dto.StoryInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	doc, err := h.storyService.InitOrFetch(c.Request.Context(), req.ClientID)
	if err != nil {
		renderError(c, err)
		return
	}
	dto.Success(c, doc)
}

// Get 按故事 ID 查询文档
// @Summary 查询故事文档
// @Tags Story
// @Produce json
// @Param story_id path string true "故事 ID"
// @Success 200 {object} entity.Story
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /api/story/{story_id} [get]
func (h *StoryHandler) Get(c *gin.Context) {
	doc, err := h.storyService.Get(c.Request.Context(), c.Param("story_id"))
	if err != nil {
		renderError(c, err)
		return
	}
	dto.Success(c, doc)
}

// Save 保存故事文档
// @Summary 保存故事文档
// @Description 整体替换章节与共鸣分，保存前状态进入历史，版本号 +1
// @Tags Story
// @Accept json
// @Produce json
// @Param body body dto.StorySaveRequest true "保存内容"
// @Success 200 {object} entity.Story
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /api/story/save [put]
func (h *StoryHandler) Save(c *gin.Context) {
	var req dto.StorySaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	doc, err := h.storyService.Save(c.Request.Context(), req.StoryID, req.ClientID, req.Sections, req.Score())
	if err != nil {
		// 归属不匹配不向客户端暴露文档存在性
		if appErr := errors.AsAppError(err); appErr.Code == errors.CodeStoryForbidden {
			dto.NotFound(c, "Story not found")
			return
		}
		renderError(c, err)
		return
	}
	dto.Success(c, doc)
}
