// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"reflect-story-api/internal/interfaces/http/handler"
)

// RegisterAPIRoutes 注册业务 API 路由
func RegisterAPIRoutes(
	api *gin.RouterGroup,
	chatHandler *handler.ChatHandler,
	storyHandler *handler.StoryHandler,
	statusHandler *handler.StatusHandler,
) {
	// 系统信息
	api.GET("/", statusHandler.Hello)
	api.POST("/status", statusHandler.Create)
	api.GET("/status", statusHandler.List)

	// AI 对话
	api.POST("/chat", chatHandler.Chat)
	api.GET("/provider-info", chatHandler.ProviderInfo)

	// 故事文档
	storyGroup := api.Group("/story")
	{
		storyGroup.POST("/init", storyHandler.Init)
		storyGroup.PUT("/save", storyHandler.Save)
		storyGroup.GET("/:story_id", storyHandler.Get)
	}
}
