package dto

import (
	"reflect-story-api/internal/domain/entity"
)

// StoryInitRequest 初始化故事文档请求体
type StoryInitRequest struct {
	ClientID string `json:"clientId" binding:"required"`
}

// StorySaveRequest 保存故事文档请求体
type StorySaveRequest struct {
	StoryID        string            `json:"storyId" binding:"required"`
	ClientID       string            `json:"clientId" binding:"required"`
	Sections       entity.SectionMap `json:"sections" binding:"required"`
	ResonanceScore *float64          `json:"resonanceScore"`
}

// Score 返回共鸣分，缺省时使用默认值
func (r *StorySaveRequest) Score() float64 {
	if r.ResonanceScore == nil {
		return entity.DefaultResonanceScore
	}
	return *r.ResonanceScore
}
