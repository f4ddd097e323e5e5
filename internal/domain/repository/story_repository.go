package repository

import (
	"context"

	"reflect-story-api/internal/domain/entity"
)

// StoryRepository 故事文档仓储接口
type StoryRepository interface {
	// Create 创建故事文档，client_id 冲突时返回 ErrDuplicateKey
	Create(ctx context.Context, story *entity.Story) error

	// GetByClientID 按客户端 ID 查询，不存在时返回 ErrNotFound
	GetByClientID(ctx context.Context, clientID string) (*entity.Story, error)

	// GetByStoryID 按故事 ID 查询，不存在时返回 ErrNotFound
	GetByStoryID(ctx context.Context, storyID string) (*entity.Story, error)

	// UpdateAtomic 在事务中锁定并修改故事文档
	// mutate 在行锁保护下执行，返回错误时整体回滚
	UpdateAtomic(ctx context.Context, storyID string, mutate func(story *entity.Story) error) (*entity.Story, error)
}
