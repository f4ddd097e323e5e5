// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reflect-story-api/internal/domain/entity"
	"reflect-story-api/internal/domain/repository"
)

// StoryRepository 故事文档仓储实现
type StoryRepository struct {
	client *Client
}

// NewStoryRepository 创建故事文档仓储
func NewStoryRepository(client *Client) *StoryRepository {
	return &StoryRepository{client: client}
}

// Create 创建故事文档
func (r *StoryRepository) Create(ctx context.Context, story *entity.Story) error {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(story).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrDuplicateKey
		}
		span.RecordError(err)
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

// GetByClientID 根据客户端 ID 获取故事文档
func (r *StoryRepository) GetByClientID(ctx context.Context, clientID string) (*entity.Story, error) {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.GetByClientID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var story entity.Story
	if err := db.First(&story, "client_id = ?", clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get story by client id: %w", err)
	}
	return &story, nil
}

// GetByStoryID 根据故事 ID 获取故事文档
func (r *StoryRepository) GetByStoryID(ctx context.Context, storyID string) (*entity.Story, error) {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.GetByStoryID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var story entity.Story
	if err := db.First(&story, "story_id = ?", storyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get story by story id: %w", err)
	}
	return &story, nil
}

// UpdateAtomic 在事务中锁定并修改故事文档
// SELECT ... FOR UPDATE 保证并发保存串行化，版本号不会丢失递增
func (r *StoryRepository) UpdateAtomic(ctx context.Context, storyID string, mutate func(story *entity.Story) error) (*entity.Story, error) {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.UpdateAtomic")
	defer span.End()

	var updated *entity.Story
	err := r.client.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var story entity.Story
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&story, "story_id = ?", storyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return fmt.Errorf("failed to lock story: %w", err)
		}

		if err := mutate(&story); err != nil {
			return err
		}

		if err := tx.Save(&story).Error; err != nil {
			return fmt.Errorf("failed to save story: %w", err)
		}

		updated = &story
		return nil
	})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			span.RecordError(err)
		}
		return nil, err
	}
	return updated, nil
}
