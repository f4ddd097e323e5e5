package postgres

import (
	"context"
	"fmt"

	"reflect-story-api/internal/domain/entity"
)

// StatusRepository 连通性检查记录仓储实现
type StatusRepository struct {
	client *Client
}

// NewStatusRepository 创建连通性检查记录仓储
func NewStatusRepository(client *Client) *StatusRepository {
	return &StatusRepository{client: client}
}

// Create 写入一条检查记录
func (r *StatusRepository) Create(ctx context.Context, check *entity.StatusCheck) error {
	ctx, span := tracer.Start(ctx, "postgres.StatusRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(check).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create status check: %w", err)
	}
	return nil
}

// List 按时间倒序返回最近的检查记录
func (r *StatusRepository) List(ctx context.Context, limit int) ([]*entity.StatusCheck, error) {
	ctx, span := tracer.Start(ctx, "postgres.StatusRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var checks []*entity.StatusCheck
	if err := db.Order("timestamp DESC").Limit(limit).Find(&checks).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list status checks: %w", err)
	}
	return checks, nil
}
