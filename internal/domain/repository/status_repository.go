package repository

import (
	"context"

	"reflect-story-api/internal/domain/entity"
)

// StatusRepository 连通性检查记录仓储接口
type StatusRepository interface {
	// Create 写入一条检查记录
	Create(ctx context.Context, check *entity.StatusCheck) error

	// List 按时间倒序返回最近的检查记录
	List(ctx context.Context, limit int) ([]*entity.StatusCheck, error)
}
