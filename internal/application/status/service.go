// Package status 提供客户端连通性检查记录
package status

import (
	"context"

	"go.opentelemetry.io/otel"

	"reflect-story-api/internal/domain/entity"
	"reflect-story-api/internal/domain/repository"
	"reflect-story-api/pkg/errors"
)

var tracer = otel.Tracer("application.status")

// defaultListLimit 查询检查记录时的默认条数上限
const defaultListLimit = 1000

// Service 连通性检查服务
type Service struct {
	checks repository.StatusRepository
}

// NewService 创建连通性检查服务
func NewService(checks repository.StatusRepository) *Service {
	return &Service{checks: checks}
}

// Record 记录一次客户端检查
func (s *Service) Record(ctx context.Context, clientName string) (*entity.StatusCheck, error) {
	ctx, span := tracer.Start(ctx, "status.Service.Record")
	defer span.End()

	if clientName == "" {
		return nil, errors.New(errors.CodeValidationFailed, "client_name is required")
	}

	check := &entity.StatusCheck{ClientName: clientName}
	if err := s.checks.Create(ctx, check); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to record status check")
	}
	return check, nil
}

// List 返回最近的检查记录
func (s *Service) List(ctx context.Context) ([]*entity.StatusCheck, error) {
	ctx, span := tracer.Start(ctx, "status.Service.List")
	defer span.End()

	checks, err := s.checks.List(ctx, defaultListLimit)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to list status checks")
	}
	return checks, nil
}
