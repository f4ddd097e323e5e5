// Package story 提供故事文档的初始化、查询与保存
package story

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"reflect-story-api/internal/domain/entity"
	"reflect-story-api/internal/domain/repository"
	"reflect-story-api/internal/infrastructure/persistence/redis"
	"reflect-story-api/pkg/errors"
	"reflect-story-api/pkg/logger"
	"reflect-story-api/pkg/metrics"
)

var tracer = otel.Tracer("application.story")

// storyCacheTTL 故事文档缓存时长
const storyCacheTTL = 5 * time.Minute

// Service 故事文档服务
type Service struct {
	stories repository.StoryRepository
	cache   *redis.Cache
}

// NewService 创建故事文档服务
// cache 为 nil 时退化为直读数据库
func NewService(stories repository.StoryRepository, cache *redis.Cache) *Service {
	return &Service{
		stories: stories,
		cache:   cache,
	}
}

// InitOrFetch 初始化或返回已有的故事文档
// 同一客户端重复调用幂等，并发首次初始化由唯一索引裁决
func (s *Service) InitOrFetch(ctx context.Context, clientID string) (*entity.Story, error) {
	ctx, span := tracer.Start(ctx, "story.Service.InitOrFetch")
	defer span.End()

	if err := validateID(clientID, "clientId"); err != nil {
		return nil, err
	}
	ctx = logger.WithContext(ctx, logger.ClientIDKey, clientID)

	existing, err := s.stories.GetByClientID(ctx, clientID)
	if err == nil {
		metrics.StoryInitTotal.WithLabelValues("existing").Inc()
		return existing, nil
	}
	if err != repository.ErrNotFound {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to query story")
	}

	created := entity.NewStory(clientID)
	if err := s.stories.Create(ctx, created); err != nil {
		if err == repository.ErrDuplicateKey {
			// 并发初始化输给了另一个请求，取回胜者的文档
			winner, ferr := s.stories.GetByClientID(ctx, clientID)
			if ferr != nil {
				return nil, errors.Wrap(ferr, errors.CodeDatabaseError, "failed to fetch story after race")
			}
			metrics.StoryInitTotal.WithLabelValues("existing").Inc()
			return winner, nil
		}
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to create story")
	}

	metrics.StoryInitTotal.WithLabelValues("created").Inc()
	logger.Info(ctx, "story initialized", "story_id", created.StoryID)
	return created, nil
}

// Get 按故事 ID 查询文档，优先走缓存
func (s *Service) Get(ctx context.Context, storyID string) (*entity.Story, error) {
	ctx, span := tracer.Start(ctx, "story.Service.Get")
	defer span.End()

	if err := validateID(storyID, "storyId"); err != nil {
		return nil, err
	}
	ctx = logger.WithContext(ctx, logger.StoryIDKey, storyID)

	if s.cache == nil {
		return s.load(ctx, storyID)
	}

	data, err := s.cache.GetOrLoadSafe(ctx, redis.StoryKey(storyID), storyCacheTTL, func() (interface{}, error) {
		return s.load(ctx, storyID)
	})
	if err != nil {
		return nil, err
	}

	var story entity.Story
	if err := json.Unmarshal(data, &story); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeCacheError, "failed to decode cached story")
	}
	return &story, nil
}

// Save 乐观保存：整体替换章节与共鸣分，快照进历史，版本号 +1
func (s *Service) Save(ctx context.Context, storyID, clientID string, sections entity.SectionMap, resonanceScore float64) (*entity.Story, error) {
	ctx, span := tracer.Start(ctx, "story.Service.Save")
	defer span.End()

	if err := validateID(storyID, "storyId"); err != nil {
		return nil, err
	}
	if err := validateID(clientID, "clientId"); err != nil {
		return nil, err
	}
	if err := validateSave(sections, resonanceScore); err != nil {
		metrics.StorySaveTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	ctx = logger.WithContext(ctx, logger.StoryIDKey, storyID)
	ctx = logger.WithContext(ctx, logger.ClientIDKey, clientID)

	updated, err := s.stories.UpdateAtomic(ctx, storyID, func(story *entity.Story) error {
		if story.ClientID != clientID {
			return errors.New(errors.CodeStoryForbidden, "story does not belong to client")
		}
		story.ApplySave(sections, resonanceScore)
		return nil
	})
	if err != nil {
		metrics.StorySaveTotal.WithLabelValues("failed").Inc()
		if err == repository.ErrNotFound {
			return nil, errors.New(errors.CodeStoryNotFound, "Story not found")
		}
		if errors.IsAppError(err) {
			return nil, err
		}
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to save story")
	}

	if s.cache != nil {
		if err := s.cache.InvalidateStory(ctx, storyID); err != nil {
			// 缓存失效失败只记日志，TTL 到期后自愈
			logger.Warn(ctx, "failed to invalidate story cache", "error", err.Error())
		}
	}

	metrics.StorySaveTotal.WithLabelValues("saved").Inc()
	metrics.StoryVersion.WithLabelValues("saved").Observe(float64(updated.Version))
	span.SetAttributes(attribute.Int("story.version", updated.Version))
	logger.Info(ctx, "story saved", "version", updated.Version)
	return updated, nil
}

// load 从仓储读取文档并翻译错误
func (s *Service) load(ctx context.Context, storyID string) (*entity.Story, error) {
	story, err := s.stories.GetByStoryID(ctx, storyID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.New(errors.CodeStoryNotFound, "Story not found")
		}
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to query story")
	}
	return story, nil
}

// validateID 校验 UUID 形式的标识
func validateID(id, field string) error {
	if id == "" {
		return errors.New(errors.CodeValidationFailed, fmt.Sprintf("%s is required", field))
	}
	if _, err := uuid.Parse(id); err != nil {
		return errors.New(errors.CodeValidationFailed, fmt.Sprintf("%s must be a valid UUID", field))
	}
	return nil
}

// validateSave 校验保存请求的章节键与共鸣分
func validateSave(sections entity.SectionMap, resonanceScore float64) error {
	if resonanceScore < entity.MinResonanceScore || resonanceScore > entity.MaxResonanceScore {
		return errors.New(errors.CodeValidationFailed,
			fmt.Sprintf("resonanceScore must be between %v and %v", entity.MinResonanceScore, entity.MaxResonanceScore))
	}

	allowed := make(map[string]struct{}, len(entity.SectionKeys))
	for _, k := range entity.SectionKeys {
		allowed[k] = struct{}{}
	}
	for k := range sections {
		if _, ok := allowed[k]; !ok {
			return errors.New(errors.CodeValidationFailed, "unknown section key").WithDetail(k)
		}
	}
	return nil
}
