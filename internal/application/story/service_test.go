package story

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflect-story-api/internal/domain/entity"
	"reflect-story-api/internal/domain/repository"
	"reflect-story-api/pkg/errors"
)

// memoryStoryRepo 内存实现，测试用
type memoryStoryRepo struct {
	mu       sync.Mutex
	byClient map[string]*entity.Story
	byStory  map[string]*entity.Story
}

func newMemoryStoryRepo() *memoryStoryRepo {
	return &memoryStoryRepo{
		byClient: make(map[string]*entity.Story),
		byStory:  make(map[string]*entity.Story),
	}
}

func (r *memoryStoryRepo) Create(ctx context.Context, story *entity.Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byClient[story.ClientID]; ok {
		return repository.ErrDuplicateKey
	}
	cp := *story
	r.byClient[story.ClientID] = &cp
	r.byStory[story.StoryID] = &cp
	return nil
}

func (r *memoryStoryRepo) GetByClientID(ctx context.Context, clientID string) (*entity.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byClient[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memoryStoryRepo) GetByStoryID(ctx context.Context, storyID string) (*entity.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byStory[storyID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memoryStoryRepo) UpdateAtomic(ctx context.Context, storyID string, mutate func(story *entity.Story) error) (*entity.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byStory[storyID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	if err := mutate(&cp); err != nil {
		return nil, err
	}
	r.byStory[storyID] = &cp
	r.byClient[cp.ClientID] = &cp
	out := cp
	return &out, nil
}

func newTestService() (*Service, *memoryStoryRepo) {
	repo := newMemoryStoryRepo()
	return NewService(repo, nil), repo
}

func TestInitOrFetchCreates(t *testing.T) {
	svc, _ := newTestService()
	clientID := uuid.NewString()

	doc, err := svc.InitOrFetch(context.Background(), clientID)
	require.NoError(t, err)

	assert.Equal(t, clientID, doc.ClientID)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, entity.DefaultResonanceScore, doc.ResonanceScore)
	assert.Empty(t, doc.History)
}

func TestInitOrFetchIdempotent(t *testing.T) {
	svc, _ := newTestService()
	clientID := uuid.NewString()

	first, err := svc.InitOrFetch(context.Background(), clientID)
	require.NoError(t, err)
	second, err := svc.InitOrFetch(context.Background(), clientID)
	require.NoError(t, err)

	assert.Equal(t, first.StoryID, second.StoryID)
	assert.Equal(t, first.Version, second.Version)
}

func TestInitOrFetchInvalidClientID(t *testing.T) {
	svc, _ := newTestService()

	for _, id := range []string{"", "not-a-uuid"} {
		_, err := svc.InitOrFetch(context.Background(), id)
		require.Error(t, err)
		assert.Equal(t, errors.CodeValidationFailed, errors.AsAppError(err).Code)
	}
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Get(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, errors.CodeStoryNotFound, errors.AsAppError(err).Code)
}

func TestGetReturnsDocument(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.InitOrFetch(context.Background(), uuid.NewString())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.StoryID)
	require.NoError(t, err)
	assert.Equal(t, created.StoryID, got.StoryID)
}

func TestSaveHappyPath(t *testing.T) {
	svc, _ := newTestService()
	clientID := uuid.NewString()
	created, err := svc.InitOrFetch(context.Background(), clientID)
	require.NoError(t, err)

	sections := entity.SectionMap{
		entity.SectionGuidingNarrative: "a new chapter",
	}
	saved, err := svc.Save(context.Background(), created.StoryID, clientID, sections, 9)
	require.NoError(t, err)

	assert.Equal(t, 2, saved.Version)
	assert.Equal(t, 9.0, saved.ResonanceScore)
	assert.Equal(t, "a new chapter", saved.Sections[entity.SectionGuidingNarrative])
	require.Len(t, saved.History, 1)
	assert.Equal(t, 1, saved.History[0].Version)
}

func TestSaveScoreBoundaries(t *testing.T) {
	svc, _ := newTestService()
	clientID := uuid.NewString()
	created, err := svc.InitOrFetch(context.Background(), clientID)
	require.NoError(t, err)

	for _, score := range []float64{0, 10} {
		_, err := svc.Save(context.Background(), created.StoryID, clientID, entity.SectionMap{}, score)
		assert.NoError(t, err, "score %v should be accepted", score)
	}
	for _, score := range []float64{-0.01, 10.01} {
		_, err := svc.Save(context.Background(), created.StoryID, clientID, entity.SectionMap{}, score)
		require.Error(t, err, "score %v should be rejected", score)
		assert.Equal(t, errors.CodeValidationFailed, errors.AsAppError(err).Code)
	}
}

func TestSaveUnknownSectionKey(t *testing.T) {
	svc, _ := newTestService()
	clientID := uuid.NewString()
	created, err := svc.InitOrFetch(context.Background(), clientID)
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), created.StoryID, clientID,
		entity.SectionMap{"randomKey": "nope"}, 5)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationFailed, errors.AsAppError(err).Code)
}

func TestSaveOwnershipMismatch(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.InitOrFetch(context.Background(), uuid.NewString())
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), created.StoryID, uuid.NewString(), entity.SectionMap{}, 5)
	require.Error(t, err)
	assert.Equal(t, errors.CodeStoryForbidden, errors.AsAppError(err).Code)

	// 保存失败不产生版本变化
	got, err := svc.Get(context.Background(), created.StoryID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Empty(t, got.History)
}

func TestSaveMissingStory(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Save(context.Background(), uuid.NewString(), uuid.NewString(), entity.SectionMap{}, 5)
	require.Error(t, err)
	assert.Equal(t, errors.CodeStoryNotFound, errors.AsAppError(err).Code)
}

func TestSaveRepeatedVersionsAndHistory(t *testing.T) {
	svc, _ := newTestService()
	clientID := uuid.NewString()
	created, err := svc.InitOrFetch(context.Background(), clientID)
	require.NoError(t, err)

	const saves = 15
	var last *entity.Story
	for i := 0; i < saves; i++ {
		last, err = svc.Save(context.Background(), created.StoryID, clientID, entity.SectionMap{}, 5)
		require.NoError(t, err)
	}

	assert.Equal(t, saves+1, last.Version)
	require.Len(t, last.History, entity.MaxHistoryEntries)
	assert.Equal(t, last.Version-entity.MaxHistoryEntries, last.History[0].Version)
}

func TestSaveConcurrent(t *testing.T) {
	svc, _ := newTestService()
	clientID := uuid.NewString()
	created, err := svc.InitOrFetch(context.Background(), clientID)
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Save(context.Background(), created.StoryID, clientID, entity.SectionMap{}, 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.Get(context.Background(), created.StoryID)
	require.NoError(t, err)
	// 每次保存都串行化，版本号不丢失
	assert.Equal(t, workers+1, got.Version)
}
