package entity

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStory(t *testing.T) {
	clientID := uuid.NewString()
	s := NewStory(clientID)

	assert.Equal(t, clientID, s.ClientID)
	assert.NotEmpty(t, s.StoryID)
	_, err := uuid.Parse(s.StoryID)
	assert.NoError(t, err)

	assert.Equal(t, 1, s.Version)
	assert.Equal(t, DefaultResonanceScore, s.ResonanceScore)
	assert.Empty(t, s.History)

	require.Len(t, s.Sections, len(SectionKeys))
	for _, k := range SectionKeys {
		v, ok := s.Sections[k]
		assert.True(t, ok, "missing section %s", k)
		assert.Equal(t, "", v)
	}
}

func TestApplySave(t *testing.T) {
	s := NewStory(uuid.NewString())
	prevUpdated := s.UpdatedAt

	s.ApplySave(SectionMap{
		SectionGuidingNarrative: "a journey begins",
		SectionEmergingThemes:   "resilience",
	}, 8.5)

	assert.Equal(t, 2, s.Version)
	assert.Equal(t, 8.5, s.ResonanceScore)
	assert.Equal(t, "a journey begins", s.Sections[SectionGuidingNarrative])
	assert.Equal(t, "resilience", s.Sections[SectionEmergingThemes])
	// 整体替换后未提供的章节回到空串
	assert.Equal(t, "", s.Sections[SectionTurningPoints])

	require.Len(t, s.History, 1)
	snap := s.History[0]
	assert.Equal(t, 1, snap.Version)
	assert.Equal(t, DefaultResonanceScore, snap.ResonanceScore)
	assert.Equal(t, "", snap.Sections[SectionGuidingNarrative])
	assert.Equal(t, prevUpdated, snap.Timestamp)
}

func TestApplySaveSnapshotIsolation(t *testing.T) {
	s := NewStory(uuid.NewString())
	s.ApplySave(SectionMap{SectionFutureVision: "v1"}, 5)
	s.ApplySave(SectionMap{SectionFutureVision: "v2"}, 6)

	// 第二次保存的快照保留第一次保存后的内容，不受后续修改影响
	require.Len(t, s.History, 2)
	assert.Equal(t, "v1", s.History[1].Sections[SectionFutureVision])
	assert.Equal(t, "v2", s.Sections[SectionFutureVision])
}

func TestApplySaveHistoryTrim(t *testing.T) {
	s := NewStory(uuid.NewString())
	for i := 0; i < MaxHistoryEntries+5; i++ {
		s.ApplySave(SectionMap{}, 5)
	}

	require.Len(t, s.History, MaxHistoryEntries)
	// 丢弃最旧的快照，剩余按版本连续递增
	assert.Equal(t, s.Version-MaxHistoryEntries, s.History[0].Version)
	assert.Equal(t, s.Version-1, s.History[MaxHistoryEntries-1].Version)
	assert.Equal(t, MaxHistoryEntries+6, s.Version)
}

func TestStoryJSONShape(t *testing.T) {
	s := NewStory(uuid.NewString())
	s.ID = uuid.NewString()

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))

	for _, field := range []string{"storyId", "clientId", "version", "sections", "resonanceScore", "createdAt", "updatedAt", "history"} {
		assert.Contains(t, m, field)
	}
	// 内部主键不外泄
	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "ID")
}

func TestSectionMapScanValue(t *testing.T) {
	m := SectionMap{SectionGuidingNarrative: "text"}
	v, err := m.Value()
	require.NoError(t, err)

	var out SectionMap
	require.NoError(t, out.Scan(v))
	assert.Equal(t, m, out)

	var empty SectionMap
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
}
