// Package entity 定义领域实体
package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// 故事文档固定的章节键集合
const (
	SectionGuidingNarrative = "guidingNarrative"
	SectionTurningPoints    = "turningPoints"
	SectionEmergingThemes   = "emergingThemes"
	SectionUniqueStrengths  = "uniqueStrengths"
	SectionFutureVision     = "futureVision"
)

// SectionKeys 固定章节键，保存时不允许出现集合之外的键
var SectionKeys = []string{
	SectionGuidingNarrative,
	SectionTurningPoints,
	SectionEmergingThemes,
	SectionUniqueStrengths,
	SectionFutureVision,
}

const (
	// MaxHistoryEntries 历史快照上限，超出时丢弃最旧的
	MaxHistoryEntries = 10

	// DefaultResonanceScore 初始化时的共鸣分默认值
	DefaultResonanceScore = 7.0

	// MinResonanceScore / MaxResonanceScore 共鸣分取值范围
	MinResonanceScore = 0.0
	MaxResonanceScore = 10.0
)

// SectionMap 章节键到正文的映射，按 jsonb 存储
type SectionMap map[string]string

// Value 实现 driver.Valuer
func (m SectionMap) Value() (driver.Value, error) {
	if m == nil {
		m = SectionMap{}
	}
	return json.Marshal(m)
}

// Scan 实现 sql.Scanner
func (m *SectionMap) Scan(value interface{}) error {
	if value == nil {
		*m = SectionMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported sections column type: %T", value)
	}
}

// Clone 返回深拷贝
func (m SectionMap) Clone() SectionMap {
	out := make(SectionMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DefaultSections 返回五个章节均为空串的映射
func DefaultSections() SectionMap {
	out := make(SectionMap, len(SectionKeys))
	for _, k := range SectionKeys {
		out[k] = ""
	}
	return out
}

// NormalizeSections 补齐缺失的章节键为空串
func NormalizeSections(sections SectionMap) SectionMap {
	out := DefaultSections()
	for k, v := range sections {
		out[k] = v
	}
	return out
}

// HistorySnapshot 保存前的文档快照
type HistorySnapshot struct {
	Version        int        `json:"version"`
	ResonanceScore float64    `json:"resonanceScore"`
	Sections       SectionMap `json:"sections"`
	Timestamp      time.Time  `json:"timestamp"`
}

// HistoryList 历史快照序列，从旧到新排列，按 jsonb 存储
type HistoryList []HistorySnapshot

// Value 实现 driver.Valuer
func (l HistoryList) Value() (driver.Value, error) {
	if l == nil {
		l = HistoryList{}
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner
func (l *HistoryList) Scan(value interface{}) error {
	if value == nil {
		*l = HistoryList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported history column type: %T", value)
	}
}

// Story 客户端故事文档
// client_id 唯一索引保证一个客户端只有一份文档，并发首次初始化由存储层裁决
type Story struct {
	ID             string      `json:"-" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoryID        string      `json:"storyId" gorm:"type:uuid;uniqueIndex;not null"`
	ClientID       string      `json:"clientId" gorm:"type:uuid;uniqueIndex;not null"`
	Version        int         `json:"version" gorm:"not null;default:1"`
	Sections       SectionMap  `json:"sections" gorm:"type:jsonb;not null"`
	ResonanceScore float64     `json:"resonanceScore" gorm:"not null;default:7"`
	CreatedAt      time.Time   `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	History        HistoryList `json:"history" gorm:"type:jsonb;not null"`
}

// TableName 指定表名
func (Story) TableName() string {
	return "stories"
}

// NewStory 创建初始版本的故事文档
func NewStory(clientID string) *Story {
	now := time.Now().UTC()
	return &Story{
		StoryID:        uuid.NewString(),
		ClientID:       clientID,
		Version:        1,
		Sections:       DefaultSections(),
		ResonanceScore: DefaultResonanceScore,
		CreatedAt:      now,
		UpdatedAt:      now,
		History:        HistoryList{},
	}
}

// ApplySave 应用一次整体保存：
// 先把保存前的状态快照进历史（超过上限丢弃最旧），
// 然后整体替换章节与共鸣分，版本号 +1
func (s *Story) ApplySave(sections SectionMap, resonanceScore float64) {
	snapshot := HistorySnapshot{
		Version:        s.Version,
		ResonanceScore: s.ResonanceScore,
		Sections:       s.Sections.Clone(),
		Timestamp:      s.UpdatedAt,
	}
	s.History = append(s.History, snapshot)
	if len(s.History) > MaxHistoryEntries {
		s.History = s.History[len(s.History)-MaxHistoryEntries:]
	}

	s.Sections = NormalizeSections(sections)
	s.ResonanceScore = resonanceScore
	s.Version++
	s.UpdatedAt = time.Now().UTC()
}
