// Package story defines the durable story model: a persisted, narrativized
// aggregation of one or more memory records sharing a topic, plus the
// append-only version log that tracks every mutation.
package story

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearthside/loom/pkg/record"
)

// ID uniquely identifies a story.
type ID string

// NewID generates a new unique story ID.
func NewID() ID {
	return ID(uuid.New().String())
}

// PrivacyLevel controls who may see a story.
type PrivacyLevel string

const (
	PrivacyPrivate PrivacyLevel = "private"
	PrivacyFamily  PrivacyLevel = "family"
	PrivacyPublic  PrivacyLevel = "public"
)

// Story is a durable narrated aggregation of memory records. It is created
// once per qualifying topic group and mutated only through the append
// workflow — never re-clustered after creation.
type Story struct {
	ID     ID     `json:"id"`
	UserID string `json:"user_id"`

	Title        string `json:"title"`
	Content      string `json:"content"`       // factual text, always deterministic
	Narrative    string `json:"narrative"`     // synthesized first-person prose
	Summary      string `json:"summary"`       // a few sentences
	BriefSummary string `json:"brief_summary"` // ~50-char search label

	Embedding []float32 `json:"embedding,omitempty"`

	People        []string              `json:"people,omitempty"`
	Places        []string              `json:"places,omitempty"`
	Dates         []string              `json:"dates,omitempty"`
	Events        []string              `json:"events,omitempty"`
	Relationships []record.Relationship `json:"relationships,omitempty"`

	Tone               string   `json:"tone"`
	EmotionalTags      []string `json:"emotional_tags,omitempty"`
	SignificanceRating int      `json:"significance_rating"` // 1..5; current scorer emits 3..5

	PrivacyLevel PrivacyLevel `json:"privacy_level"`
	Version      int          `json:"version"` // >= 1, +1 per successful append
	IsComplete   bool         `json:"is_complete"`

	SourceMemoryIDs []record.ID `json:"source_memory_ids,omitempty"` // set, never duplicated
	ConversationIDs []string    `json:"conversation_ids,omitempty"`

	AccessCount    int        `json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChangeType labels why a story version snapshot was taken.
type ChangeType string

const (
	ChangeAppend ChangeType = "append"
)

// Version is one row of a story's append-only version log. It captures the
// story's pre-mutation state and is written immediately before each mutation
// — never updated or deleted. A story at version N has exactly N-1 log rows,
// oldest first.
type Version struct {
	StoryID       ID         `json:"story_id"`
	VersionNumber int        `json:"version_number"`
	Content       string     `json:"content"`
	Narrative     string     `json:"narrative"`
	ChangeType    ChangeType `json:"change_type"`
	ChangeSummary string     `json:"change_summary"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Brief is the compact story shape surfaced in search results.
type Brief struct {
	ID           ID     `json:"id"`
	Title        string `json:"title"`
	BriefSummary string `json:"brief_summary"`
	Tone         string `json:"tone"`
	Version      int    `json:"version"`
}

// AsBrief converts a story to its search-result shape.
func (s *Story) AsBrief() Brief {
	return Brief{
		ID:           s.ID,
		Title:        s.Title,
		BriefSummary: s.BriefSummary,
		Tone:         s.Tone,
		Version:      s.Version,
	}
}
