// Package eventstream defines the outbound event contract for story
// lifecycle changes. Publishing is fire-and-forget: the engine logs publish
// failures and never lets them affect story creation or mutation.
package eventstream

import (
	"time"

	"github.com/hearthside/loom/pkg/story"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeStoryCreated is emitted after a new story is persisted.
	EventTypeStoryCreated = "loom.story.created"

	// EventTypeStoryAppended is emitted after an append bumps a story's
	// version.
	EventTypeStoryAppended = "loom.story.appended"
)

// StoryEvent is a transport-neutral event payload for a story lifecycle
// change.
type StoryEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	UserID  string   `json:"user_id"`
	StoryID story.ID `json:"story_id"`
	Title   string   `json:"title"`
	Version int      `json:"version"`

	// SourceMemoryCount is how many memory records back the story at the
	// time of the event.
	SourceMemoryCount int `json:"source_memory_count,omitempty"`
}
