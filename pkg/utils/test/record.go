package testutils

import (
	"time"

	"github.com/hearthside/loom/pkg/record"
)

// NewTestMemory creates a memory record for testing with the given entity
// lists. CreatedAt defaults to a fixed instant; adjust it on the returned
// record when ordering matters.
func NewTestMemory(conversationID string, people, places, events []string) *record.MemoryRecord {
	return &record.MemoryRecord{
		ID:             record.NewID(),
		ConversationID: conversationID,
		CreatedAt:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Entities: record.Entities{
			People: people,
			Places: places,
			Events: events,
		},
	}
}
