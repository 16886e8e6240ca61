package seedcmder

import (
	"time"

	"github.com/hearthside/loom/pkg/engine"
	"github.com/hearthside/loom/pkg/record"
)

// demoBatches returns the built-in demo memory batches. Each batch is one
// conversation's worth of extracted memories for DemoUserID. The first two
// conversations form groups large or significant enough to become stories;
// the lone beach memory stays below the aggregation threshold.
func demoBatches() []engine.Batch {
	base := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

	crossing := []*record.MemoryRecord{
		{
			ID:             record.NewID(),
			ConversationID: "demo-conv-1",
			CreatedAt:      base,
			Entities: record.Entities{
				People: []string{"Giuseppe"},
				Places: []string{"Ellis Island"},
				Dates:  []string{"1955"},
				Events: []string{"immigrated to America"},
			},
		},
		{
			ID:             record.NewID(),
			ConversationID: "demo-conv-1",
			CreatedAt:      base.Add(5 * time.Minute),
			Entities: record.Entities{
				People: []string{"Giuseppe", "Maria"},
				Places: []string{"Ellis Island"},
				Events: []string{"the boat crossing"},
				Relationships: []record.Relationship{
					{From: "Giuseppe", To: "Maria", Relation: "husband"},
				},
			},
		},
		{
			ID:             record.NewID(),
			ConversationID: "demo-conv-1",
			CreatedAt:      base.Add(12 * time.Minute),
			Entities: record.Entities{
				People: []string{"Giuseppe"},
				Places: []string{"Ellis Island", "Naples"},
				Events: []string{"saying goodbye at the dock"},
			},
		},
	}

	wedding := []*record.MemoryRecord{
		{
			ID:             record.NewID(),
			ConversationID: "demo-conv-2",
			CreatedAt:      base.Add(24 * time.Hour),
			Entities: record.Entities{
				People: []string{"Mom", "Dad"},
				Places: []string{"the old farmhouse"},
				Dates:  []string{"June 1962"},
				Events: []string{"the wedding"},
			},
		},
		{
			ID:             record.NewID(),
			ConversationID: "demo-conv-2",
			CreatedAt:      base.Add(24*time.Hour + 8*time.Minute),
			Entities: record.Entities{
				People: []string{"Mom"},
				Places: []string{"the old farmhouse"},
				Events: []string{"dancing in the barn"},
			},
		},
	}

	beach := []*record.MemoryRecord{
		{
			ID:             record.NewID(),
			ConversationID: "demo-conv-3",
			CreatedAt:      base.Add(48 * time.Hour),
			Entities: record.Entities{
				People: []string{"Tommy"},
				Places: []string{"the lake"},
				Events: []string{"catching fireflies"},
			},
		},
	}

	return []engine.Batch{
		{UserID: DemoUserID, Memories: crossing},
		{UserID: DemoUserID, Memories: wedding},
		{UserID: DemoUserID, Memories: beach},
	}
}
