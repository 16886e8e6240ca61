// Package storystore defines the durable storage boundary for stories and
// their version history. The engine never bypasses this interface.
//
// Drivers are pluggable via configuration:
//
//	[storage]
//	provider = "sqlite"   # or "postgres", "inmemory"
package storystore

import (
	"context"
	"time"

	"github.com/hearthside/loom/pkg/story"
)

// Query is a combined semantic+lexical search request. Text is always set;
// Embedding is optional and enables semantic ranking when present.
type Query struct {
	Text      string
	Embedding []float32
}

// SearchOptions bounds a search request.
type SearchOptions struct {
	// Limit is the maximum number of results to return. Drivers apply a
	// sane default when zero.
	Limit int
}

// Result is a single search hit with its relevance score
// (higher = more relevant).
type Result struct {
	Story *story.Story
	Score float32
}

// Store handles persistence of stories and their append-only version log.
type Store interface {
	// SaveStory persists a new story. Fails if the ID already exists.
	SaveStory(ctx context.Context, s *story.Story) error

	// GetStory retrieves a story by ID, scoped to its owning user.
	GetStory(ctx context.Context, userID string, id story.ID) (*story.Story, error)

	// UpdateStory overwrites an existing story's fields.
	UpdateStory(ctx context.Context, s *story.Story) error

	// SearchStories runs a combined semantic+lexical search over one
	// user's stories, ordered by descending relevance.
	SearchStories(ctx context.Context, userID string, q Query, opts SearchOptions) ([]Result, error)

	// TouchAccess increments a story's access count and refreshes its
	// last-accessed timestamp.
	TouchAccess(ctx context.Context, id story.ID, at time.Time) error

	// AppendVersion writes one row to a story's version log.
	AppendVersion(ctx context.Context, v *story.Version) error

	// ListVersions returns a story's version log, oldest first.
	ListVersions(ctx context.Context, id story.ID) ([]*story.Version, error)

	// Close releases driver resources.
	Close() error
}
