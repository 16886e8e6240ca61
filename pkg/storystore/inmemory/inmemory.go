// Package inmemory provides an in-memory story store for tests and local
// development. All state lives in process maps guarded by a read-write mutex.
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hearthside/loom/pkg/story"
	"github.com/hearthside/loom/pkg/storystore"
	"github.com/hearthside/loom/pkg/storystore/rank"
)

const defaultSearchLimit = 3

// Store implements storystore.Store using in-memory maps.
type Store struct {
	mu sync.RWMutex

	// stories maps story ID to the stored copy.
	stories map[story.ID]*story.Story

	// versions maps story ID to its version log, oldest first.
	versions map[story.ID][]*story.Version
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		stories:  make(map[story.ID]*story.Story),
		versions: make(map[story.ID][]*story.Version),
	}
}

// SaveStory persists a new story. Fails if the ID already exists.
func (s *Store) SaveStory(_ context.Context, st *story.Story) error {
	if st == nil {
		return errors.New("cannot save nil story")
	}
	if st.ID == "" {
		return errors.New("story ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[st.ID]; ok {
		return fmt.Errorf("story already exists: %s", st.ID)
	}

	clone := *st
	s.stories[st.ID] = &clone
	return nil
}

// GetStory retrieves a story by ID, scoped to its owning user.
func (s *Store) GetStory(_ context.Context, userID string, id story.ID) (*story.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stories[id]
	if !ok || st.UserID != userID {
		return nil, storystore.NotFoundError{ID: id}
	}

	clone := *st
	return &clone, nil
}

// UpdateStory overwrites an existing story's fields.
func (s *Store) UpdateStory(_ context.Context, st *story.Story) error {
	if st == nil {
		return errors.New("cannot update nil story")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[st.ID]; !ok {
		return storystore.NotFoundError{ID: st.ID}
	}

	clone := *st
	s.stories[st.ID] = &clone
	return nil
}

// SearchStories runs a combined semantic+lexical search over one user's
// stories, ordered by descending relevance. Stories with zero relevance are
// excluded.
func (s *Store) SearchStories(_ context.Context, userID string, q storystore.Query, opts storystore.SearchOptions) ([]storystore.Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []storystore.Result
	for _, st := range s.stories {
		if st.UserID != userID {
			continue
		}

		lexical := rank.Lexical(q.Text, st)
		semantic := float32(-1)
		if len(q.Embedding) > 0 && len(st.Embedding) > 0 {
			semantic = rank.Cosine(q.Embedding, st.Embedding)
		}

		score := rank.Combine(lexical, semantic)
		if score <= 0 {
			continue
		}

		clone := *st
		results = append(results, storystore.Result{Story: &clone, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// TouchAccess increments a story's access count and refreshes its
// last-accessed timestamp.
func (s *Store) TouchAccess(_ context.Context, id story.ID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stories[id]
	if !ok {
		return storystore.NotFoundError{ID: id}
	}

	st.AccessCount++
	st.LastAccessedAt = &at
	return nil
}

// AppendVersion writes one row to a story's version log.
func (s *Store) AppendVersion(_ context.Context, v *story.Version) error {
	if v == nil {
		return errors.New("cannot append nil version")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[v.StoryID]; !ok {
		return storystore.NotFoundError{ID: v.StoryID}
	}

	clone := *v
	s.versions[v.StoryID] = append(s.versions[v.StoryID], &clone)
	return nil
}

// ListVersions returns a story's version log, oldest first.
func (s *Store) ListVersions(_ context.Context, id story.ID) ([]*story.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.versions[id]
	out := make([]*story.Version, len(log))
	for i, v := range log {
		clone := *v
		out[i] = &clone
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
