package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/hearthside/loom/pkg/eventstream"
	"github.com/hearthside/loom/pkg/record"
	"github.com/hearthside/loom/pkg/story"
)

// ErrValidation marks a request missing required identifiers or content.
// This is the one failure category that surfaces to callers as a hard error.
var ErrValidation = errors.New("validation failed")

// AutoCreateStories clusters a snapshot of memory records into topic groups
// and persists a story for every group that qualifies. Runs are serialized
// per user: concurrent runs over the same unprocessed records would mint
// duplicate stories.
//
// External capability failures degrade individual stories (fallback
// narrative, neutral tone, nil embedding) but never abort the run. A story
// whose save fails is logged and skipped; the rest of the batch proceeds.
func (e *Engine) AutoCreateStories(ctx context.Context, userID string, memories []*record.MemoryRecord) ([]*story.Story, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if len(memories) == 0 {
		return nil, nil
	}

	unlock := e.userLocks.Lock(userID)
	defer unlock()

	groups := groupMemories(memories)
	e.logger.Info("aggregation run grouped memories",
		"user_id", userID,
		"memories", len(memories),
		"groups", len(groups),
	)

	var created []*story.Story
	for _, group := range groups {
		if !qualifies(group) {
			continue
		}

		s := e.buildStory(ctx, userID, group)
		if err := e.store.SaveStory(ctx, s); err != nil {
			e.logger.Error("story save failed, skipping group",
				"user_id", userID,
				"title", s.Title,
				"error", err,
			)
			continue
		}
		created = append(created, s)

		e.publish(ctx, &eventstream.StoryEvent{
			EventType:         eventstream.EventTypeStoryCreated,
			UserID:            userID,
			StoryID:           s.ID,
			Title:             s.Title,
			Version:           s.Version,
			SourceMemoryCount: len(s.SourceMemoryIDs),
		})
	}

	e.logger.Info("aggregation run complete",
		"user_id", userID,
		"stories_created", len(created),
	)
	return created, nil
}

// buildStory synthesizes one story from a qualifying topic group. Tone,
// narrative, titles, and embedding are attempted independently, so any
// subset of them may be fallback values on the persisted story.
func (e *Engine) buildStory(ctx context.Context, userID string, g *TopicGroup) *story.Story {
	content := buildContent(g)
	tone := e.analyzeTone(ctx, content)
	narrative := e.synthesizeNarrative(ctx, content, tone.Tone)
	titles := e.generateTitles(ctx, narrative, g)

	now := e.now()
	s := &story.Story{
		ID:                 story.NewID(),
		UserID:             userID,
		Title:              titles.Title,
		Content:            content,
		Narrative:          narrative,
		Summary:            titles.Summary,
		BriefSummary:       titles.BriefSummary,
		Embedding:          e.embed(ctx, content+"\n"+titles.Title),
		People:             g.People(),
		Places:             g.Places(),
		Events:             g.Events(),
		Tone:               tone.Tone,
		EmotionalTags:      tone.EmotionalTags,
		SignificanceRating: significance(g),
		PrivacyLevel:       story.PrivacyPrivate,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	for _, m := range g.Memories {
		s.Dates = mergeTerms(s.Dates, m.Entities.Dates)
		s.Relationships = mergeRelationships(s.Relationships, m.Entities.Relationships)
		s.SourceMemoryIDs = appendMemoryID(s.SourceMemoryIDs, m.ID)
		s.ConversationIDs = mergeTerms(s.ConversationIDs, []string{m.ConversationID})
	}
	return s
}

// CreateResult reports direct story creation.
type CreateResult struct {
	Success bool     `json:"success"`
	StoryID story.ID `json:"story_id,omitempty"`
	Message string   `json:"message"`
}

// CreateStoryFromConversation builds a story directly from narrated text,
// bypassing the grouping gate. The conversation layer uses this when it has
// already decided the user is telling a brand-new story.
func (e *Engine) CreateStoryFromConversation(ctx context.Context, userID, title, content string, entities record.Entities) (CreateResult, error) {
	if userID == "" {
		return CreateResult{}, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if title == "" || content == "" {
		return CreateResult{}, fmt.Errorf("%w: title and content are required", ErrValidation)
	}

	now := e.now()
	s := &story.Story{
		ID:                 story.NewID(),
		UserID:             userID,
		Title:              title,
		Content:            content,
		Narrative:          content,
		Summary:            truncate(content, 200),
		BriefSummary:       truncate(title, 50),
		Embedding:          e.embed(ctx, content+"\n"+title),
		People:             entities.People,
		Places:             entities.Places,
		Dates:              entities.Dates,
		Events:             entities.Events,
		Relationships:      entities.Relationships,
		Tone:               story.ToneNeutral,
		SignificanceRating: 3,
		PrivacyLevel:       story.PrivacyPrivate,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := e.store.SaveStory(ctx, s); err != nil {
		e.logger.Error("direct story save failed", "user_id", userID, "error", err)
		return CreateResult{
			Success: false,
			Message: "I had trouble saving that story just now. Could we try again in a moment?",
		}, nil
	}

	e.publish(ctx, &eventstream.StoryEvent{
		EventType: eventstream.EventTypeStoryCreated,
		UserID:    userID,
		StoryID:   s.ID,
		Title:     s.Title,
		Version:   s.Version,
	})

	return CreateResult{
		Success: true,
		StoryID: s.ID,
		Message: fmt.Sprintf("I've saved %q. Thank you for sharing it with me.", s.Title),
	}, nil
}

// embed produces an embedding, or nil when no embedder is configured or the
// call fails. A nil embedding is a legitimate persisted state.
func (e *Engine) embed(ctx context.Context, text string) []float32 {
	if e.embedder == nil {
		return nil
	}
	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		e.logger.Warn("embedding failed, persisting without one", "error", err)
		return nil
	}
	return vector
}

func appendMemoryID(ids []record.ID, id record.ID) []record.ID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func mergeRelationships(existing, incoming []record.Relationship) []record.Relationship {
	seen := make(map[record.Relationship]struct{}, len(existing))
	for _, r := range existing {
		seen[r] = struct{}{}
	}
	merged := existing
	for _, r := range incoming {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		merged = append(merged, r)
	}
	return merged
}
