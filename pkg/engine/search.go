package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hearthside/loom/pkg/story"
	"github.com/hearthside/loom/pkg/storystore"
)

// defaultSearchLimit caps how many stories a search surfaces.
const defaultSearchLimit = 3

// SearchResult reports a story search with a ready-to-speak suggested
// response for the conversation layer.
type SearchResult struct {
	Found             bool          `json:"found"`
	Stories           []story.Brief `json:"stories,omitempty"`
	SuggestedResponse string        `json:"suggested_response,omitempty"`
	Message           string        `json:"message,omitempty"`
}

// SearchUserStories finds stories matching a free-text query, combining
// semantic ranking (when an embedder is configured) with lexical matching.
// Every surfaced story has its access statistics refreshed, not only the one
// the user ultimately picks.
func (e *Engine) SearchUserStories(ctx context.Context, userID, queryText string, limit int) (SearchResult, error) {
	if userID == "" {
		return SearchResult{}, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if strings.TrimSpace(queryText) == "" {
		return SearchResult{}, fmt.Errorf("%w: query text is required", ErrValidation)
	}
	if limit <= 0 || limit > defaultSearchLimit {
		limit = defaultSearchLimit
	}

	query := storystore.Query{
		Text:      queryText,
		Embedding: e.embed(ctx, queryText),
	}

	results, err := e.store.SearchStories(ctx, userID, query, storystore.SearchOptions{Limit: limit})
	if err != nil {
		e.logger.Error("story search failed", "user_id", userID, "error", err)
		return SearchResult{
			Found:   false,
			Message: "I had some trouble searching your stories just now. Could you ask me again in a moment?",
		}, nil
	}

	if len(results) == 0 {
		return SearchResult{
			Found:   false,
			Message: "I don't have a story about that yet. I'd love to hear it — would you tell me about it?",
		}, nil
	}

	now := e.now()
	briefs := make([]story.Brief, 0, len(results))
	for _, result := range results {
		briefs = append(briefs, result.Story.AsBrief())
		if err := e.store.TouchAccess(ctx, result.Story.ID, now); err != nil {
			e.logger.Warn("access stat update failed", "story_id", result.Story.ID, "error", err)
		}
	}

	return SearchResult{
		Found:             true,
		Stories:           briefs,
		SuggestedResponse: suggestedResponse(briefs),
	}, nil
}

// suggestedResponse phrases search hits for the conversation layer: one
// match offers to retell or extend it; several enumerate brief summaries.
func suggestedResponse(briefs []story.Brief) string {
	if len(briefs) == 1 {
		return fmt.Sprintf(
			"I remember you telling me about %q. Would you like me to retell it, or is there more to add?",
			briefs[0].Title,
		)
	}

	var b strings.Builder
	b.WriteString("I remember a few stories that might be what you mean:\n")
	for _, brief := range briefs {
		fmt.Fprintf(&b, "- %s\n", brief.BriefSummary)
	}
	b.WriteString("Which one would you like to hear?")
	return b.String()
}

// RetellResult reports a retelling request.
type RetellResult struct {
	Success bool         `json:"success"`
	Story   *story.Story `json:"story,omitempty"`
	Message string       `json:"message,omitempty"`
}

// GetStoryForRetelling loads a full story for the conversation layer to
// narrate back, refreshing its access statistics.
func (e *Engine) GetStoryForRetelling(ctx context.Context, userID string, storyID story.ID) (RetellResult, error) {
	if userID == "" || storyID == "" {
		return RetellResult{}, fmt.Errorf("%w: user id and story id are required", ErrValidation)
	}

	s, err := e.store.GetStory(ctx, userID, storyID)
	if err != nil {
		var notFound storystore.NotFoundError
		if errors.As(err, &notFound) {
			return RetellResult{
				Success: false,
				Message: "I couldn't find that story. Could you tell me which one you meant?",
			}, nil
		}
		e.logger.Error("story load failed for retelling", "story_id", storyID, "error", err)
		return RetellResult{
			Success: false,
			Message: "I had trouble reaching your stories just now. Could we try again in a moment?",
		}, nil
	}

	if err := e.store.TouchAccess(ctx, s.ID, e.now()); err != nil {
		e.logger.Warn("access stat update failed", "story_id", s.ID, "error", err)
	}

	return RetellResult{Success: true, Story: s}, nil
}
