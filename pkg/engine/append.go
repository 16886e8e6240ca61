package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hearthside/loom/pkg/eventstream"
	"github.com/hearthside/loom/pkg/story"
	"github.com/hearthside/loom/pkg/storystore"
	"github.com/hearthside/loom/pkg/textgen"
)

// changeSummaryLimit bounds the version log's change summary.
const changeSummaryLimit = 100

// AppendResult reports an append attempt. A blocked append
// (NeedsClarification) is a normal outcome, not an error: the conversation
// layer asks the user to resolve the contradictions and may retry.
type AppendResult struct {
	Success            bool            `json:"success"`
	Story              *story.Story    `json:"story,omitempty"`
	NeedsClarification bool            `json:"needs_clarification,omitempty"`
	Contradictions     []Contradiction `json:"contradictions,omitempty"`
	Message            string          `json:"message"`
}

// AppendToStory weaves new information into an existing story:
// contradiction check, narrative re-synthesis, entity merge, then a
// versioned persist. Appends are serialized per story so version numbers
// stay monotonic under concurrent calls.
//
// The story's pre-mutation content and narrative are snapshotted into the
// version log before any field changes; version increases by exactly 1.
func (e *Engine) AppendToStory(ctx context.Context, userID string, storyID story.ID, newInfo string, checkContradictions bool) (AppendResult, error) {
	if userID == "" || storyID == "" {
		return AppendResult{}, fmt.Errorf("%w: user id and story id are required", ErrValidation)
	}
	if strings.TrimSpace(newInfo) == "" {
		return AppendResult{}, fmt.Errorf("%w: new information text is required", ErrValidation)
	}

	unlock := e.storyLocks.Lock(string(storyID))
	defer unlock()

	s, err := e.store.GetStory(ctx, userID, storyID)
	if err != nil {
		var notFound storystore.NotFoundError
		if errors.As(err, &notFound) {
			return AppendResult{
				Success: false,
				Message: "I couldn't find that story. Could you tell me which one you meant?",
			}, nil
		}
		e.logger.Error("story load failed for append", "story_id", storyID, "error", err)
		return AppendResult{
			Success: false,
			Message: "I had trouble reaching your stories just now. Could we try again in a moment?",
		}, nil
	}

	extracted := e.extractEntities(ctx, newInfo)

	if checkContradictions {
		if conflicts := detectDateContradictions(s.Dates, extracted.Dates); len(conflicts) > 0 {
			e.logger.Info("append blocked on contradictions",
				"story_id", storyID,
				"conflicts", len(conflicts),
			)
			return AppendResult{
				Success:            false,
				NeedsClarification: true,
				Contradictions:     conflicts,
				Message:            clarificationMessage(conflicts),
			}, nil
		}
	}

	now := e.now()
	snapshot := &story.Version{
		StoryID:       s.ID,
		VersionNumber: s.Version,
		Content:       s.Content,
		Narrative:     s.Narrative,
		ChangeType:    story.ChangeAppend,
		ChangeSummary: truncate(newInfo, changeSummaryLimit),
		CreatedAt:     now,
	}
	if err := e.store.AppendVersion(ctx, snapshot); err != nil {
		e.logger.Error("version snapshot failed", "story_id", storyID, "error", err)
		return AppendResult{
			Success: false,
			Message: "I had trouble saving that addition. Could we try again in a moment?",
		}, nil
	}

	s.Narrative = e.reSynthesizeNarrative(ctx, s.Narrative, newInfo, s.Tone)
	s.Content = s.Content + "\n\n" + newInfo
	s.People = mergeTerms(s.People, extracted.People)
	s.Places = mergeTerms(s.Places, extracted.Places)
	s.Dates = mergeTerms(s.Dates, extracted.Dates)
	s.Events = mergeTerms(s.Events, extracted.Events)
	s.Relationships = mergeRelationships(s.Relationships, extracted.Relationships)
	s.Version++
	s.UpdatedAt = now
	if vector := e.embed(ctx, s.Content+"\n"+s.Title); vector != nil {
		s.Embedding = vector
	}

	if err := e.store.UpdateStory(ctx, s); err != nil {
		e.logger.Error("story update failed after snapshot", "story_id", storyID, "error", err)
		return AppendResult{
			Success: false,
			Message: "I had trouble saving that addition. Could we try again in a moment?",
		}, nil
	}

	e.publish(ctx, &eventstream.StoryEvent{
		EventType:         eventstream.EventTypeStoryAppended,
		UserID:            userID,
		StoryID:           s.ID,
		Title:             s.Title,
		Version:           s.Version,
		SourceMemoryCount: len(s.SourceMemoryIDs),
	})

	return AppendResult{
		Success: true,
		Story:   s,
		Message: fmt.Sprintf("I've added that to %q.", s.Title),
	}, nil
}

// reSynthesizeNarrative weaves new information into an existing narrative
// while preserving its tone. On failure the new text is appended verbatim
// after a blank line.
func (e *Engine) reSynthesizeNarrative(ctx context.Context, narrative, newInfo, tone string) string {
	fallback := narrative + "\n\n" + newInfo
	if e.generator == nil {
		return fallback
	}

	prompt := fmt.Sprintf(`This is an existing first-person life story:

%s

New information to weave in:

%s

Rewrite the story as one flowing first-person narrative that includes the
new information where it fits chronologically. %s
Keep every existing fact; invent nothing.`, narrative, newInfo, styleDirective(tone))

	rewritten, err := e.generator.Generate(ctx, prompt, textgen.Options{
		MaxTokens: 1024,
		StyleHint: tone,
	})
	if err != nil {
		e.logger.Warn("narrative re-synthesis failed, appending verbatim", "error", err)
		return fallback
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return fallback
	}
	return rewritten
}
