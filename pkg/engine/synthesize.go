package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hearthside/loom/pkg/record"
	"github.com/hearthside/loom/pkg/story"
	"github.com/hearthside/loom/pkg/textgen"
)

// styleDirectives give the narrative prompt a voice per tone preset.
var styleDirectives = map[string]string{
	"warm":        "Write with warmth and affection, as if telling a beloved family story by the fire.",
	"nostalgic":   "Write with gentle nostalgia, lingering on sensory details of the past.",
	"bittersweet": "Write with a bittersweet blend of loss and gratitude.",
	"joyful":      "Write with open joy and celebration.",
	"solemn":      "Write with quiet solemnity and respect.",
	"reflective":  "Write reflectively, weighing what these moments came to mean.",
	"humorous":    "Write with light humor and fondness, letting the funny moments breathe.",
	"proud":       "Write with earned pride in what was accomplished.",
}

const neutralDirective = "Write in a clear, sincere first-person voice."

func styleDirective(tone string) string {
	if d, ok := styleDirectives[tone]; ok {
		return d
	}
	return neutralDirective
}

func joinPresets() string {
	return strings.Join(story.TonePresets, ", ")
}

// buildContent renders a group's member records, oldest first, into the
// factual content block that anchors every downstream synthesis call. It is
// fully deterministic and is also the narrative fallback.
func buildContent(g *TopicGroup) string {
	memories := make([]*record.MemoryRecord, len(g.Memories))
	copy(memories, g.Memories)
	sort.SliceStable(memories, func(i, j int) bool {
		return memories[i].CreatedAt.Before(memories[j].CreatedAt)
	})

	blocks := make([]string, 0, len(memories))
	for _, m := range memories {
		if block := record.Block(m); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// synthesizeNarrative turns factual content into first-person prose in the
// given tone. On any generation failure the factual content itself is the
// narrative, so a story is never blocked on the language model.
func (e *Engine) synthesizeNarrative(ctx context.Context, content, tone string) string {
	if e.generator == nil || content == "" {
		return content
	}

	prompt := fmt.Sprintf(`These are facts from someone's life memories, oldest first:

%s

Retell them as one flowing first-person story, as the person who lived them.
%s
Keep every fact; invent nothing. Three to five paragraphs.`, content, styleDirective(tone))

	narrative, err := e.generator.Generate(ctx, prompt, textgen.Options{
		MaxTokens: 1024,
		StyleHint: tone,
	})
	if err != nil {
		e.logger.Warn("narrative synthesis failed, keeping factual content", "error", err)
		return content
	}
	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return content
	}
	return narrative
}

// titleSet is the synthesized title and the two summary granularities.
type titleSet struct {
	Title        string `json:"title"`
	Summary      string `json:"summary"`
	BriefSummary string `json:"brief_summary"`
}

// generateTitles produces a title, summary, and one-line brief for a story.
// Any generation failure falls back to deterministic composition from the
// group's top entities, field by field.
func (e *Engine) generateTitles(ctx context.Context, narrative string, g *TopicGroup) titleSet {
	fallback := fallbackTitles(g)
	if e.generator == nil {
		return fallback
	}

	prompt := fmt.Sprintf(`This is a first-person life story:

%s

Return ONLY valid JSON with these fields:

{
  "title": "an evocative title, at most eight words",
  "summary": "two to three sentences summarizing the story",
  "brief_summary": "one line, at most fifteen words"
}`, narrative)

	response, err := e.generator.Generate(ctx, prompt, textgen.Options{
		MaxTokens: 512,
		JSON:      true,
	})
	if err != nil {
		e.logger.Warn("title generation failed, composing from entities", "error", err)
		return fallback
	}

	var titles titleSet
	if err := json.Unmarshal([]byte(textgen.ExtractJSON(response)), &titles); err != nil {
		e.logger.Warn("title generation returned malformed JSON, composing from entities", "error", err)
		return fallback
	}

	if strings.TrimSpace(titles.Title) == "" {
		titles.Title = fallback.Title
	}
	if strings.TrimSpace(titles.Summary) == "" {
		titles.Summary = fallback.Summary
	}
	if strings.TrimSpace(titles.BriefSummary) == "" {
		titles.BriefSummary = fallback.BriefSummary
	}
	return titles
}

// fallbackTitles composes a title set from a group's top person, place, and
// event terms.
func fallbackTitles(g *TopicGroup) titleSet {
	person := firstTerm(g.People())
	place := firstTerm(g.Places())
	event := firstTerm(g.Events())

	var title string
	switch {
	case person != "" && event != "":
		title = fmt.Sprintf("%s and %s", person, event)
	case event != "" && place != "":
		title = fmt.Sprintf("%s in %s", event, place)
	case person != "":
		title = fmt.Sprintf("A story about %s", person)
	case event != "":
		title = event
	case place != "":
		title = fmt.Sprintf("Days in %s", place)
	default:
		title = "A story from my life"
	}

	subject := firstNonEmpty(event, person, place, "this time in my life")
	summary := fmt.Sprintf("A story about %s, drawn from %d shared memories.", subject, len(g.Memories))

	brief := firstNonEmpty(event, title)
	if event != "" && place != "" {
		brief = fmt.Sprintf("%s in %s", event, place)
	}

	return titleSet{Title: title, Summary: summary, BriefSummary: brief}
}

func firstTerm(terms []string) string {
	if len(terms) == 0 {
		return ""
	}
	return strings.TrimSpace(terms[0])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// truncate clips s to at most n runes, appending an ellipsis when clipped.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}
