package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hearthside/loom/pkg/record"
	"github.com/hearthside/loom/pkg/textgen"
)

// Contradiction flags a factual conflict between a story's recorded dates
// and a newly appended memory. It is surfaced to the caller, never resolved
// automatically: the storyteller decides which version is true.
type Contradiction struct {
	Type     string `json:"type"`
	Original string `json:"original"`
	New      string `json:"new"`
	Message  string `json:"message"`
}

// ContradictionTypeDate marks a year conflict between two date strings that
// describe the same referent.
const ContradictionTypeDate = "date"

var yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// detectDateContradictions compares every existing date string against every
// incoming one and flags pairs that carry differing four-digit years while
// sharing at least one substantive word. Without the shared word, differing
// years usually describe unrelated happenings rather than two accounts of
// the same one.
func detectDateContradictions(existing, incoming []string) []Contradiction {
	var conflicts []Contradiction
	for _, oldDate := range existing {
		oldYear := yearPattern.FindString(oldDate)
		if oldYear == "" {
			continue
		}
		for _, newDate := range incoming {
			newYear := yearPattern.FindString(newDate)
			if newYear == "" || newYear == oldYear {
				continue
			}
			if sharedWord(oldDate, newDate) == "" {
				continue
			}
			conflicts = append(conflicts, Contradiction{
				Type:     ContradictionTypeDate,
				Original: oldDate,
				New:      newDate,
				Message: fmt.Sprintf(
					"I have this as %q, but the new memory says %q. Which year was it?",
					oldDate, newDate,
				),
			})
		}
	}
	return conflicts
}

// clarificationMessage joins per-conflict messages into one user-facing ask.
func clarificationMessage(conflicts []Contradiction) string {
	messages := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		messages = append(messages, c.Message)
	}
	return "Before I add that, I want to make sure I have the dates right. " +
		strings.Join(messages, " ")
}

// sharedWord returns the first lowercase word longer than three characters
// that appears in both strings, or "" when there is none. Years themselves
// don't count as shared words.
func sharedWord(a, b string) string {
	wordsA := substantiveWords(a)
	for word := range substantiveWords(b) {
		if _, ok := wordsA[word]; ok {
			return word
		}
	}
	return ""
}

func substantiveWords(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.Trim(field, ".,;:!?\"'()")
		if len(word) > 3 && !yearPattern.MatchString(word) {
			words[word] = struct{}{}
		}
	}
	return words
}

// extractEntities pulls people, places, dates, and events out of free memory
// text for the contradiction check and the append entity merge. Extraction
// failing means empty sets: the check passes and the merge becomes a no-op.
func (e *Engine) extractEntities(ctx context.Context, memoryText string) record.Entities {
	if e.generator == nil {
		return record.Entities{}
	}

	prompt := fmt.Sprintf(`Extract the entities from this memory:

%s

Return ONLY valid JSON with these fields:

{
  "people": ["names or family roles mentioned"],
  "places": ["locations mentioned"],
  "dates": ["dates or years mentioned, with surrounding context words"],
  "events": ["life events mentioned"]
}`, memoryText)

	response, err := e.generator.Generate(ctx, prompt, textgen.Options{
		MaxTokens: 512,
		JSON:      true,
	})
	if err != nil {
		e.logger.Warn("entity extraction failed, continuing with empty entities", "error", err)
		return record.Entities{}
	}

	var entities record.Entities
	if err := json.Unmarshal([]byte(textgen.ExtractJSON(response)), &entities); err != nil {
		e.logger.Warn("entity extraction returned malformed JSON, continuing with empty entities", "error", err)
		return record.Entities{}
	}
	return entities
}

// mergeTerms appends the incoming terms absent from existing, preserving
// existing order and first-seen casing.
func mergeTerms(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, term := range existing {
		seen[record.Normalize(term)] = struct{}{}
	}
	merged := existing
	for _, term := range incoming {
		n := record.Normalize(term)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		merged = append(merged, term)
	}
	return merged
}
