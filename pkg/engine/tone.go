package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hearthside/loom/pkg/story"
	"github.com/hearthside/loom/pkg/textgen"
)

// toneAnalysis is the tone classification for one topic group.
type toneAnalysis struct {
	Tone          string   `json:"tone"`
	EmotionalTags []string `json:"emotional_tags"`
}

// neutralTone is the fallback when analysis fails or yields nothing usable.
func neutralTone() toneAnalysis {
	return toneAnalysis{Tone: story.ToneNeutral, EmotionalTags: []string{}}
}

const maxEmotionalTags = 3

// analyzeTone classifies the emotional tone of a group's factual text.
// Tone analysis never blocks story creation: any failure (no generator,
// call error, malformed response) falls back to neutral with no tags.
func (e *Engine) analyzeTone(ctx context.Context, groupFacts string) toneAnalysis {
	if e.generator == nil {
		return neutralTone()
	}

	prompt := fmt.Sprintf(`These are facts from someone's life memories:

%s

Classify the emotional tone. Return ONLY valid JSON with these fields:

{
  "tone": "one of: %s, neutral",
  "emotional_tags": ["up to three short emotion words, e.g. loss, pride, longing"]
}`, groupFacts, joinPresets())

	response, err := e.generator.Generate(ctx, prompt, textgen.Options{
		MaxTokens: 256,
		JSON:      true,
	})
	if err != nil {
		e.logger.Warn("tone analysis failed, using neutral", "error", err)
		return neutralTone()
	}

	var analysis toneAnalysis
	if err := json.Unmarshal([]byte(textgen.ExtractJSON(response)), &analysis); err != nil {
		e.logger.Warn("tone analysis returned malformed JSON, using neutral", "error", err)
		return neutralTone()
	}

	if analysis.Tone == "" {
		analysis.Tone = story.ToneNeutral
	}
	if analysis.Tone != story.ToneNeutral && !story.KnownTone(analysis.Tone) {
		analysis.Tone = story.ToneNeutral
	}
	if analysis.EmotionalTags == nil {
		analysis.EmotionalTags = []string{}
	}
	if len(analysis.EmotionalTags) > maxEmotionalTags {
		analysis.EmotionalTags = analysis.EmotionalTags[:maxEmotionalTags]
	}
	return analysis
}
