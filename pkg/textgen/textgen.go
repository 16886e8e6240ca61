// Package textgen provides the text generation capability the engine
// delegates to for tone analysis, narrative synthesis, title generation, and
// entity re-extraction.
//
// Every engine call site pairs a Generate call with a deterministic
// fallback, so generation failures degrade output quality without ever
// blocking the pipeline. A nil Generator is a valid configuration.
package textgen

import (
	"context"
	"errors"
	"strings"
)

// ErrGeneration is returned when a text generation call fails.
var ErrGeneration = errors.New("text generation failed")

// Options tunes a single generation call.
type Options struct {
	// MaxTokens caps the response length. Providers apply their own
	// default when zero.
	MaxTokens int

	// StyleHint is an optional style directive prepended to the prompt
	// (e.g. a tone preset's guidance).
	StyleHint string

	// JSON requires a strict-JSON response. Providers that support a
	// native JSON mode use it; others append an instruction.
	JSON bool
}

// Generator produces text from a prompt.
type Generator interface {
	// Generate returns the model's text response for the prompt.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)

	// Close releases any resources held by the generator.
	Close() error
}

// ExtractJSON pulls a JSON object out of a model response that may be
// wrapped in markdown code fences or surrounding prose. Returns the raw
// response unchanged when no object brackets are found.
func ExtractJSON(response string) string {
	start := strings.Index(response, "{")
	if start < 0 {
		return response
	}
	end := strings.LastIndex(response, "}")
	if end <= start {
		return response
	}
	return response[start : end+1]
}
