// Package engine implements the memory aggregation and story synthesis
// pipeline: it clusters per-turn memory records into topic groups, scores
// and narrates the groups that qualify, and governs the versioned append
// lifecycle of the stories it creates.
//
// External capabilities (text generation, embedding, event publishing) are
// injected interfaces, and every call into one is paired with a
// deterministic fallback: a slow or failing capability degrades output
// quality but never aborts the pipeline. Only the story store is required.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/hearthside/loom/pkg/embeddings"
	"github.com/hearthside/loom/pkg/eventstream"
	"github.com/hearthside/loom/pkg/storystore"
	"github.com/hearthside/loom/pkg/textgen"
)

// Config holds the engine's dependencies.
type Config struct {
	// Store is the durable story boundary. Required.
	Store storystore.Store

	// Generator produces narrative prose, tone analysis, titles, and
	// entity re-extraction. Optional; nil means every synthesis call
	// takes its deterministic fallback.
	Generator textgen.Generator

	// Embedder produces story and query embeddings. Optional; nil means
	// stories persist without embeddings and search is lexical-only.
	Embedder embeddings.Embedder

	// Publisher receives story lifecycle events. Optional.
	Publisher eventstream.Publisher

	// Logger receives engine diagnostics. Optional; defaults to the
	// default slog logger.
	Logger *slog.Logger
}

// Engine is the memory aggregation and story synthesis engine.
type Engine struct {
	store     storystore.Store
	generator textgen.Generator
	embedder  embeddings.Embedder
	publisher eventstream.Publisher
	logger    *slog.Logger

	// userLocks serializes aggregation runs per user; storyLocks
	// serializes appends per story. Both keep version numbers monotonic
	// and prevent duplicate stories from concurrent runs.
	userLocks  *keyedMutex
	storyLocks *keyedMutex

	now func() time.Time
}

// Option customizes engine construction.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine from the given configuration.
func New(c Config, opts ...Option) *Engine {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		store:      c.Store,
		generator:  c.Generator,
		embedder:   c.Embedder,
		publisher:  c.Publisher,
		logger:     logger,
		userLocks:  newKeyedMutex(),
		storyLocks: newKeyedMutex(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// publish sends a story event when a publisher is configured. Failures are
// logged and swallowed.
func (e *Engine) publish(ctx context.Context, event *eventstream.StoryEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishStory(ctx, event); err != nil {
		e.logger.Warn("story event publish failed",
			"event_type", event.EventType,
			"story_id", event.StoryID,
			"error", err,
		)
	}
}
