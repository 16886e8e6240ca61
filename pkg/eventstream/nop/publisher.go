// Package nop provides a no-op event publisher for deployments without an
// event stream backend.
package nop

import (
	"context"

	"github.com/hearthside/loom/pkg/eventstream"
)

// Publisher discards all events.
type Publisher struct{}

// New creates a no-op publisher.
func New() *Publisher {
	return &Publisher{}
}

// PublishStory discards the event.
func (p *Publisher) PublishStory(_ context.Context, _ *eventstream.StoryEvent) error {
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
