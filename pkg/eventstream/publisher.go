package eventstream

import "context"

// Publisher publishes story lifecycle events to an event stream backend.
type Publisher interface {
	PublishStory(ctx context.Context, event *StoryEvent) error
	Close() error
}
