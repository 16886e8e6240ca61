package testutils

import (
	"context"
	"sync"

	"github.com/hearthside/loom/pkg/eventstream"
)

// MockPublisher is a test event publisher that records published events.
type MockPublisher struct {
	mu     sync.Mutex
	Events []*eventstream.StoryEvent

	// FailAll causes every publish to return ErrInvalidEvent.
	FailAll bool
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishStory(_ context.Context, event *eventstream.StoryEvent) error {
	if m.FailAll {
		return eventstream.ErrInvalidEvent
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

// Published returns a snapshot of the events published so far.
func (m *MockPublisher) Published() []*eventstream.StoryEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*eventstream.StoryEvent, len(m.Events))
	copy(out, m.Events)
	return out
}

func (m *MockPublisher) Close() error {
	return nil
}
