package storystore

import "github.com/hearthside/loom/pkg/story"

// NotFoundError is returned when a story doesn't exist in the store, or
// belongs to a different user.
type NotFoundError struct {
	ID story.ID
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "story not found"
	}
	return "story not found: " + string(e.ID)
}
