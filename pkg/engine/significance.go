package engine

import "strings"

// significantEventKeywords gate a small group into a story: any of these in
// the group's events text qualifies it even below the size threshold.
var significantEventKeywords = []string{
	"death", "birth", "wedding", "marriage", "divorce", "moved",
	"graduation", "accident", "diagnosis", "surgery", "retirement",
	"promotion", "fired", "immigrated", "emigrated", "war", "deployed",
	"enlisted",
}

// majorEventKeywords add a significance point on top of the size-based
// score.
var majorEventKeywords = []string{
	"death", "birth", "wedding", "moved", "immigrated", "war",
}

// minGroupSize is the membership count at which a group qualifies without
// any significant-event keyword.
const minGroupSize = 3

// eventsText flattens a group's event terms for keyword matching.
func eventsText(g *TopicGroup) string {
	return strings.ToLower(strings.Join(g.Events(), " "))
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// qualifies reports whether a topic group should become a story: at least
// minGroupSize member records, or any significant-event keyword in its
// events text.
func qualifies(g *TopicGroup) bool {
	if len(g.Memories) >= minGroupSize {
		return true
	}
	return containsAny(eventsText(g), significantEventKeywords)
}

// significance rates a group's narrative importance on a 3..5 scale: 3
// base, +1 for more than 5 records, +1 more for more than 10, +1 for a
// major event keyword, clamped at 5. The floor of 3 reflects that any group
// worth persisting is already significant to the storyteller.
func significance(g *TopicGroup) int {
	rating := 3
	if len(g.Memories) > 5 {
		rating++
	}
	if len(g.Memories) > 10 {
		rating++
	}
	if containsAny(eventsText(g), majorEventKeywords) {
		rating++
	}
	if rating > 5 {
		rating = 5
	}
	return rating
}
