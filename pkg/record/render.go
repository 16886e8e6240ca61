package record

import (
	"fmt"
	"strings"
)

// Category identifies one entity category of a memory record.
type Category string

const (
	CategoryEvents        Category = "events"
	CategoryPeople        Category = "people"
	CategoryPlaces        Category = "places"
	CategoryDates         Category = "dates"
	CategoryRelationships Category = "relationships"
)

// categorySpec describes how one entity category renders into factual text.
// Upstream extractors have emitted several shapes per category over time
// (bare strings, objects with optional fields); normalizing through a single
// per-category table keeps that dispatch in one place.
type categorySpec struct {
	category Category
	label    string
	lines    func(Entities) []string
}

func joined(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return []string{strings.Join(cleaned, ", ")}
}

// renderOrder is the fixed category order for factual blocks.
var renderOrder = []categorySpec{
	{CategoryEvents, "Events", func(e Entities) []string { return joined(e.Events) }},
	{CategoryPeople, "People", func(e Entities) []string { return joined(e.People) }},
	{CategoryPlaces, "Places", func(e Entities) []string { return joined(e.Places) }},
	{CategoryDates, "Dates", func(e Entities) []string { return joined(e.Dates) }},
	{CategoryRelationships, "Relationships", func(e Entities) []string {
		var out []string
		parts := make([]string, 0, len(e.Relationships))
		for _, r := range e.Relationships {
			if r.From == "" || r.To == "" || r.Relation == "" {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s is %s of %s", r.From, r.Relation, r.To))
		}
		if len(parts) > 0 {
			out = append(out, strings.Join(parts, "; "))
		}
		return out
	}},
}

// Block renders one record's entities as a factual text block: one
// "Label: item, item" line per non-empty category, in fixed order.
func Block(m *MemoryRecord) string {
	var lines []string
	for _, spec := range renderOrder {
		for _, line := range spec.lines(m.Entities) {
			lines = append(lines, spec.label+": "+line)
		}
	}
	return strings.Join(lines, "\n")
}

// Normalize lowercases and trims an entity term for comparison.
func Normalize(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
