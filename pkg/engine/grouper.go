package engine

import (
	"time"

	"github.com/hearthside/loom/pkg/record"
)

// joinThreshold is the topic similarity score above which a candidate
// memory joins a group.
const joinThreshold = 0.3

// Entity overlap weights for the topic similarity score.
const (
	peopleWeight = 0.4
	placesWeight = 0.3
	eventsWeight = 0.3

	synonymBonus = 0.2
)

// TopicGroup is a transient cluster of memory records sharing a topic. It
// exists only for the duration of one aggregation run and is never
// persisted.
type TopicGroup struct {
	Memories []*record.MemoryRecord

	// Entity unions over all member records: a first-seen-casing ordered
	// list per category, with a normalized set alongside for overlap
	// scoring.
	people *termSet
	places *termSet
	events *termSet

	// DateRange spans the member records' creation times.
	EarliestAt time.Time
	LatestAt   time.Time
}

// People returns the group's deduplicated people terms in first-seen order.
func (g *TopicGroup) People() []string { return g.people.terms }

// Places returns the group's deduplicated place terms in first-seen order.
func (g *TopicGroup) Places() []string { return g.places.terms }

// Events returns the group's deduplicated event terms in first-seen order.
func (g *TopicGroup) Events() []string { return g.events.terms }

// termSet is an ordered set of entity terms. Order preserves first-seen
// casing for rendering; membership tests use normalized terms.
type termSet struct {
	terms      []string
	normalized map[string]struct{}
}

func newTermSet() *termSet {
	return &termSet{normalized: make(map[string]struct{})}
}

func (s *termSet) add(terms ...string) {
	for _, term := range terms {
		n := record.Normalize(term)
		if n == "" {
			continue
		}
		if _, ok := s.normalized[n]; ok {
			continue
		}
		s.normalized[n] = struct{}{}
		s.terms = append(s.terms, term)
	}
}

// jaccard computes |A∩B| / |A∪B| over normalized terms, 0 when both empty.
func (s *termSet) jaccard(terms []string) float64 {
	other := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if n := record.Normalize(term); n != "" {
			other[n] = struct{}{}
		}
	}

	if len(s.normalized) == 0 && len(other) == 0 {
		return 0
	}

	intersection := 0
	for n := range other {
		if _, ok := s.normalized[n]; ok {
			intersection++
		}
	}
	union := len(s.normalized) + len(other) - intersection
	return float64(intersection) / float64(union)
}

func newTopicGroup(seed *record.MemoryRecord) *TopicGroup {
	g := &TopicGroup{
		people:     newTermSet(),
		places:     newTermSet(),
		events:     newTermSet(),
		EarliestAt: seed.CreatedAt,
		LatestAt:   seed.CreatedAt,
	}
	g.absorb(seed)
	return g
}

func (g *TopicGroup) absorb(m *record.MemoryRecord) {
	g.Memories = append(g.Memories, m)
	g.people.add(m.Entities.People...)
	g.places.add(m.Entities.Places...)
	g.events.add(m.Entities.Events...)

	if m.CreatedAt.Before(g.EarliestAt) {
		g.EarliestAt = m.CreatedAt
	}
	if m.CreatedAt.After(g.LatestAt) {
		g.LatestAt = m.CreatedAt
	}
}

// similarity scores a candidate record against the group: weighted Jaccard
// entity overlap plus synonym bonuses, clamped to [0,1].
func (g *TopicGroup) similarity(m *record.MemoryRecord) float64 {
	score := peopleWeight*g.people.jaccard(m.Entities.People) +
		placesWeight*g.places.jaccard(m.Entities.Places) +
		eventsWeight*g.events.jaccard(m.Entities.Events)

	if shareSynonym(personSynonyms, g.people.terms, m.Entities.People) {
		score += synonymBonus
	}
	if shareSynonym(eventSynonyms, g.events.terms, m.Entities.Events) {
		score += synonymBonus
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// groupMemories clusters records into topic groups with a single greedy
// pass in input order: each unprocessed record seeds a group, then every
// later unprocessed record joins if its similarity against the
// (accumulating) group clears the threshold. Each record lands in exactly
// one group. The pass is order-dependent and performs no re-merge of groups
// formed later in the scan.
//
// All clustering state is local to the call; nothing is shared across runs.
func groupMemories(memories []*record.MemoryRecord) []*TopicGroup {
	var groups []*TopicGroup
	processed := make([]bool, len(memories))

	for i, seed := range memories {
		if processed[i] {
			continue
		}
		processed[i] = true
		group := newTopicGroup(seed)

		for j := i + 1; j < len(memories); j++ {
			if processed[j] {
				continue
			}
			if group.similarity(memories[j]) > joinThreshold {
				group.absorb(memories[j])
				processed[j] = true
			}
		}

		groups = append(groups, group)
	}

	return groups
}
