// Package record defines the memory record contract between the upstream
// per-turn extraction step and the aggregation engine.
//
// A MemoryRecord is a structured extraction of entities (people, places,
// dates, events, relationships) from one conversational turn. Records are
// immutable once created: the engine consumes them, never mutates them.
package record

import (
	"time"

	"github.com/google/uuid"
)

// ID uniquely identifies a memory record.
type ID string

// NewID generates a new unique record ID.
func NewID() ID {
	return ID(uuid.New().String())
}

// Relationship is a directed relation between two people, e.g.
// {From: "Giuseppe", To: "Maria", Relation: "father"}.
type Relationship struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// Entities holds the structured facts extracted from a single turn.
// All slices may be empty; Narrator is optional.
type Entities struct {
	Narrator      string         `json:"narrator,omitempty"`
	People        []string       `json:"people,omitempty"`
	Places        []string       `json:"places,omitempty"`
	Dates         []string       `json:"dates,omitempty"`
	Events        []string       `json:"events,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty"`
}

// IsEmpty reports whether no entities of any category were extracted.
func (e Entities) IsEmpty() bool {
	return len(e.People) == 0 && len(e.Places) == 0 && len(e.Dates) == 0 &&
		len(e.Events) == 0 && len(e.Relationships) == 0
}

// MemoryRecord is one turn's worth of extracted facts.
type MemoryRecord struct {
	ID             ID        `json:"id"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
	Entities       Entities  `json:"entities"`
}
