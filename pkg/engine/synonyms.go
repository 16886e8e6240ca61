package engine

import "github.com/hearthside/loom/pkg/record"

// synonymTable maps a canonical term to the normalized terms that count as
// the same concept. Membership is exact after normalization — substring
// containment produced false positives like "grandad" matching "dad".
type synonymTable map[string][]string

// personSynonyms groups family terms an elderly storyteller uses
// interchangeably across turns.
var personSynonyms = synonymTable{
	"father":      {"father", "dad", "daddy", "papa", "pop", "pa"},
	"mother":      {"mother", "mom", "mommy", "mama", "ma", "mum"},
	"grandfather": {"grandfather", "grandpa", "granddad", "gramps", "opa", "nonno"},
	"grandmother": {"grandmother", "grandma", "granny", "nana", "oma", "nonna"},
	"wife":        {"wife", "my wife"},
	"husband":     {"husband", "my husband"},
	"son":         {"son", "my son", "my boy"},
	"daughter":    {"daughter", "my daughter", "my girl"},
}

// eventSynonyms groups event phrasings that refer to the same life event.
var eventSynonyms = synonymTable{
	"death":       {"death", "passed away", "passing", "died", "funeral", "burial"},
	"birth":       {"birth", "born", "delivery", "newborn"},
	"wedding":     {"wedding", "marriage", "married", "got married"},
	"hospital":    {"hospital", "clinic", "emergency room", "icu"},
	"immigration": {"immigration", "immigrated", "emigrated", "came to america", "crossed over"},
	"military":    {"military", "war", "deployed", "enlisted", "drafted", "served"},
	"graduation":  {"graduation", "graduated", "commencement", "diploma"},
	"retirement":  {"retirement", "retired"},
}

// canonicalize returns the canonical term for a normalized entity term, or
// "" when the term belongs to no synonym set.
func canonicalize(table synonymTable, term string) string {
	for canonical, members := range table {
		for _, member := range members {
			if member == term {
				return canonical
			}
		}
	}
	return ""
}

// shareSynonym reports whether any term in a and any term in b canonicalize
// to the same concept.
func shareSynonym(table synonymTable, a, b []string) bool {
	seen := make(map[string]struct{})
	for _, term := range a {
		if canonical := canonicalize(table, record.Normalize(term)); canonical != "" {
			seen[canonical] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return false
	}
	for _, term := range b {
		if canonical := canonicalize(table, record.Normalize(term)); canonical != "" {
			if _, ok := seen[canonical]; ok {
				return true
			}
		}
	}
	return false
}
