// Package rank provides the shared relevance scoring used by story store
// drivers that combine semantic and lexical search in-process.
package rank

import (
	"math"
	"strings"

	"github.com/hearthside/loom/pkg/story"
)

// Weights for combining the two signals. When no embedding is available the
// lexical score stands alone.
const (
	semanticWeight = 0.7
	lexicalWeight  = 0.3
)

// Cosine computes cosine similarity between two vectors. Returns 0 when the
// vectors differ in length or either has zero magnitude.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Lexical scores a story against query text by token overlap across the
// story's title, summaries, content, and entity fields. Tokens of three or
// fewer characters are ignored. The score is the fraction of query tokens
// found, in [0,1].
func Lexical(queryText string, s *story.Story) float32 {
	tokens := Tokens(queryText)
	if len(tokens) == 0 {
		return 0
	}

	var b strings.Builder
	b.WriteString(s.Title)
	b.WriteByte(' ')
	b.WriteString(s.Summary)
	b.WriteByte(' ')
	b.WriteString(s.BriefSummary)
	b.WriteByte(' ')
	b.WriteString(s.Content)
	for _, group := range [][]string{s.People, s.Places, s.Events, s.Dates} {
		for _, term := range group {
			b.WriteByte(' ')
			b.WriteString(term)
		}
	}
	haystack := strings.ToLower(b.String())

	matched := 0
	for _, token := range tokens {
		if strings.Contains(haystack, token) {
			matched++
		}
	}
	return float32(matched) / float32(len(tokens))
}

// Combine merges a lexical score with an optional semantic score. A negative
// semantic score means "no semantic signal" and yields the lexical score
// unweighted.
func Combine(lexical, semantic float32) float32 {
	if semantic < 0 {
		return lexical
	}
	return semanticWeight*semantic + lexicalWeight*lexical
}

// Tokens splits query text into lowercase tokens longer than three
// characters.
func Tokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
