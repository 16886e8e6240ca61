package testutils

import (
	"context"
	"strings"

	"github.com/hearthside/loom/pkg/embeddings"
)

// MockEmbedder is a test embedder that returns predictable embeddings.
type MockEmbedder struct {
	// Embeddings maps a text substring to the vector returned when the
	// input contains it.
	Embeddings map[string][]float32

	// Default is returned when no substring matches.
	Default []float32

	// FailAll causes every Embed call to return ErrEmbedding.
	FailAll bool

	// Texts accumulates every input passed to Embed.
	Texts []string
}

// NewMockEmbedder creates a new mock embedder.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    []float32{0.1, 0.2, 0.3},
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.Texts = append(m.Texts, text)
	if m.FailAll {
		return nil, embeddings.ErrEmbedding
	}
	for key, vector := range m.Embeddings {
		if strings.Contains(text, key) {
			return vector, nil
		}
	}
	return m.Default, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}
