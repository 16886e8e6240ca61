package testutils

import (
	"context"
	"strings"

	"github.com/hearthside/loom/pkg/textgen"
)

// MockGenerator is a test text generator that matches prompts by substring
// and returns scripted responses.
type MockGenerator struct {
	// Responses maps a prompt substring to the response returned when the
	// prompt contains it. First match in Order wins; Order preserves
	// insertion order of Script calls.
	Responses map[string]string
	Order     []string

	// Default is returned when no substring matches. Empty Default with no
	// match returns ErrGeneration.
	Default string

	// FailAll causes every Generate call to return ErrGeneration.
	FailAll bool

	// Prompts accumulates every prompt passed to Generate.
	Prompts []string
}

// NewMockGenerator creates a new mock generator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{Responses: make(map[string]string)}
}

// Script registers a response for prompts containing the given substring.
func (m *MockGenerator) Script(promptContains, response string) *MockGenerator {
	if _, ok := m.Responses[promptContains]; !ok {
		m.Order = append(m.Order, promptContains)
	}
	m.Responses[promptContains] = response
	return m
}

func (m *MockGenerator) Generate(_ context.Context, prompt string, _ textgen.Options) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.FailAll {
		return "", textgen.ErrGeneration
	}
	for _, key := range m.Order {
		if strings.Contains(prompt, key) {
			return m.Responses[key], nil
		}
	}
	if m.Default != "" {
		return m.Default, nil
	}
	return "", textgen.ErrGeneration
}

func (m *MockGenerator) Close() error {
	return nil
}
