package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	providerOpenAI    = "openai"
	providerAnthropic = "anthropic"
	providerOllama    = "ollama"

	callTimeout = 30 * time.Second
)

// Config holds configuration for creating a Generator.
type Config struct {
	Provider string // "openai", "anthropic", or "ollama"
	Model    string // e.g. "gpt-4o-mini", "claude-haiku-4-5-20251001", "llama3.2"
	APIKey   string // explicit API key (highest priority)
	BaseURL  string // override base URL
}

// New creates a Generator based on the provided configuration.
// Resolution order for the API key: explicit config, then environment
// variables (OPENAI_API_KEY / ANTHROPIC_API_KEY). With no key and no
// explicit ollama selection, falls back to Ollama at localhost:11434.
func New(cfg Config) (Generator, error) {
	provider := strings.ToLower(cfg.Provider)
	model := cfg.Model

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = keyFromEnv(provider)
	}
	if apiKey == "" && provider != providerOllama {
		provider = providerOllama
	}

	switch provider {
	case providerOpenAI, "":
		if model == "" {
			model = "gpt-4o-mini"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		return &openAIGenerator{apiKey: apiKey, model: model, baseURL: baseURL}, nil

	case providerAnthropic:
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.anthropic.com"
		}
		return &anthropicGenerator{apiKey: apiKey, model: model, baseURL: baseURL}, nil

	case providerOllama:
		if model == "" {
			model = "llama3.2"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return &ollamaGenerator{model: model, baseURL: baseURL}, nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func keyFromEnv(provider string) string {
	switch provider {
	case providerAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case providerOpenAI, "":
		return os.Getenv("OPENAI_API_KEY")
	default:
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("ANTHROPIC_API_KEY")
	}
}

func buildPrompt(prompt string, opts Options) string {
	if opts.StyleHint != "" {
		prompt = opts.StyleHint + "\n\n" + prompt
	}
	return prompt
}

// --- OpenAI generator ---

type openAIGenerator struct {
	apiKey  string
	model   string
	baseURL string
}

type openAIRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat *openAIRespFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRespFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *openAIGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	reqBody := openAIRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(prompt, opts)},
		},
		MaxTokens: opts.MaxTokens,
	}
	if opts.JSON {
		reqBody.ResponseFormat = &openAIRespFormat{Type: "json_object"}
	}

	body, err := postJSON(ctx, g.baseURL+"/v1/chat/completions", reqBody, map[string]string{
		"Authorization": "Bearer " + g.apiKey,
	})
	if err != nil {
		return "", err
	}

	var result openAIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %v", ErrGeneration, err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("%w: openai: %s", ErrGeneration, result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", ErrGeneration)
	}
	return result.Choices[0].Message.Content, nil
}

func (g *openAIGenerator) Close() error { return nil }

// --- Anthropic generator ---

type anthropicGenerator struct {
	apiKey  string
	model   string
	baseURL string
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *anthropicGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	content := buildPrompt(prompt, opts)
	if opts.JSON {
		content += "\n\nReturn ONLY valid JSON, no markdown or extra text."
	}

	reqBody := anthropicRequest{
		Model:     g.model,
		MaxTokens: maxTokens,
		Messages: []chatMessage{
			{Role: "user", Content: content},
		},
	}

	body, err := postJSON(ctx, g.baseURL+"/v1/messages", reqBody, map[string]string{
		"x-api-key":         g.apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var result anthropicResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %v", ErrGeneration, err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("%w: anthropic: %s", ErrGeneration, result.Error.Message)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("%w: anthropic returned no content", ErrGeneration)
	}
	return result.Content[0].Text, nil
}

func (g *anthropicGenerator) Close() error { return nil }

// --- Ollama generator ---

type ollamaGenerator struct {
	model   string
	baseURL string
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

func (g *ollamaGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	reqBody := ollamaRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(prompt, opts)},
		},
		Stream: false,
	}
	if opts.JSON {
		reqBody.Format = "json"
	}

	body, err := postJSON(ctx, g.baseURL+"/api/chat", reqBody, nil)
	if err != nil {
		return "", err
	}

	var result ollamaResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %v", ErrGeneration, err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("%w: ollama: %s", ErrGeneration, result.Error)
	}
	return result.Message.Content, nil
}

func (g *ollamaGenerator) Close() error { return nil }

func postJSON(ctx context.Context, url string, reqBody any, headers map[string]string) ([]byte, error) {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrGeneration, err)
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGeneration, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrGeneration, resp.StatusCode, body)
	}
	return body, nil
}
