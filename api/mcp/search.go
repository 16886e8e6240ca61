package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/hearthside/loom/pkg/story"
)

var (
	searchToolName    = "search_stories"
	searchDescription = "Search a user's saved life stories by free text. Returns brief summaries of the most relevant stories and a suggested conversational response."
)

// SearchInput represents the input arguments for the search_stories tool.
type SearchInput struct {
	UserID string `json:"user_id" jsonschema:"the id of the storytelling user"`
	Query  string `json:"query" jsonschema:"the search query text to find relevant stories"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of stories to return (default: 3)"`
}

// SearchOutput represents the output of the search_stories tool.
type SearchOutput struct {
	Query             string        `json:"query"`
	Found             bool          `json:"found"`
	Stories           []story.Brief `json:"stories"`
	SuggestedResponse string        `json:"suggested_response,omitempty"`
	Message           string        `json:"message,omitempty"`
}

// handleSearchStories processes a story search request.
func (s *Server) handleSearchStories(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger

	limit := input.Limit
	if limit <= 0 {
		limit = 3
	}

	logger.Debug("MCP story search request",
		zap.String("user_id", input.UserID),
		zap.String("query", input.Query),
		zap.Int("limit", limit),
	)

	result, err := s.config.Engine.SearchUserStories(ctx, input.UserID, input.Query, limit)
	if err != nil {
		logger.Error("story search failed", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to search stories: %v", err)},
			},
		}, SearchOutput{}, nil
	}

	output := SearchOutput{
		Query:             input.Query,
		Found:             result.Found,
		Stories:           result.Stories,
		SuggestedResponse: result.SuggestedResponse,
		Message:           result.Message,
	}
	if output.Stories == nil {
		output.Stories = []story.Brief{}
	}

	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
