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
	retellToolName    = "retell_story"
	retellDescription = "Fetch one of a user's saved life stories in full, for retelling back to them in conversation. Refreshes the story's access statistics."
)

// RetellInput represents the input arguments for the retell_story tool.
type RetellInput struct {
	UserID  string `json:"user_id" jsonschema:"the id of the storytelling user"`
	StoryID string `json:"story_id" jsonschema:"the id of the story to retell"`
}

// RetellOutput represents the output of the retell_story tool.
type RetellOutput struct {
	Success bool         `json:"success"`
	Story   *story.Story `json:"story,omitempty"`
	Message string       `json:"message,omitempty"`
}

// handleRetellStory processes a story retelling request.
func (s *Server) handleRetellStory(ctx context.Context, req *mcp.CallToolRequest, input RetellInput) (*mcp.CallToolResult, RetellOutput, error) {
	logger := s.config.Logger

	logger.Debug("MCP retell request",
		zap.String("user_id", input.UserID),
		zap.String("story_id", input.StoryID),
	)

	result, err := s.config.Engine.GetStoryForRetelling(ctx, input.UserID, story.ID(input.StoryID))
	if err != nil {
		logger.Error("retelling failed", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to fetch story: %v", err)},
			},
		}, RetellOutput{}, nil
	}

	output := RetellOutput{
		Success: result.Success,
		Story:   result.Story,
		Message: result.Message,
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal retell output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize story: %v", err)},
			},
		}, RetellOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
