package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/hearthside/loom/pkg/engine"
	"github.com/hearthside/loom/pkg/record"
	"github.com/hearthside/loom/pkg/story"
)

// AggregateRequest carries a snapshot of unprocessed memory records.
type AggregateRequest struct {
	Memories []*record.MemoryRecord `json:"memories"`
}

// AggregateResponse reports the stories an aggregation run created.
type AggregateResponse struct {
	Count   int            `json:"count"`
	Stories []*story.Story `json:"stories"`
}

// CreateStoryRequest carries a directly narrated story.
type CreateStoryRequest struct {
	Title    string          `json:"title"`
	Content  string          `json:"content"`
	Entities record.Entities `json:"entities"`
}

// AppendRequest carries new information for an existing story. The
// contradiction check runs unless explicitly disabled.
type AppendRequest struct {
	Text               string `json:"text"`
	SkipContradictions bool   `json:"skip_contradictions"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleAggregate runs story aggregation over the posted memory snapshot.
func (s *Server) handleAggregate(c *fiber.Ctx) error {
	userID := c.Params("userID")

	var req AggregateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	stories, err := s.engine.AutoCreateStories(c.Context(), userID, req.Memories)
	if err != nil {
		if errors.Is(err, engine.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("aggregation failed", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "aggregation failed"})
	}

	if stories == nil {
		stories = []*story.Story{}
	}
	return c.JSON(AggregateResponse{Count: len(stories), Stories: stories})
}

// handleCreateStory creates a story from direct narration.
func (s *Server) handleCreateStory(c *fiber.Ctx) error {
	userID := c.Params("userID")

	var req CreateStoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	result, err := s.engine.CreateStoryFromConversation(c.Context(), userID, req.Title, req.Content, req.Entities)
	if err != nil {
		if errors.Is(err, engine.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("story creation failed", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "story creation failed"})
	}

	status := fiber.StatusCreated
	if !result.Success {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(result)
}

// handleSearch handles GET /v1/users/:userID/stories/search requests.
// Query parameters:
//   - query (required): the search query text
//   - limit (optional, default 3): maximum stories to return
func (s *Server) handleSearch(c *fiber.Ctx) error {
	userID := c.Params("userID")

	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query parameter is required"})
	}

	limit := 3
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "limit must be a positive integer"})
		}
		limit = parsed
	}

	result, err := s.engine.SearchUserStories(c.Context(), userID, query, limit)
	if err != nil {
		if errors.Is(err, engine.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("search failed", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "search failed"})
	}

	return c.JSON(result)
}

// handleRetelling returns the full story for the conversation layer to
// narrate back.
func (s *Server) handleRetelling(c *fiber.Ctx) error {
	userID := c.Params("userID")
	storyID := story.ID(c.Params("storyID"))

	result, err := s.engine.GetStoryForRetelling(c.Context(), userID, storyID)
	if err != nil {
		if errors.Is(err, engine.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("retelling failed", zap.String("story_id", string(storyID)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "retelling failed"})
	}

	if !result.Success {
		return c.Status(fiber.StatusNotFound).JSON(result)
	}
	return c.JSON(result)
}

// handleAppend weaves new information into an existing story.
func (s *Server) handleAppend(c *fiber.Ctx) error {
	userID := c.Params("userID")
	storyID := story.ID(c.Params("storyID"))

	var req AppendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	result, err := s.engine.AppendToStory(c.Context(), userID, storyID, req.Text, !req.SkipContradictions)
	if err != nil {
		if errors.Is(err, engine.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("append failed", zap.String("story_id", string(storyID)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "append failed"})
	}

	// A blocked append is a conversational outcome, not an HTTP error.
	return c.JSON(result)
}

// handleListVersions returns a story's append-only version log, oldest first.
func (s *Server) handleListVersions(c *fiber.Ctx) error {
	userID := c.Params("userID")
	storyID := story.ID(c.Params("storyID"))

	// Scope the lookup to the owning user before exposing the log.
	if _, err := s.store.GetStory(c.Context(), userID, storyID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "story not found"})
	}

	versions, err := s.store.ListVersions(c.Context(), storyID)
	if err != nil {
		s.logger.Error("version list failed", zap.String("story_id", string(storyID)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list versions"})
	}

	return c.JSON(map[string]any{
		"count":    len(versions),
		"versions": versions,
	})
}
