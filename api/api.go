package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/hearthside/loom/pkg/engine"
	"github.com/hearthside/loom/pkg/storystore"
)

// ErrorResponse is the JSON error payload for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the API server for the loom story engine.
type Server struct {
	config Config
	engine *engine.Engine
	store  storystore.Store
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The store is injected alongside the engine so read-only endpoints
// (version history) can query it directly.
func NewServer(config Config, eng *engine.Engine, store storystore.Store, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		engine: eng,
		store:  store,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/v1/users/:userID/memories/aggregate", s.handleAggregate)
	app.Post("/v1/users/:userID/stories", s.handleCreateStory)
	app.Get("/v1/users/:userID/stories/search", s.handleSearch)
	app.Get("/v1/users/:userID/stories/:storyID/retelling", s.handleRetelling)
	app.Post("/v1/users/:userID/stories/:storyID/append", s.handleAppend)
	app.Get("/v1/users/:userID/stories/:storyID/versions", s.handleListVersions)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
