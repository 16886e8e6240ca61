// Package servecmder provides the serve command for running the loom services.
package servecmder

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hearthside/loom/api"
	"github.com/hearthside/loom/api/mcp"
	"github.com/hearthside/loom/pkg/config"
	"github.com/hearthside/loom/pkg/embeddings"
	embedollama "github.com/hearthside/loom/pkg/embeddings/ollama"
	embedopenai "github.com/hearthside/loom/pkg/embeddings/openai"
	"github.com/hearthside/loom/pkg/engine"
	"github.com/hearthside/loom/pkg/eventstream"
	"github.com/hearthside/loom/pkg/eventstream/kafka"
	"github.com/hearthside/loom/pkg/eventstream/nop"
	"github.com/hearthside/loom/pkg/logger"
	"github.com/hearthside/loom/pkg/storystore"
	"github.com/hearthside/loom/pkg/storystore/inmemory"
	"github.com/hearthside/loom/pkg/storystore/postgres"
	"github.com/hearthside/loom/pkg/storystore/sqlitevec"
	"github.com/hearthside/loom/pkg/textgen"
)

type ServeCommander struct {
	listen          string
	mcpListen       string
	storageProvider string
	sqlitePath      string
	postgresDSN     string
	genProvider     string
	genModel        string
	genTarget       string
	embedProvider   string
	embedTarget     string
	embedModel      string
	embedDims       uint
	eventsProvider  string
	eventsBrokers   string
	eventsTopic     string
	noMCP           bool
	debug           bool
	logger          *zap.Logger
}

const serveLongDesc string = `Run the loom story services.

Starts the story API server and, unless disabled, the MCP server that
exposes story search and retelling as tools for conversation agents.

Configuration comes from CLI flags, LOOM_* environment variables, and
config.toml in the .loom/ directory, in that order of precedence.

Examples:
  loom serve
  loom serve --listen :8090 --mcp-listen :8091
  loom serve --storage-provider sqlite --sqlite ./loom.db
  loom serve --storage-provider postgres --postgres-dsn postgres://localhost/loom
  loom serve --events-provider kafka --events-brokers localhost:9092`

const serveShortDesc string = "Run the loom story services"

// flagKeys are the registry entries the serve command binds to viper.
var flagKeys = []string{
	config.FlagAPIListen,
	config.FlagStorageProvider,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagGenProvider,
	config.FlagGenModel,
	config.FlagGenTarget,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

			cmder.resolve(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagGenProvider, &cmder.genProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagGenModel, &cmder.genModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagGenTarget, &cmder.genTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embedProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embedTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &cmder.eventsTopic)

	cmd.Flags().StringVar(&cmder.mcpListen, "mcp-listen", ":8091", "Address the MCP server listens on")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Disable the MCP server")

	return cmd
}

// resolve pulls final values out of the viper precedence chain
// (flag > env > config file > default).
func (c *ServeCommander) resolve(v *viper.Viper) {
	c.listen = v.GetString("api.listen")
	c.storageProvider = v.GetString("storage.provider")
	c.sqlitePath = v.GetString("storage.sqlite_path")
	c.postgresDSN = v.GetString("storage.postgres_dsn")
	c.genProvider = v.GetString("generation.provider")
	c.genModel = v.GetString("generation.model")
	c.genTarget = v.GetString("generation.target")
	c.embedProvider = v.GetString("embedding.provider")
	c.embedTarget = v.GetString("embedding.target")
	c.embedModel = v.GetString("embedding.model")
	c.embedDims = v.GetUint("embedding.dimensions")
	c.eventsProvider = v.GetString("events.provider")
	c.eventsBrokers = v.GetString("events.brokers")
	c.eventsTopic = v.GetString("events.topic")
}

func (c *ServeCommander) run(ctx context.Context) error {
	c.logger = logger.NewZap(c.debug)
	defer func() { _ = c.logger.Sync() }()

	store, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	generator, err := textgen.New(textgen.Config{
		Provider: c.genProvider,
		Model:    c.genModel,
		BaseURL:  c.genTarget,
	})
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	embedder, err := c.newEmbedder()
	if err != nil {
		return err
	}
	defer embedder.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	eng := engine.New(engine.Config{
		Store:     store,
		Generator: generator,
		Embedder:  embedder,
		Publisher: publisher,
		Logger:    logger.New(logger.WithDebug(c.debug)),
	})

	apiServer := api.NewServer(api.Config{ListenAddr: c.listen}, eng, store, c.logger)

	c.logger.Info("starting API server",
		zap.String("listen", c.listen),
		zap.String("storage", c.storageProvider),
		zap.String("generation", c.genProvider),
	)

	errChan := make(chan error, 2)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	if !c.noMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Engine: eng,
			Logger: c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}

		c.logger.Info("starting MCP server",
			zap.String("listen", c.mcpListen),
		)

		go func() {
			if err := http.ListenAndServe(c.mcpListen, mcpServer.Handler()); err != nil {
				errChan <- fmt.Errorf("MCP server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	case <-ctx.Done():
		return apiServer.Shutdown()
	}
}

func (c *ServeCommander) newStore(ctx context.Context) (storystore.Store, error) {
	switch c.storageProvider {
	case "sqlite":
		path := c.sqlitePath
		if path == "" {
			path = "loom.db"
		}
		store, err := sqlitevec.New(sqlitevec.Config{
			DBPath:     path,
			Dimensions: c.embedDims,
		}, c.logger)
		if err != nil {
			return nil, fmt.Errorf("creating SQLite story store: %w", err)
		}
		c.logger.Info("using SQLite storage", zap.String("path", path))
		return store, nil

	case "postgres":
		store, err := postgres.New(ctx, c.postgresDSN, c.logger)
		if err != nil {
			return nil, fmt.Errorf("creating Postgres story store: %w", err)
		}
		c.logger.Info("using Postgres storage")
		return store, nil

	case "inmemory":
		c.logger.Info("using in-memory storage")
		return inmemory.New(), nil

	default:
		return nil, fmt.Errorf("unknown storage provider: %q", c.storageProvider)
	}
}

func (c *ServeCommander) newEmbedder() (embeddings.Embedder, error) {
	switch c.embedProvider {
	case "openai":
		embedder, err := embedopenai.New(embedopenai.Config{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: c.embedTarget,
			Model:   c.embedModel,
		})
		if err != nil {
			return nil, fmt.Errorf("creating OpenAI embedder: %w", err)
		}
		return embedder, nil

	case "ollama", "":
		return embedollama.New(embedollama.Config{
			BaseURL: c.embedTarget,
			Model:   c.embedModel,
		}), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", c.embedProvider)
	}
}

func (c *ServeCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.eventsProvider {
	case "kafka":
		publisher, err := kafka.New(kafka.Config{
			Brokers: strings.Split(c.eventsBrokers, ","),
			Topic:   c.eventsTopic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating Kafka publisher: %w", err)
		}
		c.logger.Info("publishing story events to Kafka",
			zap.String("brokers", c.eventsBrokers),
			zap.String("topic", c.eventsTopic),
		)
		return publisher, nil

	case "nop", "":
		return nop.New(), nil

	default:
		return nil, fmt.Errorf("unknown events provider: %q", c.eventsProvider)
	}
}
