// Package seedcmder provides the seed command for loading demo memories.
package seedcmder

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hearthside/loom/pkg/cliui"
	"github.com/hearthside/loom/pkg/config"
	"github.com/hearthside/loom/pkg/engine"
	"github.com/hearthside/loom/pkg/eventstream/nop"
	"github.com/hearthside/loom/pkg/logger"
	"github.com/hearthside/loom/pkg/storystore/sqlitevec"
)

const seedLongDesc string = `Seed demo memories into a SQLite story database.

Runs the aggregation pipeline over a built-in set of demo memory records
for the user "demo-user", producing stories that loom serve can then
search and retell. Without a text generation provider the pipeline falls
back to deterministic narratives.

Examples:
  loom seed
  loom seed --sqlite ./loom.db
  loom seed --overwrite`

const seedShortDesc string = "Seed demo memories"

// DemoUserID is the user the demo memories belong to.
const DemoUserID = "demo-user"

type seedCommander struct {
	sqlitePath string
	overwrite  bool
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.run(cmd.Context(), configDir)
		},
	}

	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to SQLite database")
	cmd.Flags().BoolVarP(&cmder.overwrite, "overwrite", "f", false, "Overwrite database before seeding")

	return cmd
}

func (c *seedCommander) run(ctx context.Context, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sqlitePath := c.resolveSQLitePath(cfg)

	if c.overwrite {
		if err := os.Remove(sqlitePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database: %w", err)
		}
	}

	store, err := sqlitevec.New(sqlitevec.Config{
		DBPath:     sqlitePath,
		Dimensions: cfg.Embedding.Dimensions,
	}, logger.Nop())
	if err != nil {
		return fmt.Errorf("opening story store: %w", err)
	}
	defer store.Close()

	// No generator or embedder: aggregation runs on its deterministic
	// fallbacks, so seeding works fully offline.
	eng := engine.New(engine.Config{
		Store:     store,
		Publisher: nop.New(),
		Logger:    logger.New(logger.WithWriter(io.Discard)),
	})

	worker := engine.NewAggregationWorker(eng)

	batches := demoBatches()
	memoryCount := 0
	for _, batch := range batches {
		memoryCount += len(batch.Memories)
		worker.Enqueue(batch)
	}

	if err := cliui.Step(os.Stdout, "Aggregating demo memories", func() error {
		worker.Run(ctx)
		return ctx.Err()
	}); err != nil {
		return err
	}

	done, total := worker.Progress()
	fmt.Printf("\n  %s Processed %s batches %s into %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(fmt.Sprintf("%d/%d", done, total)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d memories)", memoryCount)),
		cliui.DimStyle.Render(sqlitePath),
	)
	fmt.Printf("  Try: loom search %q --user %s\n\n", "ellis island", DemoUserID)
	return nil
}

func (c *seedCommander) resolveSQLitePath(cfg *config.Config) string {
	if c.sqlitePath != "" {
		return c.sqlitePath
	}
	if cfg.Storage.SQLitePath != "" {
		return cfg.Storage.SQLitePath
	}
	return "loom.db"
}
