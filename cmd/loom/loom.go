// Package loomcmder
package loomcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/hearthside/loom/cmd/loom/config"
	retellcmder "github.com/hearthside/loom/cmd/loom/retell"
	searchcmder "github.com/hearthside/loom/cmd/loom/search"
	seedcmder "github.com/hearthside/loom/cmd/loom/seed"
	servecmder "github.com/hearthside/loom/cmd/loom/serve"
	versioncmder "github.com/hearthside/loom/cmd/version"
)

const loomLongDesc string = `Loom weaves conversational memories into life stories.

Run services using:
  loom serve           Run the story API and MCP servers

Work with stories using:
  loom search          Search a user's stories
  loom retell <id>     Fetch a story for retelling
  loom seed            Seed demo memories into stories`

const loomShortDesc string = "Loom - Life Story Engine"

func NewLoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loom",
		Short: loomShortDesc,
		Long:  loomLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .loom/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(retellcmder.NewRetellCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
