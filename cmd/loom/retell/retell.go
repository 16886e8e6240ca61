// Package retellcmder provides the retell command for fetching a full story.
package retellcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hearthside/loom/pkg/cliui"
	"github.com/hearthside/loom/pkg/config"
	"github.com/hearthside/loom/pkg/engine"
	"github.com/hearthside/loom/pkg/logger"
)

type retellCommander struct {
	storyID string
	raw     bool

	userID    string
	apiTarget string

	debug  bool
	logger *zap.Logger
}

const retellLongDesc string = `Fetch one of a user's stories in full, for retelling.

Retrieves the story's synthesized narrative from the loom API and renders
it for the terminal. Fetching a story refreshes its access statistics.

Use --raw to print the unrendered narrative text.

Example:
  loom retell story-abc123 --user user-123
  loom retell $(loom search "the wedding" --user user-123 --quiet --limit 1) --user user-123`

const retellShortDesc string = "Fetch a story for retelling"

func NewRetellCmd() *cobra.Command {
	cmder := &retellCommander{}

	cmd := &cobra.Command{
		Use:   "retell <story-id>",
		Short: retellShortDesc,
		Long:  retellLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("api-target") {
				configDir, _ := cmd.Flags().GetString("config-dir")
				cfger, err := config.NewConfiger(configDir)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}

				cfg, err := cfger.LoadConfig()
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}

				cmder.apiTarget = "http://localhost" + cfg.API.Listen
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.storyID = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.userID, "user", "u", "", "ID of the storytelling user")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the unrendered narrative text")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", "http://localhost:8090", "Loom API server URL")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func (c *retellCommander) run(ctx context.Context) error {
	c.logger = logger.NewZap(c.debug)
	defer func() { _ = c.logger.Sync() }()

	result, err := c.fetch(ctx)
	if err != nil {
		return err
	}

	if !result.Success || result.Story == nil {
		if result.Message != "" {
			fmt.Println(result.Message)
			return nil
		}
		return fmt.Errorf("story %q not found", c.storyID)
	}

	s := result.Story

	narrative := s.Narrative
	if narrative == "" {
		narrative = s.Content
	}

	if c.raw {
		fmt.Println(narrative)
		return nil
	}

	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", s.Title)
	fmt.Fprintf(&md, "%s\n\n", narrative)
	fmt.Fprintf(&md, "---\n\n*%s · version %d*\n", s.Tone, s.Version)

	rendered, err := cliui.RenderMarkdown(md.String())
	if err != nil {
		// Fall back to plain output if the terminal renderer fails.
		fmt.Println(md.String())
		return nil
	}

	fmt.Print(rendered)
	return nil
}

func (c *retellCommander) fetch(ctx context.Context) (*engine.RetellResult, error) {
	retellURL, err := url.Parse(c.apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	retellURL.Path = fmt.Sprintf("/v1/users/%s/stories/%s/retelling",
		url.PathEscape(c.userID), url.PathEscape(c.storyID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, retellURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating retelling request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to loom API at %s: %w", c.apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return nil, fmt.Errorf("retelling request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var result engine.RetellResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse retelling response: %w", err)
	}

	return &result, nil
}
