// Package searchcmder provides the search command for finding a user's stories.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hearthside/loom/pkg/config"
	"github.com/hearthside/loom/pkg/engine"
	"github.com/hearthside/loom/pkg/logger"
	"github.com/hearthside/loom/pkg/story"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	toneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type searchCommander struct {
	query string
	limit int
	quiet bool

	userID    string
	apiTarget string

	debug  bool
	logger *zap.Logger
}

const searchLongDesc string = `Search a user's stories via the loom API.

Searches stored stories for the given user, combining embedding similarity
with entity and text matching. Returns at most three brief results along
with a suggested conversational response. Requires a running loom API
server.

Use --quiet to output only story IDs, one per line. This is useful for
piping into other commands like loom retell.

Example:
  loom search "grandpa ellis island" --user user-123
  loom search "the old farmhouse" --user user-123 --limit 1
  loom retell $(loom search "the wedding" --user user-123 --quiet --limit 1) --user user-123`

const searchShortDesc string = "Search a user's stories"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
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
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.userID, "user", "u", "", "ID of the storytelling user")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "k", 3, "Maximum number of stories to return")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only story IDs, one per line (for piping)")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", "http://localhost:8090", "Loom API server URL")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func (c *searchCommander) run(ctx context.Context) error {
	c.logger = logger.NewZap(c.debug)
	defer func() { _ = c.logger.Sync() }()

	result, err := SearchAPI(ctx, c.apiTarget, c.userID, c.query, c.limit)
	if err != nil {
		return err
	}

	if !result.Found {
		if !c.quiet {
			if result.Message != "" {
				fmt.Println(result.Message)
			} else {
				fmt.Println("No stories found.")
			}
		}
		return nil
	}

	if c.quiet {
		for _, brief := range result.Stories {
			fmt.Println(brief.ID)
		}
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		headerStyle.Render("Stories matching:"),
		idStyle.Render(fmt.Sprintf("%q", c.query)),
	)

	for i, brief := range result.Stories {
		c.printBrief(i+1, brief)
	}

	if result.SuggestedResponse != "" {
		fmt.Printf("%s\n%s\n\n",
			dimStyle.Render("Suggested response:"),
			summaryStyle.Render(result.SuggestedResponse),
		)
	}

	return nil
}

func (c *searchCommander) printBrief(rank int, brief story.Brief) {
	fmt.Printf("  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		titleStyle.Render(brief.Title),
		idStyle.Render(string(brief.ID)),
	)

	if brief.BriefSummary != "" {
		fmt.Printf("      %s\n", summaryStyle.Render(brief.BriefSummary))
	}

	meta := fmt.Sprintf("tone: %s", brief.Tone)
	if brief.Version > 1 {
		meta += fmt.Sprintf(", retold %d times", brief.Version-1)
	}
	fmt.Printf("      %s\n\n", toneStyle.Render(meta))
}

// SearchAPI calls the loom story search API and returns the parsed result.
// Exported so other commands (e.g. retell) can reuse it.
func SearchAPI(ctx context.Context, apiTarget, userID, query string, limit int) (*engine.SearchResult, error) {
	searchURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	searchURL.Path = fmt.Sprintf("/v1/users/%s/stories/search", url.PathEscape(userID))
	q := searchURL.Query()
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to loom API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var result engine.SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return &result, nil
}
