package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/styleai/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as a Model Context Protocol server on stdio",
	Long: `MCP exposes describe_item, suggest_outfit, summarize_wardrobe and
list_wardrobe as tools for MCP-capable assistants. Logs go to stderr.

Example client entry:
  {"command": "styleai", "args": ["mcp"]}`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := loadEnv()
		ctx := cmd.Context()

		client := e.chatClient(ctx, false)
		view, closeFn, err := e.openView(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		log.Info().Int("items", view.Len()).Msg("MCP server ready on stdio")
		err = mcpserver.New(client, view, e.language(), commitHash).Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP server stopped: %w", err)
		}
		return nil
	},
}
