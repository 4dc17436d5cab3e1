package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/seg-flt/hdrscan/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chunk index over MCP on stdio",
	Long: `Serve exposes the chunk index built by "hdrscan index" as a
Model Context Protocol server on stdio. It registers a single
search_chunks tool backed by the SQLite FTS5 index, so editor agents
can query header declarations directly.

Example:
  hdrscan serve
`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	rootDir, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srv, err := mcp.NewServer(filepath.Join(rootDir, cfg.Storage.DBPath))
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	return srv.Serve(context.Background())
}
