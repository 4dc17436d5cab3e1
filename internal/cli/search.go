package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seg-flt/hdrscan/internal/storage"
)

var (
	searchLimitFlag int
	searchBleveFlag bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed header chunks",
	Long: `Search runs a full-text query against the chunk index built by
"hdrscan index". The default engine is SQLite FTS5; --bleve queries the
bleve index instead.

The FTS5 engine accepts keywords, quoted phrases, AND/OR/NOT, and
trailing-* prefixes. The bleve engine accepts bleve query string syntax.

Examples:
  hdrscan search uart_open
  hdrscan search '"ring buffer"' --limit 5
  hdrscan search 'gpio AND irq' --bleve
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimitFlag, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchBleveFlag, "bleve", false, "query the bleve index instead of SQLite FTS5")
}

func runSearch(cmd *cobra.Command, args []string) error {
	rootDir, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")

	if searchBleveFlag {
		return searchBleve(cmd, rootDir, cfg.Storage.BlevePath, query)
	}
	return searchFTS(cmd, rootDir, cfg.Storage.DBPath, query)
}

func searchFTS(cmd *cobra.Command, rootDir, dbPath, query string) error {
	store, err := storage.NewChunkStore(filepath.Join(rootDir, dbPath))
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer store.Close()

	hits, err := store.Search(query, searchLimitFlag)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(hits) == 0 {
		cmd.Println("No results.")
		return nil
	}
	for i, hit := range hits {
		cmd.Printf("%d. %s  (%s)\n", i+1, hit.Record.ID, hit.Record.Metadata.Filepath)
		if len(hit.Record.Metadata.CondContext) > 0 {
			cmd.Printf("   [%s]\n", strings.Join(hit.Record.Metadata.CondContext, ", "))
		}
		cmd.Printf("   %s\n", hit.Snippet)
	}
	return nil
}

func searchBleve(cmd *cobra.Command, rootDir, blevePath, query string) error {
	idx, err := storage.OpenBleveIndex(filepath.Join(rootDir, blevePath))
	if err != nil {
		return fmt.Errorf("failed to open bleve index: %w", err)
	}
	defer idx.Close()

	hits, err := idx.Search(query, searchLimitFlag)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(hits) == 0 {
		cmd.Println("No results.")
		return nil
	}
	for i, hit := range hits {
		cmd.Printf("%d. %s  (%s)  score=%.3f\n", i+1, hit.ID, hit.Filepath, hit.Score)
		for _, frag := range hit.Fragments {
			cmd.Printf("   %s\n", frag)
		}
	}
	return nil
}
