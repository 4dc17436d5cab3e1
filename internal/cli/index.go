package cli

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/seg-flt/hdrscan/internal/pipeline"
	"github.com/seg-flt/hdrscan/internal/storage"
)

var indexNoBleveFlag bool

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index [files...]",
	Short: "Index header chunks for full-text search",
	Long: `Index chunks the project's header files and stores the records
in the local search indexes: a SQLite database with FTS5 keyword search
and a bleve index for ranked queries.

Without arguments the whole project is reindexed. With arguments only
the named files (relative to the root) are replaced, leaving the rest
of the index untouched.

Examples:
  # Index the current project
  hdrscan index

  # Reindex two headers after editing them
  hdrscan index include/gpio.h include/uart.h

  # Keep only the SQLite index
  hdrscan index --no-bleve
`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexNoBleveFlag, "no-bleve", false, "skip the bleve index, keep only SQLite FTS5")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rootDir, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	processor, err := newProcessor(cfg)
	if err != nil {
		return err
	}
	discovery, err := newDiscovery(rootDir, cfg)
	if err != nil {
		return err
	}

	sink := &pipeline.CollectSink{}
	reporter := NewCLIProgressReporter(quietFlag)
	runner := pipeline.NewRunner(processor, sink, reporter, cfg.Output.Workers)

	if len(args) > 0 {
		_, err = runner.RunFiles(ctx, args, discovery.Abs)
	} else {
		_, err = runner.Run(ctx, discovery)
	}
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	store, err := storage.NewChunkStore(filepath.Join(rootDir, cfg.Storage.DBPath))
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer store.Close()

	if len(args) > 0 {
		err = store.ReplaceFiles(sink.Records)
	} else {
		err = store.ReplaceAll(sink.Records)
	}
	if err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	if !indexNoBleveFlag {
		idx, err := storage.OpenBleveIndex(filepath.Join(rootDir, cfg.Storage.BlevePath))
		if err != nil {
			return fmt.Errorf("failed to open bleve index: %w", err)
		}
		defer idx.Close()
		if err := idx.Index(sink.Records); err != nil {
			return fmt.Errorf("failed to index chunks: %w", err)
		}
	}

	if !quietFlag {
		log.Printf("Indexed %d chunks into %s\n", len(sink.Records), cfg.Storage.DBPath)
	}
	return nil
}
