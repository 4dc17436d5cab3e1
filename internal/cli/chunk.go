package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seg-flt/hdrscan/internal/config"
	"github.com/seg-flt/hdrscan/internal/pipeline"
)

var (
	chunkOutputFlag       string
	chunkExtractorFlag    string
	chunkMaxSizeFlag      int
	chunkOverlapFlag      int
	chunkOneUnitFlag      bool
	chunkSemanticOnlyFlag bool
)

// chunkCmd represents the chunk command
var chunkCmd = &cobra.Command{
	Use:   "chunk [files...]",
	Short: "Chunk header files and emit JSONL records",
	Long: `Chunk scans header files under the project root, reconstructs
their declaration hierarchy, and writes one JSON record per chunk.

Without arguments the files are discovered with the configured include
and ignore globs. With arguments only the named files (relative to the
root) are processed.

Examples:
  # Chunk the whole project to stdout
  hdrscan chunk

  # Chunk two specific headers into a file
  hdrscan chunk -o chunks.jsonl include/gpio.h include/uart.h

  # One chunk per top-level declaration, semantic spans only
  hdrscan chunk --one-unit-per-chunk --semantic-only
`,
	RunE: runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)
	chunkCmd.Flags().StringVarP(&chunkOutputFlag, "output", "o", "", "output path for JSONL records (\"-\" for stdout)")
	chunkCmd.Flags().StringVar(&chunkExtractorFlag, "extractor", "", "span extractor: pattern or grammar")
	chunkCmd.Flags().IntVar(&chunkMaxSizeFlag, "max-chunk-size", 0, "maximum chunk content size in characters")
	chunkCmd.Flags().IntVar(&chunkOverlapFlag, "overlap-units", -1, "trailing units repeated across chunk boundaries")
	chunkCmd.Flags().BoolVar(&chunkOneUnitFlag, "one-unit-per-chunk", false, "emit one chunk per top-level declaration")
	chunkCmd.Flags().BoolVar(&chunkSemanticOnlyFlag, "semantic-only", false, "drop file headers, section headers, and bare directives")
}

func runChunk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rootDir, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyChunkFlags(cmd, cfg)

	processor, err := newProcessor(cfg)
	if err != nil {
		return err
	}

	var sink pipeline.Sink
	if cfg.Output.Path == "" || cfg.Output.Path == "-" {
		sink = pipeline.NewJSONLSink(os.Stdout)
	} else {
		sink, err = pipeline.NewFileSink(cfg.Output.Path)
		if err != nil {
			return fmt.Errorf("failed to open output: %w", err)
		}
	}
	defer sink.Close()

	reporter := NewCLIProgressReporter(quietFlag || cfg.Output.Path == "" || cfg.Output.Path == "-")
	runner := pipeline.NewRunner(processor, sink, reporter, cfg.Output.Workers)

	discovery, err := newDiscovery(rootDir, cfg)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		_, err = runner.RunFiles(ctx, args, discovery.Abs)
	} else {
		_, err = runner.Run(ctx, discovery)
	}
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}
	return nil
}

// applyChunkFlags lets explicit flags override the loaded configuration.
func applyChunkFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("output") {
		cfg.Output.Path = chunkOutputFlag
	}
	if cmd.Flags().Changed("extractor") {
		cfg.Chunking.Extractor = chunkExtractorFlag
	}
	if cmd.Flags().Changed("max-chunk-size") {
		cfg.Chunking.MaxChunkSize = chunkMaxSizeFlag
	}
	if cmd.Flags().Changed("overlap-units") {
		cfg.Chunking.OverlapUnits = chunkOverlapFlag
	}
	if chunkOneUnitFlag {
		cfg.Chunking.OneUnitPerChunk = true
	}
	if chunkSemanticOnlyFlag {
		cfg.Chunking.SemanticOnly = true
	}
}
