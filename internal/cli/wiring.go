package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/seg-flt/hdrscan/internal/assembler"
	"github.com/seg-flt/hdrscan/internal/config"
	"github.com/seg-flt/hdrscan/internal/extraction"
	"github.com/seg-flt/hdrscan/internal/pipeline"
)

// loadConfig resolves the project root and reads its configuration.
func loadConfig() (string, *config.Config, error) {
	rootDir, err := resolveRoot()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.NewLoader(rootDir).Load()
	if err != nil {
		return "", nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return rootDir, cfg, nil
}

// newProcessor wires the extractor, hierarchy builder, and assembler from
// one configuration.
func newProcessor(cfg *config.Config) (*pipeline.Processor, error) {
	opts := extraction.Options{
		IncludeComments:       cfg.Chunking.IncludeComments,
		IncludeFileHeaders:    cfg.Chunking.IncludeFileHeaders,
		IncludeSectionHeaders: cfg.Chunking.IncludeSectionHeaders,
		MaxCommentGap:         cfg.Chunking.MaxCommentGap,
	}

	var ex extraction.Extractor
	switch strings.ToLower(cfg.Chunking.Extractor) {
	case config.ExtractorGrammar:
		ex = extraction.NewGrammarExtractor(opts)
	case config.ExtractorPattern, "":
		ex = extraction.NewPatternExtractor(nil, opts)
	default:
		return nil, fmt.Errorf("unknown extractor %q", cfg.Chunking.Extractor)
	}

	builder := assembler.NewBuilder(assembler.NewBraceDepthRefiner(cfg.Chunking.FuncBlockMacros...))
	asm := assembler.New(assembler.Config{
		MaxChunkSize:     cfg.Chunking.MaxChunkSize,
		MinChunkSize:     cfg.Chunking.MinChunkSize,
		OverlapUnits:     cfg.Chunking.OverlapUnits,
		OneUnitPerChunk:  cfg.Chunking.OneUnitPerChunk,
		SemanticOnly:     cfg.Chunking.SemanticOnly,
		RespectHierarchy: cfg.Chunking.RespectHierarchy,
	})

	return pipeline.NewProcessor(ex, builder, asm), nil
}

// newDiscovery builds the header file walker from the configured globs.
func newDiscovery(rootDir string, cfg *config.Config) (*pipeline.Discovery, error) {
	d, err := pipeline.NewDiscovery(rootDir, cfg.Paths.Include, cfg.Paths.Ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to compile path patterns: %w", err)
	}
	return d, nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted! Cancelling...")
		cancel()
	}()

	return ctx, cancel
}
