package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidExtractor indicates an unsupported extractor name.
	ErrInvalidExtractor = errors.New("invalid extractor")

	// ErrInvalidChunkSize indicates invalid chunk size configuration.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidOverlap indicates invalid overlap configuration.
	ErrInvalidOverlap = errors.New("invalid overlap")

	// ErrInvalidWorkers indicates an invalid worker count.
	ErrInvalidWorkers = errors.New("invalid workers")

	// ErrInvalidCommentGap indicates an invalid comment gap.
	ErrInvalidCommentGap = errors.New("invalid comment gap")

	// ErrEmptyIncludePatterns indicates no include patterns remain.
	ErrEmptyIncludePatterns = errors.New("empty include patterns")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	switch strings.ToLower(cfg.Chunking.Extractor) {
	case ExtractorPattern, ExtractorGrammar:
	default:
		errs = append(errs, fmt.Errorf("%w: must be %q or %q, got %q",
			ErrInvalidExtractor, ExtractorPattern, ExtractorGrammar, cfg.Chunking.Extractor))
	}

	if cfg.Chunking.MaxChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_chunk_size must be positive, got %d",
			ErrInvalidChunkSize, cfg.Chunking.MaxChunkSize))
	}
	if cfg.Chunking.MinChunkSize < 0 {
		errs = append(errs, fmt.Errorf("%w: min_chunk_size must be non-negative, got %d",
			ErrInvalidChunkSize, cfg.Chunking.MinChunkSize))
	}
	if cfg.Chunking.MinChunkSize > cfg.Chunking.MaxChunkSize && cfg.Chunking.MaxChunkSize > 0 {
		errs = append(errs, fmt.Errorf("%w: min_chunk_size %d exceeds max_chunk_size %d",
			ErrInvalidChunkSize, cfg.Chunking.MinChunkSize, cfg.Chunking.MaxChunkSize))
	}
	if cfg.Chunking.OverlapUnits < 0 {
		errs = append(errs, fmt.Errorf("%w: overlap_units must be non-negative, got %d",
			ErrInvalidOverlap, cfg.Chunking.OverlapUnits))
	}
	if cfg.Chunking.MaxCommentGap < 0 {
		errs = append(errs, fmt.Errorf("%w: max_comment_gap must be non-negative, got %d",
			ErrInvalidCommentGap, cfg.Chunking.MaxCommentGap))
	}

	if cfg.Output.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers must be non-negative, got %d",
			ErrInvalidWorkers, cfg.Output.Workers))
	}

	if len(cfg.Paths.Include) == 0 {
		errs = append(errs, ErrEmptyIncludePatterns)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
