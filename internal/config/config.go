package config

// Config is the full hdrscan configuration.
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Chunking ChunkingConfig `mapstructure:"chunking"`
	Output   OutputConfig   `mapstructure:"output"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// PathsConfig controls file discovery.
type PathsConfig struct {
	// Include are glob patterns for header files, relative to the root.
	Include []string `mapstructure:"include"`
	// Ignore are glob patterns excluded from discovery.
	Ignore []string `mapstructure:"ignore"`
}

// ChunkingConfig mirrors the chunk assembly surface.
type ChunkingConfig struct {
	// Extractor selects the span extractor: "pattern" or "grammar".
	Extractor string `mapstructure:"extractor"`

	MaxChunkSize    int  `mapstructure:"max_chunk_size"`
	MinChunkSize    int  `mapstructure:"min_chunk_size"`
	OverlapUnits    int  `mapstructure:"overlap_units"`
	OneUnitPerChunk bool `mapstructure:"one_unit_per_chunk"`
	SemanticOnly    bool `mapstructure:"semantic_only"`

	IncludeComments       bool `mapstructure:"include_comments"`
	IncludeFileHeaders    bool `mapstructure:"include_file_headers"`
	IncludeSectionHeaders bool `mapstructure:"include_section_headers"`
	RespectHierarchy      bool `mapstructure:"respect_hierarchy"`
	MaxCommentGap         int  `mapstructure:"max_comment_gap"`

	// FuncBlockMacros are macro names treated as opening a function-like
	// block for depth refinement.
	FuncBlockMacros []string `mapstructure:"func_block_macros"`
}

// OutputConfig controls chunk emission.
type OutputConfig struct {
	// Path is the JSONL output file; "-" writes to stdout.
	Path string `mapstructure:"path"`
	// Workers caps parallel file workers; 0 means one per CPU.
	Workers int `mapstructure:"workers"`
}

// StorageConfig locates the local index sinks.
type StorageConfig struct {
	DBPath    string `mapstructure:"db_path"`
	BlevePath string `mapstructure:"bleve_path"`
}

// Extractor names accepted by ChunkingConfig.Extractor.
const (
	ExtractorPattern = "pattern"
	ExtractorGrammar = "grammar"
)

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{"**/*.h", "**/*.hpp", "**/*.hh"},
			Ignore:  []string{".git/**", "build/**", "out/**", "**/node_modules/**"},
		},
		Chunking: ChunkingConfig{
			Extractor:             ExtractorPattern,
			MaxChunkSize:          1600,
			MinChunkSize:          200,
			OverlapUnits:          1,
			IncludeComments:       true,
			IncludeFileHeaders:    true,
			IncludeSectionHeaders: true,
			RespectHierarchy:      true,
			MaxCommentGap:         5,
			FuncBlockMacros:       []string{"__FUNCBLOCK__"},
		},
		Output: OutputConfig{
			Path: "-",
		},
		Storage: StorageConfig{
			DBPath:    ".hdrscan/chunks.db",
			BlevePath: ".hdrscan/chunks.bleve",
		},
	}
}
