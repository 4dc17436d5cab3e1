package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load resolves configuration with priority: defaults → config file →
	// environment variables (env wins).
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a loader reading .hdrscan/config.yml under rootDir.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(l.rootDir, ".hdrscan"))

	v.SetEnvPrefix("HDRSCAN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("chunking.extractor")
	v.BindEnv("chunking.max_chunk_size")
	v.BindEnv("chunking.min_chunk_size")
	v.BindEnv("chunking.overlap_units")
	v.BindEnv("chunking.semantic_only")
	v.BindEnv("output.path")
	v.BindEnv("output.workers")
	v.BindEnv("storage.db_path")
	v.BindEnv("storage.bleve_path")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine: defaults plus env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("paths.include", d.Paths.Include)
	v.SetDefault("paths.ignore", d.Paths.Ignore)

	v.SetDefault("chunking.extractor", d.Chunking.Extractor)
	v.SetDefault("chunking.max_chunk_size", d.Chunking.MaxChunkSize)
	v.SetDefault("chunking.min_chunk_size", d.Chunking.MinChunkSize)
	v.SetDefault("chunking.overlap_units", d.Chunking.OverlapUnits)
	v.SetDefault("chunking.one_unit_per_chunk", d.Chunking.OneUnitPerChunk)
	v.SetDefault("chunking.semantic_only", d.Chunking.SemanticOnly)
	v.SetDefault("chunking.include_comments", d.Chunking.IncludeComments)
	v.SetDefault("chunking.include_file_headers", d.Chunking.IncludeFileHeaders)
	v.SetDefault("chunking.include_section_headers", d.Chunking.IncludeSectionHeaders)
	v.SetDefault("chunking.respect_hierarchy", d.Chunking.RespectHierarchy)
	v.SetDefault("chunking.max_comment_gap", d.Chunking.MaxCommentGap)
	v.SetDefault("chunking.func_block_macros", d.Chunking.FuncBlockMacros)

	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("output.workers", d.Output.Workers)

	v.SetDefault("storage.db_path", d.Storage.DBPath)
	v.SetDefault("storage.bleve_path", d.Storage.BlevePath)
}
