package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultIncludePatterns match the header files the scanner cares about.
var DefaultIncludePatterns = []string{"**/*.h", "**/*.hpp", "**/*.hh"}

// DefaultIgnorePatterns skip directories that never hold project headers.
var DefaultIgnorePatterns = []string{
	".git/**",
	"build/**",
	"out/**",
	"**/node_modules/**",
}

// compiledPattern keeps the source pattern next to its compiled glob so
// ignore matching can retry directory forms.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discovery walks a root directory and returns the header files matching
// the include patterns, minus the ignored ones.
type Discovery struct {
	rootDir  string
	includes []compiledPattern
	ignores  []compiledPattern
}

// NewDiscovery compiles the patterns for one root. Empty pattern lists
// fall back to the defaults.
func NewDiscovery(rootDir string, includePatterns, ignorePatterns []string) (*Discovery, error) {
	if len(includePatterns) == 0 {
		includePatterns = DefaultIncludePatterns
	}
	if len(ignorePatterns) == 0 {
		ignorePatterns = DefaultIgnorePatterns
	}

	d := &Discovery{rootDir: rootDir}
	for _, p := range includePatterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling include pattern %q: %w", p, err)
		}
		d.includes = append(d.includes, compiledPattern{pattern: p, glob: g})
	}
	for _, p := range ignorePatterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling ignore pattern %q: %w", p, err)
		}
		d.ignores = append(d.ignores, compiledPattern{pattern: p, glob: g})
	}
	return d, nil
}

// Discover returns the matching files as slash-separated paths relative to
// the root, sorted by the walk order (lexical, so deterministic).
func (d *Discovery) Discover() ([]string, error) {
	var files []string

	err := filepath.Walk(d.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.ignored(relPath) {
			return nil
		}
		if matchesAny(relPath, d.includes) {
			files = append(files, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", d.rootDir, err)
	}
	return files, nil
}

// Abs resolves a discovered relative path back under the root.
func (d *Discovery) Abs(relPath string) string {
	return filepath.Join(d.rootDir, filepath.FromSlash(relPath))
}

func (d *Discovery) ignored(relPath string) bool {
	if matchesAny(relPath, d.ignores) {
		return true
	}
	// A bare directory name in an ignore list should cover everything
	// under it, the way "node_modules" is usually meant as "node_modules/**".
	return matchesAny(relPath+"/**", d.ignores)
}

func matchesAny(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}
	// "**/*.h" should also match a root-level "defs.h"; glob's ** wants at
	// least one separator, so retry with the prefix stripped.
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if rest, ok := strings.CutPrefix(cp.pattern, "**/"); ok {
				if g, err := glob.Compile(rest, '/'); err == nil && g.Match(path) {
					return true
				}
			}
		}
	}
	return false
}
