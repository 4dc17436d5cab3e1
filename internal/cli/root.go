package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootDirFlag string
	quietFlag   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hdrscan",
	Short: "hdrscan - structural chunking for C headers",
	Long: `hdrscan scans C header files, reconstructs their declaration
hierarchy (include guards, conditional blocks, nested aggregates), and
assembles size-bounded chunks suitable for search indexes and retrieval
pipelines.

Configuration is read from .hdrscan/config.yml under the project root
and can be overridden with HDRSCAN_* environment variables.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootDirFlag, "root", "r", "", "project root directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "disable progress bars and non-error output")
}

// resolveRoot returns the project root, defaulting to the working
// directory.
func resolveRoot() (string, error) {
	if rootDirFlag != "" {
		return rootDirFlag, nil
	}
	rootDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return rootDir, nil
}
