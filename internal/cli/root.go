// Package cli implements the recap command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/recap/internal/config"
	"github.com/crimson-sun/recap/internal/logging"

	// Register connector implementations.
	_ "github.com/crimson-sun/recap/internal/connector/file"
	_ "github.com/crimson-sun/recap/internal/connector/remote"
	_ "github.com/crimson-sun/recap/internal/connector/watch"
)

// NewRootCmd builds the recap command tree. Each call returns fresh
// commands with their own flag state.
func NewRootCmd() *cobra.Command {
	var (
		logLevel string
		logJSON  bool
	)

	root := &cobra.Command{
		Use:   "recap",
		Short: "Summarize session recordings into readable timelines",
		Long: `recap turns rrweb session recordings into ordered, human-readable
summaries: page loads, clicks, typed text, scrolls and DOM changes, with
bursts of related activity grouped together.

Settings come from RECAP_* environment variables (and an optional .env file);
flags override them.`,
		Version:      config.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logLevel
			if level == "" {
				level = os.Getenv(config.Prefix + "LOG_LEVEL")
			}
			logging.Init(cmd.ErrOrStderr(), logJSON, logging.ParseLevel(level))
		},
	}
	root.SetVersionTemplate(`{{printf "recap version %s\n" .Version}}`)

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default $RECAP_LOG_LEVEL or info)")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")

	root.AddCommand(newSummarizeCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
