// clouddrive is the drive backend: an HTTP API over a record store and an
// object store, plus the tools that keep the two consistent.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/config"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Persistent flags
var (
	cfgFile  string
	logLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clouddrive",
		Short: "Drive backend with record/object consistency tooling",
		Long: `clouddrive serves a folder and file tree whose metadata lives in a
record store (memory, badger, mongo, postgres) and whose bytes live in an
object store (memory, filesystem, s3).

Examples:
  # Write a default configuration file
  clouddrive config init

  # Run the API, the reconciler worker and the metrics endpoint
  clouddrive serve

  # Preview what a reconciliation pass would repair
  clouddrive reconcile --dry-run`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default $XDG_CONFIG_HOME/clouddrive/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newReconcileCmd())
	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newGhostsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clouddrive %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}
}

// loadConfig loads the configuration and configures the logger from it.
// --log-level wins over the file and the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = strings.ToUpper(logLevel)
	}

	if err := logger.Configure(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, fmt.Errorf("configure logger: %w", err)
	}

	return cfg, nil
}
