// =============================================================================
// Abstract Preprocessor - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every subcommand
// shares the configuration and logger set up here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (abstractfix)
//   ├── processCmd (abstractfix process)
//   ├── journalCmd (abstractfix journal)
//   │   ├── show
//   │   └── set
//   └── versionCmd (abstractfix version)
//
// CONFIGURATION:
//   PersistentPreRunE loads config.yaml (--config) and builds the zap logger
//   (--verbose forces debug level). PersistentPostRun flushes the logger.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ginjaninja78/abstract-preprocessor/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging.
var verbose bool

// mainConfig and logger are set by PersistentPreRunE.
var (
	mainConfig *config.MainConfig
	logger     *zap.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "abstractfix",
	Short: "Abstract XML preprocessor - fill in metadata and fix common submission errors",
	Long: `abstractfix prepares journal abstract XML files for upload to the digital
library platform. For every document of an issue it:

  - fills in missing metadata from the journal's saved defaults or by asking you
  - corrects known submission errors (placeholders, broken markup, encoding
    damage, delimiter runs, redundant page ranges, ...)
  - writes "<issue> Problems.txt" listing everything that still needs a proofer

Example Usage:
  abstractfix process ./ab20(3)/xml          # Process one issue interactively
  abstractfix process -p ./ab20(3)/xml -d    # Print results, change nothing
  abstractfix journal show ab                # Show the saved defaults for "ab"`,
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		mainConfig, err = config.LoadMainConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load main config: %w", err)
		}

		logger, err = newLogger(mainConfig, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. Interrupting the process cancels the run
// between documents.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// newLogger builds a production zap logger writing to stderr and, when
// configured, to the log file.
func newLogger(cfg *config.MainConfig, verbose bool) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, cfg.LogFile)
	}

	return zapConfig.Build()
}
