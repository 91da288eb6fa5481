// progman builds conference programmes: it generates a session skeleton
// from a schedule config, assigns papers to sessions by topic preference
// under user constraints, assigns rooms and chairs, and renders the result
// to Markdown or LaTeX.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"progman/internal/config"
	"progman/internal/constraint"
	"progman/internal/dataprep"
	"progman/internal/types"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "progman",
	Short: "progman - conference programme manager",
	Long: `progman builds a conference programme in stages:

  skeleton     Generate the session skeleton from the schedule config.
  constraints  Add / edit / delete / list scheduling constraints.
  papers       Assign papers to sessions by topic preference.
  rooms        Assign rooms to sessions.
  chairs       Assign chairs to sessions.
  output       Render the programme to Markdown or LaTeX.
  generate     Run the full pipeline in one go.

Each stage reads the previous stage's programme JSON and writes a new
snapshot, so any stage can be re-run in isolation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
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
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "schedule_config.yaml", "schedule config file")
}

// loadConfig reads the schedule config named by the global flag.
func loadConfig() (*config.ScheduleConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// loadStore builds the constraint store from the config's constraint list.
func loadStore(cfg *config.ScheduleConfig) (*constraint.Store, error) {
	store, err := constraint.NewStore(cfg.Constraints)
	if err != nil {
		return nil, fmt.Errorf("loading constraints: %w", err)
	}
	return store, nil
}

func loadMapping(path string) (*dataprep.ColumnMapping, error) {
	if path == "" {
		return dataprep.DefaultMapping(), nil
	}
	return dataprep.LoadMapping(path)
}

func loadProgram(path string) (*types.Program, error) {
	prog, err := types.LoadProgram(path)
	if err != nil {
		return nil, fmt.Errorf("loading programme: %w", err)
	}
	return prog, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
