package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"progman/internal/skeleton"
)

var skeletonOutput string

var skeletonCmd = &cobra.Command{
	Use:     "skeleton",
	Aliases: []string{"dummy"},
	Short:   "Generate the session skeleton from the schedule config",
	Long: `Builds the empty programme structure: per-day time slots with breaks,
lunch, optional dinner, reserved plenary slots, and parallel session
blocks ready to receive papers. Break and session constraints from the
config are honoured.`,
	RunE: runSkeleton,
}

func init() {
	skeletonCmd.Flags().StringVarP(&skeletonOutput, "output", "o", "output/skeleton.json", "programme output file")
	rootCmd.AddCommand(skeletonCmd)
}

func runSkeleton(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := loadStore(cfg)
	if err != nil {
		return err
	}
	derived, err := store.Derive()
	if err != nil {
		return err
	}

	prog, err := skeleton.NewBuilder(cfg, derived, logger).Build()
	if err != nil {
		return fmt.Errorf("building skeleton: %w", err)
	}
	if err := prog.Save(skeletonOutput); err != nil {
		return err
	}
	logger.Info("skeleton programme saved", zap.String("path", skeletonOutput))
	return nil
}
