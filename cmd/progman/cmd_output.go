package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"progman/internal/render"
)

var (
	outputProgram string
	outputPath    string
	outputFormat  string
)

var outputCmd = &cobra.Command{
	Use:   "output",
	Short: "Render the programme to Markdown or LaTeX",
	RunE:  runOutput,
}

func init() {
	outputCmd.Flags().StringVar(&outputProgram, "program", "output/program_chairs.json", "input programme snapshot")
	outputCmd.Flags().StringVarP(&outputPath, "output", "o", "output/program.md", "rendered output file")
	outputCmd.Flags().StringVarP(&outputFormat, "format", "f", "md", "output format: md or latex")
	rootCmd.AddCommand(outputCmd)
}

func runOutput(cmd *cobra.Command, args []string) error {
	prog, err := loadProgram(outputProgram)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := render.Write(prog, outputPath, outputFormat); err != nil {
		return err
	}
	logger.Info("programme rendered",
		zap.String("path", outputPath),
		zap.String("format", outputFormat))
	return nil
}
