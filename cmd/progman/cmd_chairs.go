package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"progman/internal/chairs"
	"progman/internal/dataprep"
	"progman/internal/types"
)

var (
	chairsCSV       string
	chairsProgram   string
	chairsPapersCSV string
	chairsMapping   string
	chairsOutput    string
	numChairs       int
)

var chairsCmd = &cobra.Command{
	Use:   "chairs",
	Short: "Assign chairs to sessions",
	Long: `Places a chair on every session, respecting presence days and author
conflicts, preferring topic matches and balancing load. The paper CSV,
when given, lets the assigner infer each chair's topics from their own
papers and detect author conflicts.`,
	RunE: runChairs,
}

func init() {
	chairsCmd.Flags().StringVar(&chairsCSV, "chairs", "", "chair roster CSV (optional)")
	chairsCmd.Flags().StringVar(&chairsProgram, "program", "output/program_rooms.json", "input programme snapshot")
	chairsCmd.Flags().StringVar(&chairsPapersCSV, "papers", "", "paper CSV for topic inference (optional)")
	chairsCmd.Flags().StringVar(&chairsMapping, "mapping", "", "column mapping JSON (optional)")
	chairsCmd.Flags().IntVar(&numChairs, "num-chairs", 10, "default roster size without a chair file")
	chairsCmd.Flags().StringVarP(&chairsOutput, "output", "o", "output/program_chairs.json", "programme output file")
	rootCmd.AddCommand(chairsCmd)
}

func runChairs(cmd *cobra.Command, args []string) error {
	prog, err := loadProgram(chairsProgram)
	if err != nil {
		return err
	}

	var roster []types.Chair
	if chairsCSV != "" && fileExists(chairsCSV) {
		if roster, err = dataprep.LoadChairs(chairsCSV); err != nil {
			return err
		}
	} else {
		roster = dataprep.DefaultChairs(numChairs)
	}

	var papers []types.Paper
	if chairsPapersCSV != "" {
		mapping, err := loadMapping(chairsMapping)
		if err != nil {
			return err
		}
		if papers, err = dataprep.LoadPapers(chairsPapersCSV, mapping); err != nil {
			return err
		}
	}

	out := chairs.New(logger).Assign(prog, roster, papers)
	if err := out.Save(chairsOutput); err != nil {
		return err
	}
	logger.Info("chairs assigned",
		zap.String("path", chairsOutput),
		zap.Int("warnings", len(out.Meta.ChairWarnings)))
	return nil
}
