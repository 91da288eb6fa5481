package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"progman/internal/chairs"
	"progman/internal/dataprep"
	"progman/internal/render"
	"progman/internal/rooms"
	"progman/internal/similarity"
	"progman/internal/skeleton"
	"progman/internal/types"
)

var (
	generateOutput string
	generateFormat string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full pipeline",
	Long: `Runs every stage in order: skeleton, paper assignment, room
assignment, chair assignment, and rendering. The final programme snapshot
and the rendered document are written next to each other.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&papersCSV, "papers", "papers.csv", "paper CSV file")
	generateCmd.Flags().StringVar(&topicsCSV, "topics", "topics.csv", "topic CSV file")
	generateCmd.Flags().StringVar(&mappingPath, "mapping", "", "column mapping JSON (optional)")
	generateCmd.Flags().StringVar(&roomsCSV, "rooms", "", "room CSV file (optional)")
	generateCmd.Flags().StringVar(&chairsCSV, "chairs", "", "chair roster CSV (optional)")
	generateCmd.Flags().IntVar(&numChairs, "num-chairs", 10, "default roster size without a chair file")
	generateCmd.Flags().StringVar(&scoresPath, "scores", "", "paper-topic score JSON (optional)")
	generateCmd.Flags().StringVar(&topicSimPath, "topic-sim", "", "topic similarity matrix JSON (optional)")
	generateCmd.Flags().Float64Var(&mergeThreshold, "merge-threshold", 0.75, "topic merge similarity threshold")
	generateCmd.Flags().IntVar(&minGroupSize, "min-group-size", 3, "merge topics with at most this many papers")
	generateCmd.Flags().BoolVar(&forceAssign, "force", false, "proceed despite insufficient capacity")
	generateCmd.Flags().DurationVar(&timeBudget, "time-budget", 0, "solver time budget (0 = unlimited)")
	generateCmd.Flags().IntVar(&solverWorkers, "workers", 0, "parallel solver workers (0 = NumCPU)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "output/program.json", "programme output file")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", "md", "rendered format: md or latex")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
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
	mapping, err := loadMapping(mappingPath)
	if err != nil {
		return err
	}
	papers, err := dataprep.LoadPapers(papersCSV, mapping)
	if err != nil {
		return err
	}
	topics, err := dataprep.LoadTopics(topicsCSV)
	if err != nil {
		return err
	}

	logger.Info("step 1/5: building skeleton")
	prog, err := skeleton.NewBuilder(cfg, derived, logger).Build()
	if err != nil {
		return err
	}

	if err := capacityGate(prog, len(papers), cfg, forceAssign); err != nil {
		return err
	}

	var scores similarity.PaperTopicScores
	if scoresPath != "" {
		if scores, err = similarity.LoadPaperTopicScores(scoresPath); err != nil {
			return err
		}
	}
	var matrix *similarity.Matrix
	if topicSimPath != "" {
		if matrix, err = similarity.LoadMatrix(topicSimPath); err != nil {
			return err
		}
	}

	logger.Info("step 2/5: assigning papers")
	prog, err = assignPapers(cmd.Context(), prog, papers, topics, cfg, store, scores, matrix)
	if err != nil {
		return err
	}

	logger.Info("step 3/5: assigning rooms")
	var roomList []types.Room
	if roomsCSV != "" && fileExists(roomsCSV) {
		if roomList, err = dataprep.LoadRooms(roomsCSV); err != nil {
			return err
		}
	} else {
		roomList = dataprep.DefaultRooms(cfg.NumAvailableRooms)
	}
	prog = rooms.New(logger).Assign(prog, roomList, papers, derived)

	logger.Info("step 4/5: assigning chairs")
	var roster []types.Chair
	if chairsCSV != "" && fileExists(chairsCSV) {
		if roster, err = dataprep.LoadChairs(chairsCSV); err != nil {
			return err
		}
	} else {
		roster = dataprep.DefaultChairs(numChairs)
	}
	prog = chairs.New(logger).Assign(prog, roster, papers)

	logger.Info("step 5/5: writing output")
	if err := prog.Save(generateOutput); err != nil {
		return err
	}
	ext := "." + generateFormat
	if generateFormat == "latex" {
		ext = ".tex"
	}
	rendered := strings.TrimSuffix(generateOutput, filepath.Ext(generateOutput)) + ext
	if err := render.Write(prog, rendered, generateFormat); err != nil {
		return err
	}

	logger.Info("pipeline done",
		zap.String("programme", generateOutput),
		zap.String("rendered", rendered))
	return nil
}
