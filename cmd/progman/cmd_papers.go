package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"progman/internal/config"
	"progman/internal/constraint"
	"progman/internal/dataprep"
	"progman/internal/similarity"
	"progman/internal/solver"
	"progman/internal/types"
)

var (
	papersCSV      string
	topicsCSV      string
	mappingPath    string
	programPath    string
	papersOutput   string
	scoresPath     string
	topicSimPath   string
	mergeThreshold float64
	minGroupSize   int
	forceAssign    bool
	timeBudget     time.Duration
	solverWorkers  int
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Assign papers to sessions",
	Long: `Assigns every paper to a session, maximising the total topic
preference score under the configured constraints. A capacity pre-flight
check runs first; --force proceeds with a partial assignment when the
skeleton cannot hold every paper.`,
	RunE: runPapers,
}

func init() {
	papersCmd.Flags().StringVar(&papersCSV, "papers", "papers.csv", "paper CSV file")
	papersCmd.Flags().StringVar(&topicsCSV, "topics", "topics.csv", "topic CSV file")
	papersCmd.Flags().StringVar(&mappingPath, "mapping", "", "column mapping JSON (optional)")
	papersCmd.Flags().StringVar(&programPath, "program", "output/skeleton.json", "input programme snapshot")
	papersCmd.Flags().StringVarP(&papersOutput, "output", "o", "output/program_papers.json", "programme output file")
	papersCmd.Flags().StringVar(&scoresPath, "scores", "", "paper-topic score JSON (optional)")
	papersCmd.Flags().StringVar(&topicSimPath, "topic-sim", "", "topic similarity matrix JSON (optional)")
	papersCmd.Flags().Float64Var(&mergeThreshold, "merge-threshold", 0.75, "topic merge similarity threshold")
	papersCmd.Flags().IntVar(&minGroupSize, "min-group-size", 3, "merge topics with at most this many papers")
	papersCmd.Flags().BoolVar(&forceAssign, "force", false, "proceed despite insufficient capacity")
	papersCmd.Flags().DurationVar(&timeBudget, "time-budget", 0, "solver time budget (0 = unlimited)")
	papersCmd.Flags().IntVar(&solverWorkers, "workers", 0, "parallel solver workers (0 = NumCPU)")
	rootCmd.AddCommand(papersCmd)
}

func runPapers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := loadStore(cfg)
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
	prog, err := loadProgram(programPath)
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

	out, err := assignPapers(cmd.Context(), prog, papers, topics, cfg, store, scores, matrix)
	if err != nil {
		return err
	}
	if err := out.Save(papersOutput); err != nil {
		return err
	}
	logger.Info("papers assigned",
		zap.String("path", papersOutput),
		zap.Int("assigned", out.Meta.PapersAssigned),
		zap.Int("total", out.Meta.PapersTotal))
	return nil
}

// assignPapers wires the solver run: constraint views, topic merge groups,
// and the search itself. Shared with the generate pipeline.
func assignPapers(ctx context.Context, prog *types.Program, papers []types.Paper,
	topics []types.Topic, cfg *config.ScheduleConfig, store *constraint.Store,
	scores similarity.PaperTopicScores, matrix *similarity.Matrix) (*types.Program, error) {

	if err := store.Validate(prog, papers, nil, cfg.NumDays); err != nil {
		return nil, err
	}
	derived, err := store.Derive()
	if err != nil {
		return nil, err
	}
	groups := similarity.BuildGroups(papers, topics, matrix, mergeThreshold, minGroupSize, logger)

	return solver.New(cfg, logger).Assign(ctx, prog, solver.Options{
		Papers:       papers,
		Topics:       topics,
		Derived:      derived,
		Scores:       scores,
		Matrix:       matrix,
		Groups:       groups,
		TimeBudget:   timeBudget,
		Workers:      solverWorkers,
		AllowPartial: forceAssign,
	})
}

// capacityGate runs the pre-flight check and prints the report. Without
// --force an insufficient skeleton aborts the run.
func capacityGate(prog *types.Program, numPapers int, cfg *config.ScheduleConfig, force bool) error {
	report := solver.CheckCapacity(prog, numPapers, cfg)
	fmt.Println("\n-- Capacity Pre-flight Check --")
	fmt.Println(report.Summary())
	if report.Feasible() {
		return nil
	}
	if force {
		fmt.Printf("--force set: proceeding, at most %d/%d papers will be assigned.\n\n",
			report.TotalCapacity, report.Papers)
		return nil
	}
	return &solver.CapacityError{Report: report}
}
