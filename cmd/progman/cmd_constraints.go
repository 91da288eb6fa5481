package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"progman/internal/config"
	"progman/internal/constraint"
	"progman/internal/dataprep"
)

var (
	constraintText string
	constraintFile string
	constraintID   string
)

var constraintsCmd = &cobra.Command{
	Use:   "constraints",
	Short: "Manage scheduling constraints",
	Long: `Constraints are single-line rules of the form "subject op value", for
example:

  paper_12 = day_1
  paper_3 < paper_8
  paper_5 != S03
  paper_7 in {day_1, day_2}
  section_S01 = "Opening"
  room_Aula = day_1
  lunch_2 = 12:30

They are stored in the schedule config and applied by the skeleton and
paper assignment stages.`,
}

var constraintsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all constraints",
	RunE:  runConstraintsList,
}

var constraintsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a constraint from --text or a file of lines via --file",
	RunE:  runConstraintsAdd,
}

var constraintsEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Replace the constraint named by --cid with --text",
	RunE:  runConstraintsEdit,
}

var constraintsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the constraint named by --cid",
	RunE:  runConstraintsDelete,
}

func init() {
	constraintsAddCmd.Flags().StringVarP(&constraintText, "text", "t", "", "constraint text")
	constraintsAddCmd.Flags().StringVarP(&constraintFile, "file", "f", "", "file with one constraint per line")
	constraintsEditCmd.Flags().StringVarP(&constraintText, "text", "t", "", "replacement constraint text")
	constraintsEditCmd.Flags().StringVar(&constraintID, "cid", "", "constraint id")
	constraintsDeleteCmd.Flags().StringVar(&constraintID, "cid", "", "constraint id")

	constraintsCmd.AddCommand(constraintsListCmd, constraintsAddCmd, constraintsEditCmd, constraintsDeleteCmd)
	rootCmd.AddCommand(constraintsCmd)
}

func runConstraintsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := loadStore(cfg)
	if err != nil {
		return err
	}
	for _, c := range store.List() {
		fmt.Printf("  [%s]  %s\n", c.ID, c.Text())
	}
	return nil
}

func runConstraintsAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := loadStore(cfg)
	if err != nil {
		return err
	}

	var lines []string
	switch {
	case constraintFile != "":
		lines, err = dataprep.LoadConstraintLines(constraintFile)
		if err != nil {
			return err
		}
	case constraintText != "":
		lines = []string{constraintText}
	default:
		return fmt.Errorf("provide --text or --file")
	}

	for _, line := range lines {
		c, err := store.Add(line)
		if err != nil {
			return err
		}
		fmt.Printf("  Added [%s]  %s\n", c.ID, c.Text())
	}
	return saveConstraints(cfg, store)
}

func runConstraintsEdit(cmd *cobra.Command, args []string) error {
	if constraintID == "" || constraintText == "" {
		return fmt.Errorf("provide --cid and --text")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := loadStore(cfg)
	if err != nil {
		return err
	}
	c, found, err := store.Edit(constraintID, constraintText)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("constraint %s not found", constraintID)
	}
	fmt.Printf("  Updated [%s]  %s\n", c.ID, c.Text())
	return saveConstraints(cfg, store)
}

func runConstraintsDelete(cmd *cobra.Command, args []string) error {
	if constraintID == "" {
		return fmt.Errorf("provide --cid")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := loadStore(cfg)
	if err != nil {
		return err
	}
	if !store.Remove(constraintID) {
		return fmt.Errorf("constraint %s not found", constraintID)
	}
	fmt.Printf("  Deleted %s\n", constraintID)
	return saveConstraints(cfg, store)
}

func saveConstraints(cfg *config.ScheduleConfig, store *constraint.Store) error {
	cfg.Constraints = store.Texts()
	if err := cfg.Save(configPath); err != nil {
		return err
	}
	logger.Info("config updated", zap.String("path", configPath))
	return nil
}
