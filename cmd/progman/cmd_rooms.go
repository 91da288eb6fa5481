package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"progman/internal/dataprep"
	"progman/internal/rooms"
	"progman/internal/types"
)

var (
	roomsCSV       string
	roomsProgram   string
	roomsPapersCSV string
	roomsMapping   string
	roomsOutput    string
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Assign rooms to sessions",
	Long: `Pairs sessions with rooms: plenary sessions take the largest room,
busy sessions take big rooms, and a topic keeps its room across slots
where possible. Without a room file, unnamed default rooms are used.`,
	RunE: runRooms,
}

func init() {
	roomsCmd.Flags().StringVar(&roomsCSV, "rooms", "", "room CSV file (optional)")
	roomsCmd.Flags().StringVar(&roomsProgram, "program", "output/program_papers.json", "input programme snapshot")
	roomsCmd.Flags().StringVar(&roomsPapersCSV, "papers", "", "paper CSV for audience estimates (optional)")
	roomsCmd.Flags().StringVar(&roomsMapping, "mapping", "", "column mapping JSON (optional)")
	roomsCmd.Flags().StringVarP(&roomsOutput, "output", "o", "output/program_rooms.json", "programme output file")
	rootCmd.AddCommand(roomsCmd)
}

func runRooms(cmd *cobra.Command, args []string) error {
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
	prog, err := loadProgram(roomsProgram)
	if err != nil {
		return err
	}

	var roomList []types.Room
	if roomsCSV != "" && fileExists(roomsCSV) {
		if roomList, err = dataprep.LoadRooms(roomsCSV); err != nil {
			return err
		}
	} else {
		roomList = dataprep.DefaultRooms(cfg.NumAvailableRooms)
	}

	var papers []types.Paper
	if roomsPapersCSV != "" {
		mapping, err := loadMapping(roomsMapping)
		if err != nil {
			return err
		}
		if papers, err = dataprep.LoadPapers(roomsPapersCSV, mapping); err != nil {
			return err
		}
	}

	out := rooms.New(logger).Assign(prog, roomList, papers, derived)
	if err := out.Save(roomsOutput); err != nil {
		return err
	}
	logger.Info("rooms assigned", zap.String("path", roomsOutput))
	return nil
}
