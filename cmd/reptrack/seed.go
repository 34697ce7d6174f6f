package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/claude/reptrack/internal/config"
	"github.com/claude/reptrack/internal/logging"
	"github.com/claude/reptrack/internal/models"
	"github.com/claude/reptrack/internal/storage"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo users, the exercise catalog and a week of assignments",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

var (
	seedDays  int
	seedStart string
)

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().IntVar(&seedDays, "days", 7, "Number of days to assign, starting at --start")
	seedCmd.Flags().StringVar(&seedStart, "start", "", "First day (YYYY-MM-DD); defaults to today")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, closer := logging.New(cfg.Log)
	defer closer.Close()

	start := models.Day(time.Now(), cfg.Workouts.Location())
	if seedStart != "" {
		start, err = time.Parse(models.DateLayout, seedStart)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}

	store, _, err := openStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := storage.Seed(cmd.Context(), store, storage.SeedOptions{Start: start, Days: seedDays})
	if err != nil {
		return err
	}
	log.Info("seeded",
		"users", res.Users,
		"exercises", res.Exercises,
		"assignments", res.Assignments,
		"start", start.Format(models.DateLayout),
	)
	return nil
}
