package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/hoopscope/hoopscope/pkg/storage"
	"github.com/spf13/cobra"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show recent challenge changes (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbPath := resolveDBPath(cmd)
		limit, _ := cmd.Flags().GetInt("limit")
		if _, err := os.Stat(dbPath); err != nil {
			return fmt.Errorf("database not found: %s", dbPath)
		}
		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		changes, err := db.ListRecentChanges(context.Background(), limit)
		if err != nil {
			return err
		}
		for _, c := range changes {
			ts := c.OccurredAt.Format("2006-01-02 15:04:05")
			fmt.Printf("%s  %-7s  %s  %s  %s\n", ts, c.ChangeType, c.Source, c.ChallengeID, c.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(changesCmd)
	changesCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: hoopscope.sqlite in CWD)")
	changesCmd.Flags().Int("limit", 50, "Number of recent changes to show")
}
