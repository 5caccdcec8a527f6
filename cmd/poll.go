package cmd

import (
	"fmt"

	"github.com/hoopscope/hoopscope/internal/utils"
	"github.com/hoopscope/hoopscope/pkg/challenge"
	"github.com/hoopscope/hoopscope/pkg/platforms"
	"github.com/hoopscope/hoopscope/pkg/platforms/topshot"
	"github.com/hoopscope/hoopscope/pkg/polling"
	"github.com/hoopscope/hoopscope/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// pollCmd implements: hoopscope poll
var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Poll Top Shot and fetch challenges",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown command: '%s'. See 'hoopscope poll --help'", args[0])
		}

		proxy, _ := cmd.Flags().GetString("proxy")
		retries, _ := cmd.Flags().GetInt("retries")
		activeOnly, _ := cmd.Flags().GetBool("active")
		useDB, _ := cmd.Flags().GetBool("db")

		src := topshot.NewSource(retries)
		authCfg := platforms.AuthConfig{
			SessionToken: viper.GetString("topshot.session_token"),
			Proxy:        proxy,
		}
		if err := src.Authenticate(cmd.Context(), authCfg); err != nil {
			return err
		}
		if authCfg.SessionToken == "" {
			utils.Log.Info("No session token in config, polling public challenge pages only.")
		}

		opts := platforms.PollOptions{ActiveOnly: activeOnly}

		if !useDB {
			return printPolledChallenges(cmd, src, opts)
		}

		dbPath := resolveDBPath(cmd)
		lock, err := utils.NewDBLock(dbPath)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		concurrency, _ := cmd.Flags().GetInt("concurrency")
		result, err := polling.PollSource(cmd.Context(), polling.SourceConfig{
			Source:      src,
			Options:     opts,
			DB:          db,
			Concurrency: concurrency,
			Log:         utils.Log,
			OnChallengeDone: func(ch challenge.Challenge, changes []storage.Change, isFirstRun bool) {
				if !isFirstRun {
					printChanges(changes)
				}
			},
		})
		if err != nil {
			return err
		}

		if !result.IsFirstRun {
			printChanges(result.RemovedChallengeChanges)
		}
		for _, pollErr := range result.Errors {
			utils.Log.Warn(pollErr)
		}

		fmt.Printf("Polled %d challenges from %s\n", len(result.PolledChallengeIDs), src.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pollCmd)

	pollCmd.Flags().Bool("db", false, "Save results to the database and print changes")
	pollCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: hoopscope.sqlite in CWD)")
	pollCmd.Flags().Int("concurrency", 5, "Number of concurrent challenge fetches")
	pollCmd.Flags().Int("retries", 3, "HTTP retries for transient failures")
	pollCmd.Flags().Bool("active", false, "Skip completed challenges")
	pollCmd.Flags().StringP("output", "o", "tr", "Output flags. Supported: t (required card title), r (rarity), u (challenge URL), i (challenge ID). Can be combined. Example: -o tru")
	pollCmd.Flags().StringP("delimiter", "d", " ", "Delimiter character to use for txt output format")
}

// printPolledChallenges fetches everything and prints to stdout without
// touching the database.
func printPolledChallenges(cmd *cobra.Command, src platforms.ChallengeSource, opts platforms.PollOptions) error {
	refs, err := src.ListChallengeRefs(cmd.Context(), opts)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	delimiter, _ := cmd.Flags().GetString("delimiter")

	for _, ref := range refs {
		ch, err := src.FetchChallenge(cmd.Context(), ref, opts)
		if err != nil {
			utils.Log.Warnf("Failed to fetch challenge %s: %v", ref, err)
			continue
		}
		challenge.PrintChallenge(ch, output, delimiter)
	}
	return nil
}

func printChanges(changes []storage.Change) {
	for _, c := range changes {
		var emoji string
		switch c.ChangeType {
		case "added":
			emoji = "🆕"
		case "removed":
			emoji = "❌"
		case "updated":
			emoji = "🔄"
		}
		fmt.Printf("%s  %s  %s  %s\n", emoji, c.Source, c.ChallengeID, c.Title)
	}
}
