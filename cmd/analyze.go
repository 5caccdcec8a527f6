package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/hoopscope/hoopscope/internal/utils"
	"github.com/hoopscope/hoopscope/pkg/ai"
	"github.com/hoopscope/hoopscope/pkg/analyzer"
	"github.com/hoopscope/hoopscope/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// analyzeCmd implements: hoopscope analyze [challenge-id]
var analyzeCmd = &cobra.Command{
	Use:   "analyze [challenge-id]",
	Short: "Check which challenges your card library can complete",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := resolveDBPath(cmd)
		if _, err := os.Stat(dbPath); err != nil {
			return fmt.Errorf("database not found: %s. Run 'hoopscope poll --db' first", dbPath)
		}

		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		strategy, err := buildStrategy(cmd)
		if err != nil {
			return err
		}

		ctx := context.Background()

		records, err := db.ListLibrary(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			utils.Log.Warn("Library is empty, every requirement will be reported as missing. Run 'hoopscope library import' first.")
		}
		cards := storage.CardsFromRecords(records)

		var challenges []storage.ChallengeRecord
		if len(args) == 1 {
			rec, err := db.GetChallenge(ctx, args[0])
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("challenge not found: %s", args[0])
				}
				return err
			}
			challenges = append(challenges, rec)
		} else {
			challenges, err = db.ListChallenges(ctx, storage.ListOptions{})
			if err != nil {
				return err
			}
		}
		if len(challenges) == 0 {
			fmt.Println("No challenges in the database. Run 'hoopscope poll --db' first.")
			return nil
		}

		jsonOut, _ := cmd.Flags().GetBool("json")

		var results []analyzer.AnalysisResult
		for _, rec := range challenges {
			result, err := strategy.Analyze(ctx, rec.ToChallenge(), cards)
			if err != nil {
				return fmt.Errorf("analysis of %s failed: %w", rec.ChallengeID, err)
			}

			// Persisting the run is best effort; failures never change the output.
			if _, err := db.SaveAnalysis(ctx, strategy.Name(), result); err != nil {
				utils.Log.Warn("Could not persist analysis: ", err)
			}

			if jsonOut {
				results = append(results, result)
			} else {
				printAnalysis(result)
			}
		}

		if jsonOut {
			return json.NewEncoder(os.Stdout).Encode(results)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: hoopscope.sqlite in CWD)")
	analyzeCmd.Flags().StringP("strategy", "s", "rules", "Analysis strategy. Available: rules, ai")
	analyzeCmd.Flags().Bool("json", false, "Print results as JSON")
}

// buildStrategy picks the analysis strategy from the --strategy flag. The
// ai strategy always carries the rule engine as a fallback.
func buildStrategy(cmd *cobra.Command) (analyzer.Strategy, error) {
	rules := analyzer.NewRuleEngine(analyzer.DefaultResolverConfig())

	strategyName, _ := cmd.Flags().GetString("strategy")
	switch strategyName {
	case "rules":
		return rules, nil
	case "ai":
		apiKey := viper.GetString("ai.api_key")
		if apiKey == "" {
			return nil, fmt.Errorf("ai strategy requires ai.api_key in ~/.hoopscope.yaml")
		}
		aiStrategy, err := ai.NewAnalyzer(ai.Config{
			APIKey:   apiKey,
			Model:    viper.GetString("ai.model"),
			Endpoint: viper.GetString("ai.endpoint"),
		})
		if err != nil {
			return nil, err
		}
		return analyzer.WithFallback(aiStrategy, rules, utils.Log), nil
	default:
		return nil, fmt.Errorf("unknown strategy: %s", strategyName)
	}
}

func printAnalysis(result analyzer.AnalysisResult) {
	completable := "no"
	if result.CanComplete {
		completable = "yes"
	}
	fmt.Printf("%s: %d%% (completable: %s)\n", result.ChallengeTitle, result.CompletionPercentage, completable)

	for _, req := range result.PerRequirement {
		symbol := "✗"
		switch req.Status {
		case analyzer.StatusExactMatch:
			symbol = "✓"
		case analyzer.StatusRarityUpgrade:
			symbol = "⇧"
		case analyzer.StatusPotentialMatch:
			symbol = "?"
		}

		line := fmt.Sprintf("  %s %s", symbol, req.RequirementTitle)
		if req.MatchedCard != nil {
			line += fmt.Sprintf(" (%s, %s)", req.MatchedCard.PlayerName, req.MatchedCard.Rarity)
		}
		if req.Notes != "" {
			line += " - " + req.Notes
		}
		fmt.Println(line)
	}

	for _, rec := range result.Recommendations {
		fmt.Println("  > " + rec)
	}
	fmt.Println()
}
