package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/hoopscope/hoopscope/internal/utils"
	"github.com/hoopscope/hoopscope/pkg/analyzer"
	"github.com/hoopscope/hoopscope/pkg/storage"
	"github.com/spf13/cobra"
)

// libraryCmd represents the library command
var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage your card library",
}

// libraryImportCmd reads one card per line in the
// "<player> - <playType> - <date>, <series>, <team>" format and replaces
// the stored library with the result.
var libraryImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import your card library from a text file (one card per line)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		var records []analyzer.RawRecord
		scanner := bufio.NewScanner(f)
		lineNo := 0
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			lineNo++
			records = append(records, analyzer.RawRecord{
				ID:      fmt.Sprintf("card-%04d", lineNo),
				Content: line,
			})
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("no cards found in %s", args[0])
		}

		cards := analyzer.ParseLibrary(records)

		unparsed := 0
		for _, c := range cards {
			if c.PlayerName == "Unknown" {
				unparsed++
			}
		}
		if unparsed > 0 {
			utils.Log.Warnf("%d cards could not be fully parsed and were kept as Unknown", unparsed)
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

		if err := db.ReplaceLibrary(context.Background(), storage.RecordsFromCards(cards)); err != nil {
			return err
		}

		fmt.Printf("Imported %d cards\n", len(cards))
		return nil
	},
}

// libraryListCmd prints the stored library.
var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the cards in your library",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := resolveDBPath(cmd)
		if _, err := os.Stat(dbPath); err != nil {
			return fmt.Errorf("database not found: %s", dbPath)
		}

		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		cards, err := db.ListLibrary(context.Background())
		if err != nil {
			return err
		}
		if len(cards) == 0 {
			fmt.Println("Library is empty. Run 'hoopscope library import' first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tPLAYER\tPLAY\tSERIES\tTEAM\tRARITY\t")
		for _, c := range cards {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n", c.CardID, c.PlayerName, c.PlayType, c.Series, c.Team, c.Rarity)
		}
		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryImportCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: hoopscope.sqlite in CWD)")
}
