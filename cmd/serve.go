package cmd

import (
	"log"

	"github.com/hoopscope/hoopscope/internal/server"
	"github.com/hoopscope/hoopscope/internal/utils"
	"github.com/hoopscope/hoopscope/pkg/ai"
	"github.com/hoopscope/hoopscope/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hoopscope web interface",
	Long:  `Start a web server to browse challenges and run analyses from your browser.`,
	Run: func(cmd *cobra.Command, args []string) {
		dbPath := resolveDBPath(cmd)

		db, err := storage.Open(dbPath)
		if err != nil {
			log.Fatalf("Failed to open DB: %v", err)
		}
		defer db.Close()

		// Auth
		user, _ := cmd.Flags().GetString("username")
		pass, _ := cmd.Flags().GetString("password")
		if user == "" && pass == "" {
			user = viper.GetString("server.username")
			pass = viper.GetString("server.password")
		}
		addr, _ := cmd.Flags().GetString("bind")

		srv := server.New(db, user, pass)

		if apiKey := viper.GetString("ai.api_key"); apiKey != "" {
			aiStrategy, err := ai.NewAnalyzer(ai.Config{
				APIKey:   apiKey,
				Model:    viper.GetString("ai.model"),
				Endpoint: viper.GetString("ai.endpoint"),
			})
			if err != nil {
				utils.Log.Warn("AI strategy unavailable: ", err)
			} else {
				srv.AI = aiStrategy
			}
		}

		if err := srv.Start(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("bind", "b", ":9999", "Address to bind the server to")
	serveCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	serveCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")
	serveCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: hoopscope.sqlite in CWD)")
}
