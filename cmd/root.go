package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "Record attendance from recognized faces",
	Long: `Face Attendance matches face embeddings from a camera against a catalog of
known people and records each person at most once per day in an attendance
ledger (CSV or SQLite).`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	pf.String("log-format", "", "Log format: text or json (env LOG_FORMAT)")
	pf.String("catalog-source", "", "Catalog source: dir, manifest or postgres (env CATALOG_SOURCE)")
	pf.String("ledger", "", "Ledger file path (env LEDGER_PATH)")
	pf.String("ledger-backend", "", "Ledger backend: csv or sqlite (env LEDGER_BACKEND)")
	pf.String("metric", "", "Distance metric: euclidean or cosine (env MATCH_METRIC)")
	pf.Float64("threshold", 0, "Maximum distance for a match (env MATCH_THRESHOLD)")
	pf.Duration("detection-delay", 0, "Debounce window per identity (env DETECTION_DELAY)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
