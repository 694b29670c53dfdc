package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/internal/utils"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/lookup"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent lookups (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		db, err := openHistory(cmd, false)
		if err != nil {
			return err
		}
		defer db.Close()

		lookups, err := db.ListRecentLookups(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(lookups) == 0 {
			fmt.Println("No lookups recorded yet.")
			return nil
		}
		rows := make([][]any, 0, len(lookups))
		for _, l := range lookups {
			rows = append(rows, []any{l.OccurredAt.Format("2006-01-02 15:04:05"), l.Query, l.RecordCount, l.HitCount, l.SourceURL})
		}
		writeTable("TIME\tQUERY\tENTITIES\tHITS\tSOURCE\t", rows)
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints per-platform statistics about recorded lookups.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openHistory(cmd, false)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		var totalLookups, totalHits int
		rows := make([][]any, 0, len(stats)+2)
		for _, s := range stats {
			rows = append(rows, []any{s.Platform, s.LookupCount, s.HitCount, s.DistinctEntity})
			totalLookups += s.LookupCount
			totalHits += s.HitCount
		}
		rows = append(rows, []any{" ", " ", " ", " "}, []any{"TOTAL", totalLookups, totalHits, "-"})
		writeTable("PLATFORM\tLOOKUPS\tHITS\tENTITIES\t", rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: db.path from config, or ~/.config/xtmscope/history.sqlite)")
	historyCmd.Flags().Int("limit", 50, "Number of recent lookups to show")
}

func dbPathFor(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("dbpath"); p != "" {
		return p
	}
	return viper.GetString("db.path")
}

// openHistory opens the lookup history. With create unset a missing file is an error.
func openHistory(cmd *cobra.Command, create bool) (*storage.DB, error) {
	path, err := utils.GetAbsDBPath(dbPathFor(cmd))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if !create {
			return nil, fmt.Errorf("database not found: %s", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	return storage.Open(path)
}

// recordResults saves every result to the history under the database file lock.
func recordResults(ctx context.Context, cmd *cobra.Command, sourceURL string, results []*lookup.Result) error {
	path, err := utils.GetAbsDBPath(dbPathFor(cmd))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	lock, err := utils.NewDBLock(path)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	db, err := openHistory(cmd, true)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, r := range results {
		if _, err := db.RecordLookup(ctx, r.Query, sourceURL, r.Records); err != nil {
			return err
		}
	}
	utils.Log.Debugf("Recorded %d lookups", len(results))
	return nil
}
