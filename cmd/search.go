package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/internal/utils"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/lookup"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/resolve"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search every platform and print the merged entities",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		saveDB, _ := cmd.Flags().GetBool("db")

		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		res, err := lookup.Search(cmd.Context(), newLookupConfig(reg), strings.Join(args, " "))
		if err != nil {
			return err
		}
		for _, e := range res.Errors {
			utils.Log.Warn(e)
		}

		if saveDB {
			if err := recordResults(cmd.Context(), cmd, "", []*lookup.Result{res}); err != nil {
				utils.Log.Errorf("Could not record lookup: %v", err)
			}
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printRecords(res.Records)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Bool("json", false, "Print the raw matches and merged records as JSON")
	searchCmd.Flags().Bool("db", false, "Record the lookup in the history database")
	searchCmd.Flags().String("dbpath", "", "Path to SQLite DB file")
}

func printRecords(records []resolve.Record) {
	if len(records) == 0 {
		fmt.Println("No entity found.")
		return
	}
	for i, r := range records {
		fmt.Printf("[%d] %s (%s)\n", i, r.Name, r.Type)
		for j, m := range r.Result().Matches {
			name := ""
			for _, c := range r.Contributions {
				if c.PlatformID == m.PlatformID {
					name = c.PlatformName
					break
				}
			}
			fmt.Printf("    %d. %-20s %-10s %s\n", j, name, m.PlatformKind, m.EntityID)
		}
	}
}
