package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/internal/utils"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/lookup"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/observables"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/whttp"
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Extract the indicators of a web page and look them up on every platform",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pageURL := args[0]
		saveDB, _ := cmd.Flags().GetBool("db")
		roots, _ := cmd.Flags().GetBool("roots")

		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		cfg := newLookupConfig(reg)

		page, err := whttp.FetchPage(cmd.Context(), pageURL, nil)
		if err != nil {
			return err
		}

		obs, err := observables.Extract(page.BodyString)
		if err != nil {
			return err
		}
		if page.HTTPTitle != "" {
			fmt.Printf("%s\n", page.HTTPTitle)
		}
		fmt.Printf("Found %d observables on %s\n", len(obs), pageURL)
		for _, o := range obs {
			utils.Log.Debugf("%-14s %s", o.Type, o.Value)
		}

		queries := observables.Values(obs)
		if roots {
			queries = append(queries, rootDomains(obs)...)
		}

		results, err := lookup.SearchMany(cmd.Context(), cfg, queries)
		if err != nil {
			return err
		}
		for _, r := range results {
			for _, e := range r.Errors {
				utils.Log.Warn(e)
			}
		}
		if saveDB {
			if err := recordResults(cmd.Context(), cmd, pageURL, results); err != nil {
				utils.Log.Errorf("Could not record lookups: %v", err)
			}
		}

		fmt.Println()
		printRecords(lookup.Records(results))

		containers, err := lookup.Containers(cmd.Context(), cfg.Channel, pageURL)
		if err != nil {
			utils.Log.Warnf("Could not look up containers: %v", err)
			return nil
		}
		if len(containers) > 0 {
			fmt.Println("\nAlready referenced by:")
			printContainers(containers)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Bool("db", false, "Record the lookups in the history database")
	scanCmd.Flags().String("dbpath", "", "Path to SQLite DB file")
	scanCmd.Flags().Bool("roots", false, "Also look up the registrable domain of every domain found")
}

// rootDomains returns the registrable domains of the domain observables that are
// not already observables themselves.
func rootDomains(obs []observables.Observable) []string {
	seen := make(map[string]struct{}, len(obs))
	for _, o := range obs {
		seen[o.Value] = struct{}{}
	}
	var out []string
	for _, o := range obs {
		if o.Type != observables.TypeDomain {
			continue
		}
		root, ok := observables.RootDomain(o.Value)
		if !ok {
			continue
		}
		if _, dup := seen[root]; dup {
			continue
		}
		seen[root] = struct{}{}
		out = append(out, root)
	}
	return out
}
