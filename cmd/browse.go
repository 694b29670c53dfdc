package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/internal/panel"
)

var browseCmd = &cobra.Command{
	Use:   "browse <query>",
	Short: "Search and page through the results interactively",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		return panel.Run(panel.Config{
			Query:    strings.Join(args, " "),
			Lookup:   newLookupConfig(reg),
			Registry: reg,
			Timeout:  fetchTimeout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
