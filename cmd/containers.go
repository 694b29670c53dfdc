package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/lookup"
)

var containersCmd = &cobra.Command{
	Use:   "containers <url>",
	Short: "List the reports and cases that already reference a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		containers, err := lookup.Containers(cmd.Context(), newChannel(reg), args[0])
		if err != nil {
			return err
		}
		if len(containers) == 0 {
			fmt.Println("No container references this URL.")
			return nil
		}
		printContainers(containers)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(containersCmd)
}

func printContainers(containers []entity.Container) {
	rows := make([][]any, 0, len(containers))
	for _, c := range containers {
		rows = append(rows, []any{c.PlatformID, c.Type, c.Name, c.Created, c.URL})
	}
	writeTable("PLATFORM\tTYPE\tNAME\tCREATED\tLINK\t", rows)
}
