package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/internal/utils"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/lookup"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/navigation"
)

type shownEntity struct {
	Query   string       `json:"query"`
	Index   int          `json:"index"`
	Total   int          `json:"total"`
	Version uint64       `json:"version"`
	Outcome string       `json:"outcome"`
	Error   string       `json:"error,omitempty"`
	Active  entity.Match `json:"active"`
}

var showCmd = &cobra.Command{
	Use:   "show <query>",
	Short: "Open a merged entity, move to one of its platforms and print it once loaded",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recordIdx, _ := cmd.Flags().GetInt("record")
		index, _ := cmd.Flags().GetInt("index")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		if timeout <= 0 {
			timeout = fetchTimeout()
		}

		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		cfg := newLookupConfig(reg)
		query := strings.Join(args, " ")
		res, err := lookup.Search(cmd.Context(), cfg, query)
		if err != nil {
			return err
		}
		if recordIdx < 0 || recordIdx >= len(res.Records) {
			return fmt.Errorf("no entity #%d for %q (%d found)", recordIdx, query, len(res.Records))
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		loop := navigation.NewLoop()
		go loop.Run(ctx)

		store := navigation.NewStore()
		guard := navigation.NewGuard(store, navigation.GuardConfig{
			Channel:   cfg.Channel,
			Scheduler: loop,
			Log:       utils.Component("guard"),
			Timeout:   timeout,
		})
		defer guard.Close()
		nav := navigation.NewNavigator(store, guard, reg)

		settled := make(chan navigation.Settled, 8)
		var moved bool
		if err := loop.Do(ctx, func() {
			guard.OnSettle(func(s navigation.Settled) { settled <- s })
			nav.Open(res.Records[recordIdx].Result())
			moved = index == 0 || nav.GoTo(index)
		}); err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("entity has no platform #%d", index)
		}

		// The first fetch is stale when --index moved away from it.
		var last navigation.Settled
		deadline := time.After(timeout + time.Second)
	wait:
		for {
			select {
			case last = <-settled:
				if last.Outcome != navigation.OutcomeStale {
					break wait
				}
				utils.Log.Debugf("Discarded stale details for version %d", last.Version)
			case <-deadline:
				return fmt.Errorf("details did not arrive within %s", timeout)
			}
		}

		var st navigation.State
		if err := loop.Do(ctx, func() { st = store.Get() }); err != nil {
			return err
		}
		active, _ := st.Active()
		out := shownEntity{
			Query:   query,
			Index:   st.ActiveIndex,
			Total:   len(st.Results),
			Version: st.Version,
			Outcome: last.Outcome.String(),
			Active:  active,
		}
		if last.Err != nil {
			out.Error = last.Err.Error()
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Int("record", 0, "Which merged entity to open")
	showCmd.Flags().Int("index", 0, "Which platform of the entity to show (knowledge bases come first)")
	showCmd.Flags().Duration("timeout", 0, "How long to wait for the details (default: timeout from config)")
}
