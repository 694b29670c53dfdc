package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/internal/utils"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/lookup"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/messaging"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/platforms"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/platforms/dev"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/platforms/openaev"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/platforms/opencti"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/whttp"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List the configured platforms",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tKIND\tURL\tPREMIUM\t")
		for _, d := range reg.Descriptors() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t\n", d.ID, d.DisplayName, d.Kind, d.BaseURL, d.Premium)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}

// loadRegistry builds the platform clients from the config file, or the demo
// platforms when --dev is set.
func loadRegistry(cmd *cobra.Command) (*platforms.Registry, error) {
	if devMode, _ := cmd.Flags().GetBool("dev"); devMode {
		latency, _ := cmd.Flags().GetDuration("dev-latency")
		return dev.NewRegistry(latency), nil
	}

	var configs []platforms.Config
	if err := viper.UnmarshalKey("platforms", &configs); err != nil {
		return nil, fmt.Errorf("reading platforms from config: %w", err)
	}
	if len(configs) == 0 {
		return nil, errors.New("no platforms configured; add a platforms list to the config file or use --dev")
	}

	httpClient := whttp.DefaultClient()
	httpClient.RetryMax = viper.GetInt("retries")
	httpClient.HTTPClient.Timeout = viper.GetDuration("timeout")

	reg, _ := platforms.NewRegistry()
	for _, c := range configs {
		desc, err := c.Descriptor()
		if err != nil {
			return nil, err
		}
		if c.Token == "" {
			utils.Log.Warnf("Platform %s has no token configured", desc.ID)
		}

		var client platforms.Client
		switch desc.Kind {
		case entity.KindPrimary:
			client = opencti.NewClient(desc, c.Token, httpClient)
		case entity.KindSimulation:
			client = openaev.NewClient(desc, c.Token, httpClient)
		}
		if err := reg.Add(client); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// newChannel returns the transport to the background side: the remote bridge when
// bridge.url is configured, an in-process dispatcher otherwise.
func newChannel(reg *platforms.Registry) messaging.Channel {
	if url := viper.GetString("bridge.url"); url != "" {
		utils.Log.Debugf("Using bridge at %s", url)
		return messaging.HTTPChannel{
			BaseURL:  url,
			Username: viper.GetString("bridge.username"),
			Password: viper.GetString("bridge.password"),
			Client:   whttp.DefaultClient(),
		}
	}
	return messaging.LocalChannel{Dispatcher: messaging.NewDispatcher(reg, utils.Component("dispatcher"))}
}

func newLookupConfig(reg *platforms.Registry) lookup.Config {
	return lookup.Config{
		Channel:     newChannel(reg),
		Platforms:   reg.Descriptors(),
		Names:       reg,
		Concurrency: viper.GetInt("concurrency"),
		Log:         utils.Component("lookup"),
	}
}

func fetchTimeout() time.Duration {
	return viper.GetDuration("timeout")
}

func writeTable(header string, rows [][]any) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, header)
	for _, r := range rows {
		for _, col := range r {
			fmt.Fprintf(w, "%v\t", col)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}
