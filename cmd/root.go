package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/internal/utils"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/whttp"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `        _
  __  _| |_ _ __ ___  ___  ___ ___  _ __   ___
  \ \/ / __| '_ ` + "`" + ` _ \/ __|/ __/ _ \| '_ \ / _ \
   >  <| |_| | | | | \__ \ (_| (_) | |_) |  __/
  /_/\_\\__|_| |_| |_|___/\___\___/| .__/ \___|
                                   |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xtmscope",
	Short: "Look up threat intelligence entities across OpenCTI and OpenAEV platforms.",
	Long: LOGO + `xtmscope searches every configured OpenCTI and OpenAEV instance at once,
merges what they know about an entity and lets you page through each platform's view of it.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelString, _ := cmd.Flags().GetString("loglevel")
		if err := utils.SetLogLevel(levelString); err != nil {
			return err
		}
		if proxy, _ := cmd.Flags().GetString("proxy"); proxy != "" {
			return whttp.SetupProxy(proxy)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.xtmscope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().Bool("dev", false, "Use the built-in demo platforms instead of the configured ones")
	rootCmd.PersistentFlags().Duration("dev-latency", 0, "Artificial latency of the demo platforms")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".xtmscope")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("XTMSCOPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("timeout", "30s")
	viper.SetDefault("concurrency", 5)
	viper.SetDefault("retries", 2)
	viper.SetDefault("bridge.url", "")
	viper.SetDefault("bridge.username", "")
	viper.SetDefault("bridge.password", "")
	viper.SetDefault("db.path", "")

	// A missing config file is fine: --dev and the bridge work without one.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}
	}
}
