package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/internal/server"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/internal/utils"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the configured platforms to remote side panels over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		withHistory, _ := cmd.Flags().GetBool("history")

		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}

		var db *storage.DB
		if withHistory {
			if db, err = openHistory(cmd, true); err != nil {
				return err
			}
			defer db.Close()
		}

		user := viper.GetString("bridge.username")
		pass := viper.GetString("bridge.password")
		if user == "" && pass == "" {
			utils.Log.Warn("Bridge credentials are not set, the bridge is unauthenticated")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.New(reg, db, user, pass).Start(ctx, listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "127.0.0.1:8484", "HTTP listen address")
	serveCmd.Flags().Bool("history", false, "Serve the lookup history under /api/history and /api/stats")
	serveCmd.Flags().String("dbpath", "", "Path to SQLite DB file")
}
