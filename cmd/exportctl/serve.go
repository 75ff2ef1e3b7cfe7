package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabexport/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP export API",
	Long: `Start the HTTP export API on SERVER_HOST:SERVER_PORT.

Source exports are enabled when DATABASE_URL or SQLITE_PATH is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return web.Run(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
