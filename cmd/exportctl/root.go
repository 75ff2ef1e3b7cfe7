package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabexport/internal/config"
	"github.com/JonMunkholm/tabexport/internal/core"
	_ "github.com/JonMunkholm/tabexport/internal/core/presets" // Register all presets
	"github.com/JonMunkholm/tabexport/internal/logging"
)

var (
	// Global flags
	envFile string
	verbose bool

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "exportctl",
	Short: "Export tabular records as CSV, Excel, JSON or printable HTML",
	Long: `exportctl reads records from JSON or CSV files, an HTTP endpoint or the
configured database and exports them through the same pipeline as the HTTP
API: column exclusion and renaming, date formatting, preset projection,
filtering and sorting.

Settings come from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadFile(envFile)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, cfg.Logging.Format))
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints the user message for known failures and the raw error
// otherwise. With -v the technical error follows the user message.
func reportError(w io.Writer, err error) {
	if !core.IsUserFacing(err) {
		fmt.Fprintln(w, "Error:", err)
		return
	}
	fmt.Fprintln(w, "Error:", core.FormatUserError(err))
	if verbose {
		fmt.Fprintln(w, "  cause:", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
