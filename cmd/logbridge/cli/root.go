package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tkingovr/logbridge/api"
)

var (
	cfgFile string
	verbose bool
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "logbridge",
	Short: "logbridge: rule-driven HTTP exchange logging",
	Long: `logbridge selects a log level for completed HTTP exchanges from an
ordered list of filters (route, method, status) and renders matching
exchanges into masked, structured log records.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: api.ReplaceLevelAttr,
		}))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "filter config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
