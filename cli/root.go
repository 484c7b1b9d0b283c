package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pairs-server/config"
	"pairs-server/loghandler"
)

var (
	cfg       *config.Config
	configDir string
	logLevel  string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pairs",
		Short: "Memory pairs game against a remembering opponent",
		Long: `pairs runs a 16-card memory game in which a human plays against an
opponent that remembers the cards it has seen.

Use "serve" to host games over WebSocket or "play" to play in the terminal.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loadEnv()
			cfg = config.LoadFrom(configDir)
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, loghandler.ParseLevel(cfg.LogLevel))))
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory holding config.json or config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (env: LOG_LEVEL)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPlayCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadEnv reads .env from the working directory or server/.env, if present.
func loadEnv() {
	if err := godotenv.Load(); err != nil {
		if err2 := godotenv.Load("server/.env"); err2 != nil {
			slog.Debug("no .env file found; using environment variables", "tag", "cli")
		}
	}
}
