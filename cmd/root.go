package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pennadev/penna/config"
)

var (
	cfgPath  string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "penna",
	Short:         "penna generates and serves a markdown blog",
	Long:          "penna renders a tree of front-mattered markdown articles into a static blog,\nchecks its content integrity, and serves live previews.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger = newLogger(cfg.LogLevel)
		return nil
	},
}

// Execute runs the CLI and reports failures on stderr.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.toml", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override configured log level (debug, info, warn, error)")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
