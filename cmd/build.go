package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pennadev/penna/site"
	"github.com/pennadev/penna/templatex"
)

var (
	buildDrafts bool
	buildFuture bool
	buildMinify bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render the site into the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if buildDrafts {
			cfg.BuildDrafts = true
		}
		if buildFuture {
			cfg.BuildFuture = true
		}
		if buildMinify {
			cfg.Minify = true
		}

		templates, err := templatex.Load(cfg.LayoutDir())
		if err != nil {
			return err
		}
		svc := site.NewService(cfg, templates, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := svc.BuildStatic(ctx); err != nil {
			return err
		}
		logger.Info("build completed", "output", cfg.OutputDir)
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVarP(&buildDrafts, "drafts", "D", false, "include draft posts")
	buildCmd.Flags().BoolVarP(&buildFuture, "future", "F", false, "include future-dated posts")
	buildCmd.Flags().BoolVar(&buildMinify, "minify", false, "minify generated output")
	rootCmd.AddCommand(buildCmd)
}
