package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pennadev/penna/server"
	"github.com/pennadev/penna/site"
	"github.com/pennadev/penna/templatex"
)

var (
	serveListen  string
	serveNoWatch bool
	serveDrafts  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site with rebuild-on-change",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveListen != "" {
			cfg.Listen = serveListen
		}
		if serveDrafts {
			cfg.BuildDrafts = true
		}

		templates, err := templatex.Load(cfg.LayoutDir())
		if err != nil {
			return err
		}
		svc := site.NewService(cfg, templates, logger)

		// Layout edits need a template reload, so the rebuild hook
		// replaces the whole service before regenerating.
		var mu sync.Mutex
		rebuild := func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			fresh, err := templatex.Load(cfg.LayoutDir())
			if err != nil {
				return err
			}
			svc.SetTemplates(fresh)
			return svc.BuildStatic(ctx)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(cfg, svc, logger, serverSignature, rebuild, !serveNoWatch)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "disable rebuild-on-change")
	serveCmd.Flags().BoolVarP(&serveDrafts, "drafts", "D", false, "include draft posts")
	rootCmd.AddCommand(serveCmd)
}
