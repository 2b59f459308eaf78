package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pennadev/penna/site"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Lint content for broken references and metadata problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Linting never renders pages; no template engine needed.
		svc := site.NewService(cfg, nil, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		issues, err := svc.Check(ctx)
		if err != nil {
			return err
		}
		for _, issue := range issues {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s: %s\n", issue.Severity, issue.Source, issue.Message)
		}
		if site.HasErrors(issues) {
			return errors.New("check found errors")
		}
		logger.Info("check completed", "issues", len(issues))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
