package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pennadev/penna/content"
)

const newPostTemplate = `---
title: "%s"
date: %s
draft: true
categories: []
---
`

var newCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Scaffold a new post bundle under the content directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := args[0]
		slug := content.Slugify(title)
		if slug == "" {
			return fmt.Errorf("cannot derive a slug from %q", title)
		}

		dir := filepath.Join(cfg.ContentDir, "posts", slug)
		target := filepath.Join(dir, "index.md")
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("%s already exists", target)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		body := fmt.Sprintf(newPostTemplate, title, time.Now().Format(time.RFC3339))
		if err := os.WriteFile(target, []byte(body), 0o644); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), target)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
}
