package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	appName    = "penna"
	appVersion = "0.4.2"
)

// Set at link stage via `-ldflags "-X github.com/pennadev/penna/cmd.GitCommit=$(git rev-parse --short HEAD)"`
var GitCommit string

// Server header string
var serverSignature = fmt.Sprintf("%s (%s)", appName+"/"+appVersion, func() string {
	if GitCommit != "" {
		return GitCommit
	}
	return "unknown"
}())

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(serverSignature)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
