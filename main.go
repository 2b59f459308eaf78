package main

import (
	"os"

	"github.com/pennadev/penna/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
