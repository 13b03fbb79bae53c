// Package main provides the entry point for respkv-cli.
package main

import (
	"os"

	"github.com/yndnr/respkv/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
