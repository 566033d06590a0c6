// Package main implements the sclass CLI.
// It renders Mermaid class diagrams from Solidity sources.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/l3aro/go-sclass/cmd/sclass/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	commands.RootCmd.Version = version
	if buildTime != "" {
		commands.RootCmd.Version = version + " (built " + buildTime + ")"
	}
	commands.RootCmd.SetVersionTemplate(`sclass version {{.Version}}
`)

	if err := commands.RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
