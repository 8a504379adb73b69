// Package main provides the flowd workflow engine command-line interface.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/vireohq/flowd/pkg/log"
)

func main() {
	logger := log.WithModule("flowd")

	command := &cli.Command{
		Name:                  "flowd",
		Usage:                 "Validate, execute and serve node-based workflows",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			RunAPICommand(),
			ValidateCommand(),
			ExecuteCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
