package main

import (
	"context"
	"os"

	"github.com/opsnode/opsnode/pkg/log"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "opsnode",
		Usage:                 "Run automation nodes against local and remote systems",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewListCommand(),
			NewSchemaCommand(),
			NewValidateCommand(),
			NewRunCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
