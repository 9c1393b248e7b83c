package main

import (
	"context"
	"fmt"

	"github.com/opsnode/opsnode/pkg/log"
	"github.com/opsnode/opsnode/pkg/registry"
	"github.com/urfave/cli/v3"
)

func NewListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List available node types",
		Action: func(ctx context.Context, command *cli.Command) error {
			reg := registry.NewRegistry(log.WithModule("cli"))
			reg.RegisterDefaultNodes()

			fmt.Println("Available Nodes:")
			fmt.Println("================")

			for _, node := range reg.AvailableNodes() {
				fmt.Printf("\n%s (%s)\n", node.Name, node.Type)
				fmt.Printf("  %s\n", node.Description)
			}

			return nil
		},
	}
}
