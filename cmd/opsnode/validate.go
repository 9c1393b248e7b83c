package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/opsnode/opsnode/pkg/log"
	"github.com/opsnode/opsnode/pkg/registry"
	"github.com/urfave/cli/v3"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a node configuration without executing it",
		ArgsUsage: "<node-type>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Node configuration as inline JSON or @file",
				Value:   "{}",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			nodeType := command.Args().First()
			if nodeType == "" {
				return errors.New("a node type argument is required")
			}

			var config map[string]any
			if err := decodeJSONFlag(command.String("config"), &config); err != nil {
				return fmt.Errorf("--config: %w", err)
			}

			reg := registry.NewRegistry(log.WithModule("cli"))
			reg.RegisterDefaultNodes()

			// CreateNode runs both the schema check and the node's own
			// constructor validation.
			if _, err := reg.CreateNode(ctx, nodeType, "validate", config); err != nil {
				fmt.Printf("❌ INVALID: %v\n", err)

				return fmt.Errorf("invalid configuration for '%s'", nodeType)
			}

			fmt.Println("✅ VALID")

			return nil
		},
	}
}
