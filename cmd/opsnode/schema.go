package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opsnode/opsnode/pkg/log"
	"github.com/opsnode/opsnode/pkg/registry"
	"github.com/urfave/cli/v3"
)

func NewSchemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print the configuration JSON schema of a node type",
		ArgsUsage: "<node-type>",
		Action: func(ctx context.Context, command *cli.Command) error {
			nodeType := command.Args().First()
			if nodeType == "" {
				return errors.New("a node type argument is required")
			}

			reg := registry.NewRegistry(log.WithModule("cli"))
			reg.RegisterDefaultNodes()

			factory, ok := reg.GetNodeFactory(nodeType)
			if !ok {
				return fmt.Errorf("node type '%s' not registered", nodeType)
			}

			output, err := json.MarshalIndent(factory.Schema(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal schema: %w", err)
			}

			fmt.Println(string(output))

			return nil
		},
	}
}
