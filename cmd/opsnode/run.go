package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/opsnode/opsnode/pkg/log"
	"github.com/opsnode/opsnode/pkg/models"
	"github.com/opsnode/opsnode/pkg/otelhelper"
	"github.com/opsnode/opsnode/pkg/registry"
	"github.com/opsnode/opsnode/pkg/runner"
	"github.com/urfave/cli/v3"
)

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Aliases:   []string{"r"},
		Usage:     "Execute a node type over a batch of items",
		ArgsUsage: "<node-type>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Node instance ID (auto-generated if not provided)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Node configuration as inline JSON or @file",
				Value:   "{}",
			},
			&cli.StringFlag{
				Name:    "items",
				Aliases: []string{"i"},
				Usage:   "Input items as a JSON array or @file",
			},
			&cli.StringFlag{
				Name:  "variables",
				Usage: "Invocation variables as inline JSON or @file",
			},
			&cli.BoolFlag{
				Name:  "continue-on-fail",
				Usage: "Convert item failures into error results instead of aborting the batch",
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export execution spans over OTLP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("cli")

			nodeType := command.Args().First()
			if nodeType == "" {
				return errors.New("a node type argument is required")
			}

			var config map[string]any
			if err := decodeJSONFlag(command.String("config"), &config); err != nil {
				return fmt.Errorf("--config: %w", err)
			}

			items, err := decodeItems(command.String("items"))
			if err != nil {
				return fmt.Errorf("--items: %w", err)
			}

			var variables map[string]any
			if err := decodeJSONFlag(command.String("variables"), &variables); err != nil {
				return fmt.Errorf("--variables: %w", err)
			}

			reg := registry.NewRegistry(logger)
			reg.RegisterDefaultNodes()

			id := command.String("id")
			if id == "" {
				id = nodeType + "-" + uuid.New().String()
			}

			node, err := reg.CreateNode(ctx, nodeType, id, config)
			if err != nil {
				return err
			}

			run := runner.NewRunner(logger)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "opsnode")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				run = run.WithTracer(tracer)
			}

			ectx := models.ExecutionContext{
				NodeID:         id,
				Variables:      variables,
				ContinueOnFail: command.Bool("continue-on-fail"),
			}

			results, err := run.Execute(ctx, node, ectx, items)
			if err != nil {
				return err
			}

			output, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal results: %w", err)
			}

			fmt.Println(string(output))

			return nil
		},
	}
}
