package main

import (
	"context"
	"os"

	"github.com/opsnode/opsnode/pkg/log"
	"github.com/opsnode/opsnode/pkg/otelhelper"
	"github.com/opsnode/opsnode/pkg/registry"
	"github.com/opsnode/opsnode/pkg/runner"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	cmd := &cli.Command{
		Name:                  "opsnode-api",
		Usage:                 "Expose automation nodes over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
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

			logger.InfoContext(ctx, "Initializing opsnode API")

			reg := registry.NewRegistry(logger)
			reg.RegisterDefaultNodes()

			run := runner.NewRunner(logger)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "opsnode-api")
				if err != nil {
					logger.ErrorContext(ctx, "Failed to initialize tracer", "error", err)

					return err
				}

				run = run.WithTracer(tracer)
			}

			api := NewAPI(logger, reg, run)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
