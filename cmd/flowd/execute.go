package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/vireohq/flowd/pkg/cmd"
	"github.com/vireohq/flowd/pkg/execution"
	"github.com/vireohq/flowd/pkg/log"
)

func ExecuteCommand() *cli.Command {
	return &cli.Command{
		Name:      "execute",
		Aliases:   []string{"x"},
		Usage:     "Execute a workflow definition file and print the execution record",
		ArgsUsage: "<definition.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "input",
				Usage: "JSON object with caller-supplied input variables",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Maximum wall-clock duration for the execution (0 disables)",
				Value: 10 * time.Minute,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("execute")

			definition, err := loadDefinition(command.Args().First())
			if err != nil {
				return err
			}

			var inputData map[string]any
			if input := command.String("input"); input != "" {
				if err := json.Unmarshal([]byte(input), &inputData); err != nil {
					return fmt.Errorf("failed to parse input data: %w", err)
				}
			}

			if timeout := command.Duration("timeout"); timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)

				defer cancel()
			}

			registry := cmd.NewRegistry(logger)
			executor := execution.NewExecutor(registry, nil, nil, logger)

			record, runErr := executor.Run(ctx, definition, inputData)

			output, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode execution record: %w", err)
			}

			fmt.Fprintln(command.Writer, string(output))

			return runErr
		},
	}
}
