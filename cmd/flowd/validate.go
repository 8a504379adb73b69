package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/vireohq/flowd/pkg/cmd"
	"github.com/vireohq/flowd/pkg/log"
	"github.com/vireohq/flowd/pkg/models"
	"github.com/vireohq/flowd/pkg/validation"
)

var errValidationFailed = errors.New("workflow validation failed")

func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a workflow definition file",
		ArgsUsage: "<definition.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			definition, err := loadDefinition(command.Args().First())
			if err != nil {
				return err
			}

			registry := cmd.NewRegistry(log.WithModule("validate"))
			result := validation.ValidateDefinition(definition, registry.Known)

			output, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode validation result: %w", err)
			}

			fmt.Fprintln(command.Writer, string(output))

			if !result.Valid {
				return errValidationFailed
			}

			return nil
		},
	}
}

func loadDefinition(path string) (*models.WorkflowDefinition, error) {
	if path == "" {
		return nil, errors.New("a workflow definition file is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}

	var definition models.WorkflowDefinition
	if err := json.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("failed to parse definition file: %w", err)
	}

	return &definition, nil
}
