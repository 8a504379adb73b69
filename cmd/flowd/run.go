package main

import (
	"context"
	"strconv"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/vireohq/flowd/pkg/cmd"
	"github.com/vireohq/flowd/pkg/execution"
	"github.com/vireohq/flowd/pkg/log"
	"github.com/vireohq/flowd/pkg/web"
)

const defaultPort = 9092

func RunAPICommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Start the workflow API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence (file://... or postgres://...)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (memory)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.DurationFlag{
				Name:    "execution-timeout",
				Usage:   "Maximum wall-clock duration for a single execution (0 disables)",
				Value:   10 * time.Minute,
				Sources: cli.EnvVars("EXECUTION_TIMEOUT"),
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

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing flowd API")

			registry := cmd.NewRegistry(logger)

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.Error("Failed to close event bus", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.Error("Failed to close persistence", "error", err)
				}
			}()

			executor := execution.NewExecutor(registry, persistence.ExecutionRepository(), eventBus, logger)
			manager := execution.NewManager(executor, persistence.ExecutionRepository(), logger, command.Duration("execution-timeout"))

			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := manager.Shutdown(shutdownCtx); err != nil {
					logger.Error("Failed to drain executions", "error", err)
				}
			}()

			app := web.NewApp(persistence, registry, manager)

			return app.Listen(":" + strconv.Itoa(int(command.Int("port"))))
		},
	}
}
