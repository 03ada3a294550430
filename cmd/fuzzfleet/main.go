// Command fuzzfleet runs the job coordination API for a fleet of fuzzing workers.
//
//	fuzzfleet serve                      start the HTTP API
//	fuzzfleet migrate up|down|status     manage the PostgreSQL schema
//	fuzzfleet import --file targets.yaml load targets, inputs and jobs
//
// Configuration comes from the environment, optionally seeded from the file
// given by --env (default .env).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "fuzzfleet",
		Usage: "job coordination for distributed fuzzing workers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "path to an env file",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP API",
				Action: serveAction,
			},
			{
				Name:  "migrate",
				Usage: "manage the database schema",
				Commands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "apply pending migrations",
						Action: migrateUpAction,
					},
					{
						Name:   "down",
						Usage:  "roll back the last migration",
						Action: migrateDownAction,
					},
					{
						Name:   "status",
						Usage:  "print migration status",
						Action: migrateStatusAction,
					},
				},
			},
			{
				Name:  "import",
				Usage: "create targets, inputs and queued jobs from a YAML file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "path to the YAML file",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "parse and check the file without writing anything",
					},
				},
				Action: importAction,
			},
		},
	}
}
