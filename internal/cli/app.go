// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

// Package cli is the command layer: one subcommand per admin operation,
// flags mapping to operation parameters, results printed as JSON (or a
// table for the listings) on stdout.
package cli

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dendritetools/dendritecli/internal/admin"
	"github.com/dendritetools/dendritecli/internal/config"
	"github.com/dendritetools/dendritecli/internal/logging"
)

// NewApp builds the dendritecli application. The dendrite-cli alias is the
// same binary installed under a second name.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "dendritecli",
		Usage:   "manage a Dendrite server through its admin API",
		Version: admin.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file to use instead of the well-known location",
			},
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Dendrite server base URL",
			},
			&cli.StringFlag{
				Name:    "access-token",
				Aliases: []string{"t"},
				Usage:   "admin access token",
			},
			&cli.StringFlag{
				Name:    "database-uri",
				Aliases: []string{"D"},
				Usage:   "database URI forwarded to commands that accept one",
			},
			&cli.Float64Flag{
				Name:  "timeout",
				Usage: "request timeout in seconds (0 = per-phase defaults)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "log level (trace, debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: "console",
				Usage: "log format (console, json)",
			},
		},
		Before: func(ctx *cli.Context) error {
			logging.Init(logging.Config{
				Level:  ctx.String("log-level"),
				Format: ctx.String("log-format"),
			})
			return nil
		},
		Commands: []*cli.Command{
			registerCommand(),
			evacuateRoomCommand(),
			evacuateUserCommand(),
			purgeRoomCommand(),
			refreshDevicesCommand(),
			reindexEventsCommand(),
			whoisCommand(),
			resetPasswordCommand(),
			sendNoticeCommand(),
			listAccountsCommand(),
			listRoomsCommand(),
			deactivateAccountCommand(),
		},
	}
}

// ExitCode maps the error taxonomy to process exit codes: 0 success,
// 2 configuration or validation problems (nothing was sent), 1 everything
// else (admin or transport failures).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return 2
	}
	var valErr *admin.ValidationError
	if errors.As(err, &valErr) {
		return 2
	}
	return 1
}

// newClient loads settings with the global flag overrides applied and
// constructs the admin client.
func newClient(ctx *cli.Context) (*admin.Client, error) {
	settings, err := config.Load(config.Overrides{
		ConfigFile:  ctx.String("config"),
		Server:      ctx.String("server"),
		AccessToken: ctx.String("access-token"),
		DatabaseURI: ctx.String("database-uri"),
		Timeout:     ctx.Float64("timeout"),
	})
	if err != nil {
		return nil, err
	}
	return admin.New(settings)
}

// oneArg returns the single required positional argument. A wrong argument
// count is a validation failure: nothing was sent, exit code 2.
func oneArg(ctx *cli.Context, name string) (string, error) {
	if ctx.Args().Len() != 1 {
		return "", &admin.ValidationError{
			Param: "arguments",
			Msg:   "expected exactly one argument: " + name,
		}
	}
	return ctx.Args().Get(0), nil
}

// confirmDestructive enforces --yes on operations that cannot be undone.
func confirmDestructive(ctx *cli.Context, what string) error {
	if !ctx.Bool("yes") {
		return &admin.ValidationError{
			Param: "confirmation",
			Msg:   fmt.Sprintf("%s is irreversible; re-run with --yes to proceed", what),
		}
	}
	return nil
}

// yesFlag is the confirmation flag shared by the destructive commands.
func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "yes",
		Usage: "confirm this irreversible operation",
	}
}
