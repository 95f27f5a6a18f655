// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package cli

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/dendritetools/dendritecli/internal/admin"
	"github.com/dendritetools/dendritecli/internal/logging"
)

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:      "register",
		Usage:     "register a new user via shared-secret registration",
		ArgsUsage: "USERNAME",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "shared-secret",
				Usage:    "registration shared secret from the server config",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "password for the new user",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "display-name",
				Aliases: []string{"d"},
				Usage:   "display name (defaults to the username)",
			},
			&cli.BoolFlag{
				Name:  "admin",
				Usage: "register the user as a server admin",
			},
		},
		Action: func(ctx *cli.Context) error {
			username, err := oneArg(ctx, "USERNAME")
			if err != nil {
				return err
			}

			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			result, err := client.Register(ctx.Context, admin.RegisterRequest{
				SharedSecret: ctx.String("shared-secret"),
				Username:     username,
				DisplayName:  ctx.String("display-name"),
				Password:     ctx.String("password"),
				Admin:        ctx.Bool("admin"),
			})
			if err != nil {
				return err
			}
			return printJSON(ctx.App.Writer, result)
		},
	}
}

func evacuateRoomCommand() *cli.Command {
	return &cli.Command{
		Name:      "evacuate-room",
		Usage:     "remove all local users from a room",
		ArgsUsage: "ROOM_ID",
		Flags:     []cli.Flag{yesFlag()},
		Action: func(ctx *cli.Context) error {
			roomID, err := oneArg(ctx, "ROOM_ID")
			if err != nil {
				return err
			}
			if err := confirmDestructive(ctx, "evacuating a room"); err != nil {
				return err
			}

			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			result, err := client.EvacuateRoom(ctx.Context, roomID)
			if err != nil {
				return err
			}
			return printJSON(ctx.App.Writer, result)
		},
	}
}

func evacuateUserCommand() *cli.Command {
	return &cli.Command{
		Name:      "evacuate-user",
		Usage:     "remove a local user from all rooms they are joined to",
		ArgsUsage: "USER_ID",
		Flags:     []cli.Flag{yesFlag()},
		Action: func(ctx *cli.Context) error {
			userID, err := oneArg(ctx, "USER_ID")
			if err != nil {
				return err
			}
			if err := confirmDestructive(ctx, "evacuating a user"); err != nil {
				return err
			}

			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			result, err := client.EvacuateUser(ctx.Context, userID)
			if err != nil {
				return err
			}
			return printJSON(ctx.App.Writer, result)
		},
	}
}

func purgeRoomCommand() *cli.Command {
	return &cli.Command{
		Name:      "purge-room",
		Usage:     "permanently delete all stored events of a room (evacuate it first)",
		ArgsUsage: "ROOM_ID",
		Flags:     []cli.Flag{yesFlag()},
		Action: func(ctx *cli.Context) error {
			roomID, err := oneArg(ctx, "ROOM_ID")
			if err != nil {
				return err
			}
			if err := confirmDestructive(ctx, "purging a room"); err != nil {
				return err
			}

			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			result, err := client.PurgeRoom(ctx.Context, roomID)
			if err != nil {
				return err
			}
			return printJSON(ctx.App.Writer, result)
		},
	}
}

func refreshDevicesCommand() *cli.Command {
	return &cli.Command{
		Name:      "refresh-devices",
		Usage:     "re-query a user's device list from their federated server",
		ArgsUsage: "USER_ID",
		Action: func(ctx *cli.Context) error {
			userID, err := oneArg(ctx, "USER_ID")
			if err != nil {
				return err
			}

			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			result, err := client.RefreshDevices(ctx.Context, userID)
			if err != nil {
				return err
			}
			return printJSON(ctx.App.Writer, result)
		},
	}
}

func reindexEventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "reindex-events",
		Usage: "rebuild the server's full-text search index",
		Action: func(ctx *cli.Context) error {
			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			result, err := client.ReindexEvents(ctx.Context)
			if err != nil {
				return err
			}
			fmt.Fprintln(ctx.App.Writer, "Reindexing started; progress appears in the server logs.")
			if len(result) > 0 {
				return printJSON(ctx.App.Writer, result)
			}
			return nil
		},
	}
}

func whoisCommand() *cli.Command {
	return &cli.Command{
		Name:      "whois",
		Usage:     "show a user's known devices and sessions",
		ArgsUsage: "USER_ID",
		Action: func(ctx *cli.Context) error {
			userID, err := oneArg(ctx, "USER_ID")
			if err != nil {
				return err
			}

			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			result, err := client.Whois(ctx.Context, userID)
			if err != nil {
				// Whois is admin-only; fall back to the public profile
				// when the server refuses the caller.
				var adminErr *admin.AdminError
				if errors.As(err, &adminErr) && adminErr.StatusCode == http.StatusUnauthorized {
					logging.Warn().Str("user_id", userID).Msg("whois unauthorized, fetching profile instead")
					result, err = client.Profile(ctx.Context, userID)
				}
				if err != nil {
					return err
				}
			}
			return printJSON(ctx.App.Writer, result)
		},
	}
}

func resetPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "reset-password",
		Usage:     "reset a user's password",
		ArgsUsage: "USER_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "password",
				Usage: "new password (a random one is generated and printed when omitted)",
			},
			&cli.BoolFlag{
				Name:    "logout-devices",
				Aliases: []string{"L"},
				Usage:   "log out all devices and invalidate all login tokens",
			},
		},
		Action: func(ctx *cli.Context) error {
			userID, err := oneArg(ctx, "USER_ID")
			if err != nil {
				return err
			}

			password := ctx.String("password")
			if password == "" {
				password, err = randomPassword()
				if err != nil {
					return err
				}
				fmt.Fprintf(ctx.App.Writer, "Generated password: %s\n", password)
			}

			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			result, err := client.ResetPassword(ctx.Context, userID, password, ctx.Bool("logout-devices"))
			if err != nil {
				return err
			}
			return printJSON(ctx.App.Writer, result)
		},
	}
}

func sendNoticeCommand() *cli.Command {
	return &cli.Command{
		Name:      "send-notice",
		Usage:     "send a server notice to a user",
		ArgsUsage: "USER_ID MESSAGE",
		Action: func(ctx *cli.Context) error {
			if ctx.Args().Len() != 2 {
				return &admin.ValidationError{
					Param: "arguments",
					Msg:   "expected exactly two arguments: USER_ID MESSAGE",
				}
			}
			userID := ctx.Args().Get(0)
			message := ctx.Args().Get(1)

			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			result, err := client.SendServerNotice(ctx.Context, userID, map[string]any{
				"msgtype": "m.text",
				"body":    message,
			})
			if err != nil {
				return err
			}
			return printJSON(ctx.App.Writer, result)
		},
	}
}

func listAccountsCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-accounts",
		Usage: "list every account on the server",
		Flags: []cli.Flag{jsonFlag()},
		Action: func(ctx *cli.Context) error {
			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			accounts, err := client.ListAccounts(ctx.Context)
			if err != nil {
				return err
			}
			if ctx.Bool("json") {
				return printJSON(ctx.App.Writer, accounts)
			}
			return renderAccounts(ctx.App.Writer, accounts)
		},
	}
}

func listRoomsCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-rooms",
		Usage: "list every room on the server, local and remote",
		Flags: []cli.Flag{jsonFlag()},
		Action: func(ctx *cli.Context) error {
			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			rooms, err := client.ListRooms(ctx.Context)
			if err != nil {
				return err
			}
			if ctx.Bool("json") {
				return printJSON(ctx.App.Writer, rooms)
			}
			return renderRooms(ctx.App.Writer, rooms)
		},
	}
}

func deactivateAccountCommand() *cli.Command {
	return &cli.Command{
		Name:      "deactivate-account",
		Usage:     "permanently deactivate an account (evacuate the user first)",
		ArgsUsage: "USER_ID",
		Flags:     []cli.Flag{yesFlag()},
		Action: func(ctx *cli.Context) error {
			userID, err := oneArg(ctx, "USER_ID")
			if err != nil {
				return err
			}
			if err := confirmDestructive(ctx, "deactivating an account"); err != nil {
				return err
			}

			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			result, err := client.DeactivateAccount(ctx.Context, userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.App.Writer, "Deactivated %s.\n", userID)
			if len(result) > 0 {
				return printJSON(ctx.App.Writer, result)
			}
			return nil
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "print the raw JSON instead of a table",
	}
}

// randomPassword generates a 64-character hex password, comfortably inside
// the 72-byte limit.
func randomPassword() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
