// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"github.com/dendritetools/dendritecli/internal/admin"
)

// printJSON writes v as indented JSON to w.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// renderAccounts writes the account listing as an aligned table.
func renderAccounts(w io.Writer, accounts []admin.Account) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDISPLAY NAME\tADMIN\tDEACTIVATED\tTYPE\tCREATED")
	for _, account := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%s\t%s\n",
			account.Name,
			account.DisplayName,
			account.Admin,
			account.Deactivated,
			account.UserType,
			formatTimestamp(account.CreationTS),
		)
	}
	return tw.Flush()
}

// renderRooms writes the room listing as an aligned table.
func renderRooms(w io.Writer, rooms []admin.Room) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROOM ID\tNAME\tALIAS\tVERSION\tJOINED")
	for _, room := range rooms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			room.RoomID,
			room.Name,
			room.CanonicalAlias,
			room.Version,
			room.JoinedMembers,
		)
	}
	return tw.Flush()
}

// formatTimestamp renders a millisecond creation timestamp, or "-" when the
// server did not report one.
func formatTimestamp(millis int64) string {
	if millis <= 0 {
		return "-"
	}
	return time.UnixMilli(millis).UTC().Format("2006-01-02 15:04:05 MST")
}
