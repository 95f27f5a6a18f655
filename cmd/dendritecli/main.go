// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

// Package main is the dendritecli entry point.
//
// dendritecli manages a Dendrite server through its administrative HTTP
// API: user registration, room and user evacuation, room purging, device
// refresh, search reindexing, whois lookups, account listing and
// deactivation.
//
// Configuration is layered (highest priority wins): CLI flags, then
// DENDRITECLI_* environment variables, then the TOML config file
// (~/.config/dendritecli.toml, or ~/.dendritecli.toml when ~/.config does
// not exist), then built-in defaults. An access token is required; nothing
// is sent without one.
//
// Exit codes: 0 on success; 2 when configuration or local input validation
// failed (no request was sent); 1 when the server rejected the request or
// the request could not be completed.
//
// Example:
//
//	export DENDRITECLI_ACCESS_TOKEN=syt_...
//	dendritecli whois @alice:example.org
//	dendritecli list-rooms
//	dendritecli evacuate-room --yes '!abc123:example.org'
package main

import (
	"fmt"
	"os"

	"github.com/dendritetools/dendritecli/internal/cli"
)

func main() {
	app := cli.NewApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
