// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

// Package main is the dendrite-cli alias: the same application as
// dendritecli, installable under the hyphenated name.
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
