// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package config

import "fmt"

// Error is a configuration error: a malformed or unreadable config file, an
// invalid value for a known key, a reserved header override, or a missing
// required setting. It is always fatal and is raised before any network
// activity.
type Error struct {
	// Key is the offending configuration key, when one can be named.
	Key string

	// Msg describes the problem.
	Msg string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Key != "" && e.Err != nil:
		return fmt.Sprintf("configuration: %s: %s: %v", e.Key, e.Msg, e.Err)
	case e.Key != "":
		return fmt.Sprintf("configuration: %s: %s", e.Key, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("configuration: %s: %v", e.Msg, e.Err)
	default:
		return "configuration: " + e.Msg
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
