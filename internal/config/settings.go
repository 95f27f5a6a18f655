// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

// Package config loads the layered dendritecli configuration and produces an
// immutable Settings value.
//
// Sources, in increasing precedence:
//
//  1. Built-in defaults
//  2. TOML config file (~/.config/dendritecli.toml, or ~/.dendritecli.toml
//     when ~/.config does not exist)
//  3. Environment variables (DENDRITECLI_*)
//  4. Explicit overrides (CLI flags)
//
// A missing config file is not an error. A malformed file, an invalid value,
// or an attempt to set a reserved header is a *Error and aborts before any
// network activity.
package config

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Default per-phase timeouts, applied when no timeout is configured.
// The read timeout is generous because evacuations and purges can take the
// server a long time to answer.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 180 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
)

// DefaultServer is the server base URL used when none is configured.
const DefaultServer = "http://localhost:8008"

// ReservedHeaders are header names the client always sets itself. They can
// never be overridden through the headers table.
var ReservedHeaders = []string{"Accept", "Content-Type", "User-Agent"}

// proxySchemes are the schemes accepted as keys of the proxies table.
var proxySchemes = map[string]bool{"http": true, "https": true, "socks5": true}

// Settings is the immutable configuration for one client instance.
// Construct it with Load; do not mutate it afterwards.
type Settings struct {
	// AccessToken is the admin bearer token. Required.
	AccessToken string `koanf:"access_token" validate:"required"`

	// Server is the base URL of the Dendrite server.
	Server string `koanf:"server" validate:"required,http_url"`

	// DatabaseURI is an opaque value forwarded to commands that accept it.
	// The client never connects to or interprets it.
	DatabaseURI string `koanf:"database_uri"`

	// OverridePasswordLengthCheck disables the local 72-byte password limit.
	// The limit works around servers that mishandle longer bcrypt inputs;
	// disable it only when the target server is known to accept them.
	OverridePasswordLengthCheck bool `koanf:"override-password-length-check"`

	// Timeout, in seconds, applies to every request phase when set.
	// Zero means the per-phase defaults.
	Timeout float64 `koanf:"timeout" validate:"gte=0"`

	// Proxies maps a scheme (http, https, socks5) to a proxy URL. A socks5
	// entry is the catch-all for schemes without their own entry. Schemes the
	// table does not cover, or an absent table, keep the standard proxy
	// environment variables.
	Proxies map[string]string `koanf:"proxies"`

	// Headers are extra headers attached to every request. Reserved header
	// names are rejected at load time.
	Headers map[string]string `koanf:"headers"`
}

// defaultSettings returns the built-in defaults, the lowest-precedence layer.
func defaultSettings() *Settings {
	return &Settings{
		AccessToken:                 "",
		Server:                      DefaultServer,
		DatabaseURI:                 "",
		OverridePasswordLengthCheck: false,
		Timeout:                     0,
		Proxies:                     map[string]string{},
		Headers:                     map[string]string{},
	}
}

// Timeouts holds the per-phase request timeouts derived from Settings.
type Timeouts struct {
	Connect time.Duration
	Read    time.Duration
	Write   time.Duration
}

// Timeouts returns the per-phase timeouts: the configured flat timeout for
// every phase when set, the tuned defaults otherwise.
func (s *Settings) Timeouts() Timeouts {
	if s.Timeout > 0 {
		d := time.Duration(s.Timeout * float64(time.Second))
		return Timeouts{Connect: d, Read: d, Write: d}
	}
	return Timeouts{
		Connect: DefaultConnectTimeout,
		Read:    DefaultReadTimeout,
		Write:   DefaultWriteTimeout,
	}
}

// validate checks the loaded settings. Violations are *Error values naming
// the offending key where one exists.
func (s *Settings) validate() error {
	if err := validateStruct(s); err != nil {
		return err
	}
	if err := s.validateHeaders(); err != nil {
		return err
	}
	return s.validateProxies()
}

// validateHeaders rejects reserved header names, case-insensitively.
func (s *Settings) validateHeaders() error {
	for name := range s.Headers {
		canonical := http.CanonicalHeaderKey(name)
		for _, reserved := range ReservedHeaders {
			if canonical == reserved {
				return &Error{
					Key: "headers." + name,
					Msg: fmt.Sprintf("header %q is reserved and cannot be overridden", reserved),
				}
			}
		}
	}
	return nil
}

// validateProxies checks proxy table keys and URL values.
func (s *Settings) validateProxies() error {
	for scheme, proxyURL := range s.Proxies {
		if !proxySchemes[scheme] {
			return &Error{
				Key: "proxies." + scheme,
				Msg: "unsupported proxy scheme (expected http, https or socks5)",
			}
		}
		u, err := url.Parse(proxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &Error{
				Key: "proxies." + scheme,
				Msg: fmt.Sprintf("invalid proxy URL %q", proxyURL),
			}
		}
	}
	return nil
}
