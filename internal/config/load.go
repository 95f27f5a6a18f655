// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/dendritetools/dendritecli/internal/logging"
)

// ConfigFileName is the config file name inside the home config directory.
const ConfigFileName = "dendritecli.toml"

// dotfileName is the fallback used when ~/.config does not exist.
const dotfileName = ".dendritecli.toml"

// envPrefix namespaces the environment variables read by Load.
const envPrefix = "DENDRITECLI_"

// Overrides are explicit values applied on top of every other source.
// The zero value of each field means "not set".
type Overrides struct {
	// ConfigFile replaces the discovered config file path. Unlike a
	// discovered file, an explicit file must exist and load.
	ConfigFile string

	AccessToken string
	Server      string
	DatabaseURI string

	// Timeout in seconds. Zero keeps the configured value.
	Timeout float64
}

// Load produces a Settings value from the layered sources, in increasing
// precedence: defaults, TOML config file, environment variables, explicit
// overrides. The returned Settings is validated and ready for use.
func Load(ov Overrides) (*Settings, error) {
	k := koanf.New(".")

	// Layer 1: built-in defaults.
	if err := k.Load(structs.Provider(defaultSettings(), "koanf"), nil); err != nil {
		return nil, &Error{Msg: "loading defaults", Err: err}
	}

	// Layer 2: config file. A discovered file that is missing is fine; an
	// explicitly requested one must load.
	path := ov.ConfigFile
	if path == "" {
		path = FindConfigFile()
	}
	if path != "" {
		logging.Debug().Str("path", path).Msg("reading config file")
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, &Error{Msg: "reading config file " + path, Err: err}
		}
	}

	// Layer 3: environment variables.
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, &Error{Msg: "reading environment variables", Err: err}
	}

	settings := &Settings{}
	if err := k.Unmarshal("", settings); err != nil {
		return nil, &Error{Msg: "invalid configuration value", Err: err}
	}

	// Layer 4: explicit overrides.
	if ov.AccessToken != "" {
		settings.AccessToken = ov.AccessToken
	}
	if ov.Server != "" {
		settings.Server = ov.Server
	}
	if ov.DatabaseURI != "" {
		settings.DatabaseURI = ov.DatabaseURI
	}
	if ov.Timeout > 0 {
		settings.Timeout = ov.Timeout
	}

	settings.Server = strings.TrimRight(settings.Server, "/")

	if err := settings.validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// FindConfigFile returns the well-known config file path, or "" when the
// file does not exist. The home config directory is preferred; the dotfile
// is used only when ~/.config itself is absent.
func FindConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	candidate := filepath.Join(home, dotfileName)
	if info, err := os.Stat(filepath.Join(home, ".config")); err == nil && info.IsDir() {
		candidate = filepath.Join(home, ".config", ConfigFileName)
	}

	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// envMappings maps recognized environment variables to config paths.
var envMappings = map[string]string{
	"dendritecli_access_token":                   "access_token",
	"dendritecli_server":                         "server",
	"dendritecli_database_uri":                   "database_uri",
	"dendritecli_timeout":                        "timeout",
	"dendritecli_override_password_length_check": "override-password-length-check",
	"dendritecli_proxy_http":                     "proxies.http",
	"dendritecli_proxy_https":                    "proxies.https",
	"dendritecli_proxy_socks5":                   "proxies.socks5",
}

// envTransform maps an environment variable name to its koanf path.
// Unmapped variables return "" and are skipped, so unrelated environment
// state never leaks into the configuration.
func envTransform(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
