// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package config

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator instance. validator caches
// struct metadata, so a single instance is reused.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// fieldKeys maps Settings struct fields to the config keys users know.
var fieldKeys = map[string]string{
	"AccessToken": "access_token",
	"Server":      "server",
	"Timeout":     "timeout",
}

// validateStruct runs tag-based validation over Settings and converts the
// first failure into a *Error naming the config key.
func validateStruct(s *Settings) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		key := fieldKeys[first.StructField()]
		if key == "" {
			key = first.StructField()
		}
		return &Error{Key: key, Msg: messageForTag(first)}
	}
	return &Error{Msg: "invalid configuration", Err: err}
}

// messageForTag renders a human-readable message for a validation failure.
func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required (set it in the config file, via DENDRITECLI_* environment, or with a flag)"
	case "http_url":
		return "must be an http(s) URL"
	case "gte":
		return "must not be negative"
	default:
		return "invalid value"
	}
}
