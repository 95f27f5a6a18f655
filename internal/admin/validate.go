// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package admin

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dendritetools/dendritecli/internal/logging"
)

// maxPasswordBytes is the longest password the server reliably accepts.
// Dendrite hands passwords to bcrypt, which silently truncates beyond 72
// bytes, so longer passwords are rejected here before the request is built.
// Settings.OverridePasswordLengthCheck disables the check for servers known
// not to be affected.
const maxPasswordBytes = 72

// maxUserIDLength is the user identifier length cap from the Matrix spec.
const maxUserIDLength = 255

// userIDPattern matches fully-qualified user IDs (@localpart:domain).
var userIDPattern = regexp.MustCompile(`(?i)^@[a-z0-9\-_.=/]+:.+$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateUserID checks that userID is a fully-qualified @localpart:domain
// identifier of legal length.
func validateUserID(userID string) error {
	if len(userID) > maxUserIDLength || !userIDPattern.MatchString(userID) {
		return &ValidationError{
			Param: "user_id",
			Msg:   "must be a fully-qualified identifier in the form @localpart:domain",
		}
	}
	return nil
}

// validateRoomID checks that roomID is plausibly a room ID or alias.
func validateRoomID(roomID string) error {
	if roomID == "" || (roomID[0] != '!' && roomID[0] != '#') {
		return &ValidationError{
			Param: "room_id",
			Msg:   "must start with ! (room ID) or # (alias)",
		}
	}
	return nil
}

// userDomain returns the domain part of a fully-qualified user ID, or ""
// when the ID has no domain separator.
func userDomain(userID string) string {
	_, domain, ok := strings.Cut(userID, ":")
	if !ok {
		return ""
	}
	return domain
}

// checkPasswordLength enforces the password byte-length policy unless the
// override is configured.
func (c *Client) checkPasswordLength(password string) error {
	if c.settings.OverridePasswordLengthCheck {
		logging.Debug().Msg("password length check is disabled")
		return nil
	}
	if len(password) > maxPasswordBytes {
		return &ValidationError{
			Param: "password",
			Msg:   "must not exceed 72 bytes; the server truncates longer passwords (set override-password-length-check to send it anyway)",
		}
	}
	return nil
}

// validateStruct runs tag-based validation over a request struct and
// converts the first failure into a *ValidationError.
func validateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return &ValidationError{
			Param: strings.ToLower(first.StructField()),
			Msg:   "failed " + first.Tag() + " constraint",
		}
	}
	return &ValidationError{Param: "request", Msg: err.Error()}
}
