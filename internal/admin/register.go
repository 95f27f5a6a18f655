// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package admin

import (
	"context"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // the shared-secret registration API mandates HMAC-SHA1
	"encoding/hex"
	"net/http"

	"github.com/dendritetools/dendritecli/internal/logging"
)

// registerPath is the shared-secret registration endpoint. Dendrite serves
// it under the Synapse-compatible admin prefix.
const registerPath = "/_synapse/admin/v1/register"

// RegisterRequest describes a shared-secret user registration.
type RegisterRequest struct {
	// Nonce is the single-use value from RegistrationNonce. When empty,
	// Register fetches one itself.
	Nonce string

	// SharedSecret is the registration_shared_secret from the server config.
	SharedSecret string `validate:"required"`

	Username string `validate:"required"`

	// DisplayName defaults to Username when empty.
	DisplayName string

	// Password is subject to the byte-length policy.
	Password string `validate:"required"`

	// Admin registers the account with server admin rights.
	Admin bool
}

// RegisterResult is the server's response to a successful registration.
type RegisterResult struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	HomeServer  string `json:"home_server"`
	DeviceID    string `json:"device_id"`
}

// RegistrationNonce fetches a fresh nonce for shared-secret registration.
func (c *Client) RegistrationNonce(ctx context.Context) (string, error) {
	logging.Debug().Msg("fetching registration nonce")

	var out struct {
		Nonce string `json:"nonce"`
	}
	if err := c.do(ctx, http.MethodGet, registerPath, nil, nil, &out); err != nil {
		return "", err
	}
	if out.Nonce == "" {
		return "", &AdminError{
			StatusCode: http.StatusOK,
			Message:    "server returned no nonce",
			Path:       registerPath,
		}
	}
	return out.Nonce, nil
}

// Register creates a new user via shared-secret registration. The request
// is authenticated by an HMAC-SHA1 over nonce, username, password and the
// admin flag, keyed with the shared secret.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	if err := c.checkPasswordLength(req.Password); err != nil {
		return nil, err
	}

	if req.Nonce == "" {
		nonce, err := c.RegistrationNonce(ctx)
		if err != nil {
			return nil, err
		}
		req.Nonce = nonce
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	logging.Info().Str("username", req.Username).Bool("admin", req.Admin).Msg("registering user")
	body := map[string]any{
		"nonce":       req.Nonce,
		"username":    req.Username,
		"displayname": req.DisplayName,
		"password":    req.Password,
		"admin":       req.Admin,
		"mac":         registrationMAC(req),
	}

	out := &RegisterResult{}
	if err := c.do(ctx, http.MethodPost, registerPath, nil, body, out); err != nil {
		return nil, err
	}
	logging.Info().Str("user_id", out.UserID).Msg("registered user")
	return out, nil
}

// registrationMAC computes the shared-secret registration MAC:
// HMAC-SHA1(secret, nonce \x00 username \x00 password \x00 admin|notadmin),
// hex-encoded.
func registrationMAC(req RegisterRequest) string {
	adminFlag := "notadmin"
	if req.Admin {
		adminFlag = "admin"
	}

	mac := hmac.New(sha1.New, []byte(req.SharedSecret))
	mac.Write([]byte(req.Nonce))
	mac.Write([]byte{0})
	mac.Write([]byte(req.Username))
	mac.Write([]byte{0})
	mac.Write([]byte(req.Password))
	mac.Write([]byte{0})
	mac.Write([]byte(adminFlag))
	return hex.EncodeToString(mac.Sum(nil))
}
