// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package admin

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dendritetools/dendritecli/internal/logging"
)

// EvacuateResult is the response of the evacuate endpoints: the user IDs
// (room evacuation) or room IDs (user evacuation) that were affected.
type EvacuateResult struct {
	Affected []string `json:"affected"`
}

// ResetPasswordResult reports whether a password reset was applied.
type ResetPasswordResult struct {
	PasswordUpdated bool `json:"password_updated"`
}

// EvacuateRoom instructs the server to part all local users from the given
// room. May take a long time on large rooms; the read timeout bounds it.
func (c *Client) EvacuateRoom(ctx context.Context, roomID string) (*EvacuateResult, error) {
	if err := validateRoomID(roomID); err != nil {
		return nil, err
	}

	logging.Info().Str("room_id", roomID).Msg("evacuating room")
	out := &EvacuateResult{}
	err := c.do(ctx, http.MethodPost, "/_dendrite/admin/evacuateRoom/"+url.PathEscape(roomID), nil, nil, out)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("room_id", roomID).Int("affected", len(out.Affected)).Msg("finished evacuating room")
	return out, nil
}

// EvacuateUser instructs the server to part the given local user from every
// room they are joined to.
func (c *Client) EvacuateUser(ctx context.Context, userID string) (*EvacuateResult, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	logging.Info().Str("user_id", userID).Msg("evacuating user")
	out := &EvacuateResult{}
	err := c.do(ctx, http.MethodPost, "/_dendrite/admin/evacuateUser/"+url.PathEscape(userID), nil, nil, out)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("user_id", userID).Int("affected", len(out.Affected)).Msg("finished evacuating user")
	return out, nil
}

// PurgeRoom permanently deletes all stored events of a room. Irreversible;
// the room should be evacuated first.
func (c *Client) PurgeRoom(ctx context.Context, roomID string) (Result, error) {
	if err := validateRoomID(roomID); err != nil {
		return nil, err
	}

	logging.Info().Str("room_id", roomID).Msg("purging room")
	out, err := c.doResult(ctx, http.MethodPost, "/_dendrite/admin/purgeRoom/"+url.PathEscape(roomID), nil, nil)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("room_id", roomID).Msg("finished purging room")
	return out, nil
}

// RefreshDevices makes the server re-query the federated device list for a
// user, refreshing locally stored devices and keys.
func (c *Client) RefreshDevices(ctx context.Context, userID string) (Result, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	logging.Info().Str("user_id", userID).Msg("refreshing devices")
	return c.doResult(ctx, http.MethodPost, "/_dendrite/admin/refreshDevices/"+url.PathEscape(userID), nil, nil)
}

// ReindexEvents triggers a rebuild of the server's full-text search index.
// The server returns immediately; indexing continues in the background.
func (c *Client) ReindexEvents(ctx context.Context) (Result, error) {
	logging.Info().Msg("requesting event reindex")
	return c.doResult(ctx, http.MethodPost, "/_dendrite/admin/fulltext/reindex", nil, nil)
}

// ResetPassword sets a new password for a local user, optionally logging
// out all of their devices. The password byte-length policy applies.
func (c *Client) ResetPassword(ctx context.Context, userID, newPassword string, logoutDevices bool) (*ResetPasswordResult, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := c.checkPasswordLength(newPassword); err != nil {
		return nil, err
	}

	logging.Info().Str("user_id", userID).Msg("resetting password")
	body := map[string]any{
		"password":       newPassword,
		"logout_devices": logoutDevices,
	}
	out := &ResetPasswordResult{}
	err := c.do(ctx, http.MethodPost, "/_dendrite/admin/resetPassword/"+url.PathEscape(userID), nil, body, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Whois returns everything the server knows about a user's devices and
// sessions. Non-local user IDs are looked up on their own server via
// delegation discovery.
func (c *Client) Whois(ctx context.Context, userID string) (Result, error) {
	return c.userLookup(ctx, userID, "/_matrix/client/v3/admin/whois/")
}

// Profile returns a user's public profile. It is the lighter fallback when
// the whois endpoint refuses the caller.
func (c *Client) Profile(ctx context.Context, userID string) (Result, error) {
	return c.userLookup(ctx, userID, "/_matrix/client/v3/profile/")
}

// userLookup performs a GET on prefix+userID, routing to the user's own
// server when the ID is not local.
func (c *Client) userLookup(ctx context.Context, userID, prefix string) (Result, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	target := prefix + url.PathEscape(userID)
	if domain := userDomain(userID); domain != c.base.Hostname() {
		logging.Warn().
			Str("user_id", userID).
			Str("domain", domain).
			Msg("user is not local to this server, contacting their server instead")
		resolved, err := c.ResolveDelegation(ctx, domain)
		if err != nil {
			return nil, err
		}
		target = resolved + target
	}

	logging.Info().Str("user_id", userID).Msg("fetching user information")
	return c.doResult(ctx, http.MethodGet, target, nil, nil)
}

// SendServerNotice delivers a server notice event to the given user.
// content is the Matrix event content, e.g. {"msgtype": "m.text", "body": …}.
func (c *Client) SendServerNotice(ctx context.Context, userID string, content map[string]any) (Result, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, &ValidationError{Param: "content", Msg: "must not be empty"}
	}

	logging.Info().Str("user_id", userID).Msg("sending server notice")
	body := map[string]any{
		"user_id": userID,
		"content": content,
	}
	return c.doResult(ctx, http.MethodPost, "/_synapse/admin/v1/send_server_notice", nil, body)
}
