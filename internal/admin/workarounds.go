// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package admin

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dendritetools/dendritecli/internal/logging"
)

// listPageSize is the page size requested from the paginated listing
// endpoints.
const listPageSize = 100

// A workaround emulates an operation Dendrite has no native admin endpoint
// for, by composing the primitives that do exist. Each implementation
// documents exactly which requests it issues and in what order, since these
// are the only operations that are not a 1:1 mapping to a documented
// endpoint. Keeping them behind this interface makes each one independently
// replaceable if the server grows native support.
type workaround[T any] interface {
	run(ctx context.Context, c *Client) (T, error)
}

// Account is one row of the account listing.
type Account struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayname"`
	AvatarURL   string `json:"avatar_url"`
	Admin       bool   `json:"admin"`
	Deactivated bool   `json:"deactivated"`
	UserType    string `json:"user_type"`
	CreationTS  int64  `json:"creation_ts"`
}

// Room is one row of the room listing.
type Room struct {
	RoomID         string `json:"room_id"`
	Name           string `json:"name"`
	CanonicalAlias string `json:"canonical_alias"`
	Version        string `json:"version"`
	JoinedMembers  int    `json:"joined_members"`
}

// ListAccounts returns every account the server knows, in server order.
// Issues exactly one request per page the server reports.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var lister workaround[[]Account] = &accountLister{pageSize: listPageSize}
	return lister.run(ctx, c)
}

// ListRooms returns every room the server knows, local and remote, in
// server order. Issues exactly one request per page the server reports.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var lister workaround[[]Room] = &roomLister{pageSize: listPageSize}
	return lister.run(ctx, c)
}

// DeactivateAccount permanently deactivates a local account, erasing its
// profile. The user should be evacuated first. Returns the final
// deactivation response.
func (c *Client) DeactivateAccount(ctx context.Context, userID string) (Result, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	var deactivator workaround[Result] = &accountDeactivator{userID: userID}
	return deactivator.run(ctx, c)
}

// accountLister lists accounts by paging the Synapse-compatible user list,
// GET /_synapse/admin/v2/users, following next_token until the server stops
// returning one. Dendrite has no native account listing of its own.
type accountLister struct {
	pageSize int
}

func (l *accountLister) run(ctx context.Context, c *Client) ([]Account, error) {
	logging.Info().Msg("listing accounts")

	var accounts []Account
	token := ""
	for page := 1; ; page++ {
		query := url.Values{"limit": {strconv.Itoa(l.pageSize)}}
		if token != "" {
			query.Set("from", token)
		}

		var body struct {
			Users     []Account `json:"users"`
			NextToken string    `json:"next_token"`
		}
		if err := c.do(ctx, http.MethodGet, "/_synapse/admin/v2/users", query, nil, &body); err != nil {
			return nil, err
		}

		accounts = append(accounts, body.Users...)
		logging.Debug().Int("page", page).Int("total", len(accounts)).Msg("fetched account page")
		if body.NextToken == "" {
			return accounts, nil
		}
		token = body.NextToken
	}
}

// roomLister lists rooms by paging the Synapse-compatible room list,
// GET /_synapse/admin/v1/rooms, following next_batch until the server stops
// returning one. Dendrite has no native room listing of its own.
type roomLister struct {
	pageSize int
}

func (l *roomLister) run(ctx context.Context, c *Client) ([]Room, error) {
	logging.Info().Msg("listing rooms")

	var rooms []Room
	token := ""
	for page := 1; ; page++ {
		query := url.Values{"limit": {strconv.Itoa(l.pageSize)}}
		if token != "" {
			query.Set("from", token)
		}

		var body struct {
			Rooms     []Room `json:"rooms"`
			NextBatch string `json:"next_batch"`
		}
		if err := c.do(ctx, http.MethodGet, "/_synapse/admin/v1/rooms", query, nil, &body); err != nil {
			return nil, err
		}

		rooms = append(rooms, body.Rooms...)
		logging.Debug().Int("page", page).Int("total", len(rooms)).Msg("fetched room page")
		if body.NextBatch == "" {
			return rooms, nil
		}
		token = body.NextBatch
	}
}

// accountDeactivator deactivates an account without a native endpoint by
// composing three requests, in order:
//
//  1. POST /_dendrite/admin/resetPassword/{userID}: reset the password to
//     a random throwaway value;
//  2. POST /_matrix/client/v3/login: log in with the throwaway password
//     to obtain a token scoped to the user;
//  3. POST /_matrix/client/v3/account/deactivate: run the interactive-auth
//     flow with that token: the first call is expected to answer 401 with
//     the available flows, the second completes the m.login.password stage
//     with erase set.
type accountDeactivator struct {
	userID string
}

func (d *accountDeactivator) run(ctx context.Context, c *Client) (Result, error) {
	logging.Info().Str("user_id", d.userID).Msg("deactivating account: resetting password")
	password, err := throwawayPassword()
	if err != nil {
		return nil, err
	}

	reset, err := c.ResetPassword(ctx, d.userID, password, false)
	if err != nil {
		return nil, err
	}
	if !reset.PasswordUpdated {
		return nil, fmt.Errorf("deactivating %s: password reset was not applied", d.userID)
	}

	logging.Info().Str("user_id", d.userID).Msg("deactivating account: obtaining user token")
	var login struct {
		AccessToken string `json:"access_token"`
	}
	loginBody := map[string]any{
		"type":                        "m.login.password",
		"identifier":                  map[string]any{"type": "m.id.user", "user": d.userID},
		"password":                    password,
		"initial_device_display_name": "dendritecli",
	}
	if err := c.do(ctx, http.MethodPost, "/_matrix/client/v3/login", nil, loginBody, &login); err != nil {
		return nil, err
	}
	if login.AccessToken == "" {
		return nil, fmt.Errorf("deactivating %s: login returned no access token", d.userID)
	}

	session, err := d.beginInteractiveAuth(ctx, c, login.AccessToken)
	if err != nil {
		return nil, err
	}

	logging.Info().Str("user_id", d.userID).Msg("deactivating account: completing deactivation")
	deactivateBody := map[string]any{
		"auth": map[string]any{
			"type":       "m.login.password",
			"identifier": map[string]any{"type": "m.id.user", "user": d.userID},
			"user":       d.userID,
			"password":   password,
			"session":    session,
		},
		"erase": true,
	}
	out := Result{}
	if err := c.doWithToken(ctx, login.AccessToken, http.MethodPost, "/_matrix/client/v3/account/deactivate", nil, deactivateBody, &out); err != nil {
		return nil, err
	}
	logging.Info().Str("user_id", d.userID).Msg("deactivated account")
	return out, nil
}

// beginInteractiveAuth starts the deactivation flow and returns the
// interactive-auth session ID. The endpoint must answer 401 with a flow
// whose first stage is m.login.password.
func (d *accountDeactivator) beginInteractiveAuth(ctx context.Context, c *Client, token string) (string, error) {
	resp, err := c.send(ctx, token, http.MethodPost, "/_matrix/client/v3/account/deactivate", nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		return "", fmt.Errorf("deactivating %s: expected interactive-auth challenge, got HTTP %d", d.userID, resp.StatusCode)
	}

	var challenge struct {
		Session string `json:"session"`
		Flows   []struct {
			Stages []string `json:"stages"`
		} `json:"flows"`
	}
	if err := decodeBody(resp.Body, &challenge); err != nil {
		return "", fmt.Errorf("deactivating %s: %w", d.userID, err)
	}

	for _, flow := range challenge.Flows {
		if len(flow.Stages) > 0 && flow.Stages[0] == "m.login.password" {
			return challenge.Session, nil
		}
	}
	return "", fmt.Errorf("deactivating %s: no supported interactive-auth flow offered", d.userID)
}

// throwawayPassword produces a random password for the deactivation dance.
// 32 random bytes hex-encoded stays under the 72-byte limit.
func throwawayPassword() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating throwaway password: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
