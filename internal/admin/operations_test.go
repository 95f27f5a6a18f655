// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"

	"github.com/dendritetools/dendritecli/internal/config"
)

func TestEvacuateRoom(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if got := r.URL.Path; got != "/_dendrite/admin/evacuateRoom/!room:example.org" {
			t.Errorf("path = %q", got)
		}
		w.Write([]byte(`{"affected":["@a:example.org","@b:example.org"]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)
	result, err := client.EvacuateRoom(context.Background(), "!room:example.org")
	if err != nil {
		t.Fatalf("EvacuateRoom() error = %v", err)
	}
	want := []string{"@a:example.org", "@b:example.org"}
	if !reflect.DeepEqual(result.Affected, want) {
		t.Errorf("Affected = %v, want %v", result.Affected, want)
	}
}

func TestEvacuateUser(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/_dendrite/admin/evacuateUser/@leaver:example.org" {
			t.Errorf("path = %q", got)
		}
		w.Write([]byte(`{"affected":["!one:example.org"]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)
	result, err := client.EvacuateUser(context.Background(), "@leaver:example.org")
	if err != nil {
		t.Fatalf("EvacuateUser() error = %v", err)
	}
	if len(result.Affected) != 1 || result.Affected[0] != "!one:example.org" {
		t.Errorf("Affected = %v", result.Affected)
	}
}

func TestPurgeRoom(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/_dendrite/admin/purgeRoom/!doomed:example.org" {
			t.Errorf("path = %q", got)
		}
		// Dendrite answers the purge with an empty body.
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)
	result, err := client.PurgeRoom(context.Background(), "!doomed:example.org")
	if err != nil {
		t.Fatalf("PurgeRoom() error = %v", err)
	}
	if len(result) != 0 {
		t.Errorf("result = %v, want empty", result)
	}
}

func TestRefreshDevices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/_dendrite/admin/refreshDevices/@remote:other.example" {
			t.Errorf("path = %q", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)
	if _, err := client.RefreshDevices(context.Background(), "@remote:other.example"); err != nil {
		t.Fatalf("RefreshDevices() error = %v", err)
	}
}

func TestReindexEvents(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/_dendrite/admin/fulltext/reindex" {
			t.Errorf("path = %q", got)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)
	if _, err := client.ReindexEvents(context.Background()); err != nil {
		t.Fatalf("ReindexEvents() error = %v", err)
	}
}

func TestResetPassword(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/_dendrite/admin/resetPassword/@alice:example.org" {
			t.Errorf("path = %q", got)
		}
		var body struct {
			Password      string `json:"password"`
			LogoutDevices bool   `json:"logout_devices"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if body.Password != "hunter22" {
			t.Errorf("password = %q", body.Password)
		}
		if !body.LogoutDevices {
			t.Error("logout_devices = false, want true")
		}
		w.Write([]byte(`{"password_updated":true}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)
	result, err := client.ResetPassword(context.Background(), "@alice:example.org", "hunter22", true)
	if err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if !result.PasswordUpdated {
		t.Error("PasswordUpdated = false, want true")
	}
}

func TestPasswordLengthPolicy(t *testing.T) {
	t.Parallel()

	longPassword := strings.Repeat("x", 73)

	t.Run("over limit rejected before any request", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.Write([]byte(`{"password_updated":true}`))
		}))
		defer server.Close()

		client := newTestClient(t, server, nil)
		_, err := client.ResetPassword(context.Background(), "@alice:example.org", longPassword, false)

		var valErr *ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("error = %v, want *ValidationError", err)
		}
		if valErr.Param != "password" {
			t.Errorf("Param = %q, want password", valErr.Param)
		}
		if got := requests.Load(); got != 0 {
			t.Errorf("request count = %d, want 0", got)
		}
	})

	t.Run("exactly 72 bytes accepted", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"password_updated":true}`))
		}))
		defer server.Close()

		client := newTestClient(t, server, nil)
		_, err := client.ResetPassword(context.Background(), "@alice:example.org", strings.Repeat("x", 72), false)
		if err != nil {
			t.Fatalf("ResetPassword() error = %v", err)
		}
	})

	t.Run("override sends the long password", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			var body struct {
				Password string `json:"password"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decoding body: %v", err)
			}
			if body.Password != longPassword {
				t.Errorf("password was altered, len = %d", len(body.Password))
			}
			w.Write([]byte(`{"password_updated":true}`))
		}))
		defer server.Close()

		client := newTestClient(t, server, func(s *config.Settings) {
			s.OverridePasswordLengthCheck = true
		})
		_, err := client.ResetPassword(context.Background(), "@alice:example.org", longPassword, false)
		if err != nil {
			t.Fatalf("ResetPassword() error = %v", err)
		}
		if got := requests.Load(); got != 1 {
			t.Errorf("request count = %d, want 1", got)
		}
	})
}

func TestSendServerNotice(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/_synapse/admin/v1/send_server_notice" {
			t.Errorf("path = %q", got)
		}
		var body struct {
			UserID  string         `json:"user_id"`
			Content map[string]any `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if body.UserID != "@alice:example.org" {
			t.Errorf("user_id = %q", body.UserID)
		}
		if body.Content["msgtype"] != "m.text" || body.Content["body"] != "scheduled maintenance" {
			t.Errorf("content = %v", body.Content)
		}
		w.Write([]byte(`{"event_id":"$notice:example.org"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)
	result, err := client.SendServerNotice(context.Background(), "@alice:example.org", map[string]any{
		"msgtype": "m.text",
		"body":    "scheduled maintenance",
	})
	if err != nil {
		t.Fatalf("SendServerNotice() error = %v", err)
	}
	if result["event_id"] != "$notice:example.org" {
		t.Errorf("event_id = %v", result["event_id"])
	}
}

func TestSendServerNoticeEmptyContent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent for empty content")
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)
	_, err := client.SendServerNotice(context.Background(), "@alice:example.org", nil)

	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestProfile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/_matrix/client/v3/profile/@alice:127.0.0.1" {
			t.Errorf("path = %q", got)
		}
		w.Write([]byte(`{"displayname":"Alice","avatar_url":"mxc://example.org/abc"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)
	result, err := client.Profile(context.Background(), "@alice:127.0.0.1")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if result["displayname"] != "Alice" {
		t.Errorf("displayname = %v", result["displayname"])
	}
}
