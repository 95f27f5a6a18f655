// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package admin

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/dendritetools/dendritecli/internal/config"
)

// newDelegationClient builds a client whose transport is replaced by stub,
// so tests can answer the https well-known and versions fetches directly.
func newDelegationClient(t *testing.T, stub roundTripFunc) *Client {
	t.Helper()

	client, err := New(&config.Settings{
		AccessToken: testToken,
		Server:      "https://local.example",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	client.http.Transport = stub
	return client
}

func TestResolveDelegation(t *testing.T) {
	t.Parallel()

	t.Run("no delegation document", func(t *testing.T) {
		t.Parallel()

		client := newDelegationClient(t, func(req *http.Request) (*http.Response, error) {
			if req.URL.String() != "https://remote.example/.well-known/matrix/client" {
				t.Errorf("url = %q", req.URL)
			}
			return jsonResponse(http.StatusNotFound, ""), nil
		})

		got, err := client.ResolveDelegation(context.Background(), "remote.example")
		if err != nil {
			t.Fatalf("ResolveDelegation() error = %v", err)
		}
		if got != "https://remote.example:443" {
			t.Errorf("base URL = %q", got)
		}
	})

	t.Run("delegated and verified", func(t *testing.T) {
		t.Parallel()

		client := newDelegationClient(t, func(req *http.Request) (*http.Response, error) {
			switch req.URL.String() {
			case "https://remote.example/.well-known/matrix/client":
				return jsonResponse(http.StatusOK,
					`{"m.homeserver":{"base_url":"https://matrix.remote.example/"}}`), nil
			case "https://matrix.remote.example/_matrix/client/versions":
				return jsonResponse(http.StatusOK, `{"versions":["v1.10","v1.11"]}`), nil
			default:
				t.Errorf("unexpected request: %s", req.URL)
				return jsonResponse(http.StatusNotFound, ""), nil
			}
		})

		got, err := client.ResolveDelegation(context.Background(), "remote.example")
		if err != nil {
			t.Fatalf("ResolveDelegation() error = %v", err)
		}
		// Trailing slash trimmed.
		if got != "https://matrix.remote.example" {
			t.Errorf("base URL = %q", got)
		}
	})

	t.Run("missing base_url", func(t *testing.T) {
		t.Parallel()

		client := newDelegationClient(t, func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"m.homeserver":{}}`), nil
		})

		_, err := client.ResolveDelegation(context.Background(), "remote.example")
		if err == nil || !strings.Contains(err.Error(), "base_url") {
			t.Errorf("error = %v, want missing base_url", err)
		}
	})

	t.Run("non-https base_url rejected", func(t *testing.T) {
		t.Parallel()

		client := newDelegationClient(t, func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK,
				`{"m.homeserver":{"base_url":"http://matrix.remote.example"}}`), nil
		})

		_, err := client.ResolveDelegation(context.Background(), "remote.example")
		if err == nil || !strings.Contains(err.Error(), "https") {
			t.Errorf("error = %v, want https requirement", err)
		}
	})

	t.Run("delegated server speaks no client API", func(t *testing.T) {
		t.Parallel()

		client := newDelegationClient(t, func(req *http.Request) (*http.Response, error) {
			if strings.HasSuffix(req.URL.Path, "/versions") {
				return jsonResponse(http.StatusOK, `{"versions":[]}`), nil
			}
			return jsonResponse(http.StatusOK,
				`{"m.homeserver":{"base_url":"https://matrix.remote.example"}}`), nil
		})

		_, err := client.ResolveDelegation(context.Background(), "remote.example")
		if err == nil || !strings.Contains(err.Error(), "no versions") {
			t.Errorf("error = %v, want no versions advertised", err)
		}
	})
}

func TestWhoisNonLocalUser(t *testing.T) {
	t.Parallel()

	var urls []string
	client := newDelegationClient(t, func(req *http.Request) (*http.Response, error) {
		urls = append(urls, req.URL.String())

		switch {
		case strings.Contains(req.URL.Path, "/.well-known/"):
			return jsonResponse(http.StatusOK,
				`{"m.homeserver":{"base_url":"https://matrix.remote.example"}}`), nil
		case strings.HasSuffix(req.URL.Path, "/versions"):
			return jsonResponse(http.StatusOK, `{"versions":["v1.11"]}`), nil
		default:
			if got := req.Header.Get("Authorization"); got != "Bearer "+testToken {
				t.Errorf("Authorization = %q", got)
			}
			return jsonResponse(http.StatusOK, `{"user_id":"@bob:remote.example"}`), nil
		}
	})

	result, err := client.Whois(context.Background(), "@bob:remote.example")
	if err != nil {
		t.Fatalf("Whois() error = %v", err)
	}
	if result["user_id"] != "@bob:remote.example" {
		t.Errorf("result = %v", result)
	}

	want := []string{
		"https://remote.example/.well-known/matrix/client",
		"https://matrix.remote.example/_matrix/client/versions",
		"https://matrix.remote.example/_matrix/client/v3/admin/whois/@bob:remote.example",
	}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestWhoisLocalUserSkipsDelegation(t *testing.T) {
	t.Parallel()

	var urls []string
	client := newDelegationClient(t, func(req *http.Request) (*http.Response, error) {
		urls = append(urls, req.URL.String())
		return jsonResponse(http.StatusOK, `{"user_id":"@alice:local.example"}`), nil
	})

	if _, err := client.Whois(context.Background(), "@alice:local.example"); err != nil {
		t.Fatalf("Whois() error = %v", err)
	}
	if len(urls) != 1 || !strings.HasPrefix(urls[0], "https://local.example/") {
		t.Errorf("urls = %v, want a single local request", urls)
	}
}
