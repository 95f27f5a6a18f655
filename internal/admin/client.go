// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

// Package admin is the HTTP API manager for a Dendrite server's
// administrative endpoints.
//
// A Client wraps one reusable http.Client configured from config.Settings.
// Each exported method maps to one admin capability: it validates its input
// locally, issues a single bearer-authenticated JSON request, and returns
// the decoded response or a typed failure (ValidationError, AdminError,
// TransportError). No request is ever retried; admin operations such as
// account deactivation must not be double-applied by a transparent retry.
//
// Operations Dendrite has no native endpoint for (account listing, room
// listing, account deactivation) are emulated by workarounds composed from
// the primitives that do exist; see workarounds.go.
package admin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/dendritetools/dendritecli/internal/config"
	"github.com/dendritetools/dendritecli/internal/logging"
)

// Version is the client version reported in the User-Agent header.
const Version = "1.0.0"

// maxErrorBodySize caps how much of an error response body is read, so a
// misbehaving server cannot force an unbounded allocation.
const maxErrorBodySize = 64 * 1024 // 64KB

// maxRedirects matches the redirect budget of the original client.
const maxRedirects = 10

var userAgent = "dendritecli/" + Version + " (" + runtime.Version() + ")"

// Result is a decoded JSON response body for endpoints whose shape is not
// fixed. It is returned to the caller without further normalization.
type Result map[string]any

// Client issues authenticated requests against one Dendrite server.
// Safe for concurrent use; the underlying http.Client pools connections.
type Client struct {
	settings *config.Settings
	baseURL  string
	base     *url.URL
	http     *http.Client
}

// New builds a Client from validated settings. The access token must be
// present; config.Load guarantees that for settings it produced.
func New(settings *config.Settings) (*Client, error) {
	if settings.AccessToken == "" {
		return nil, &config.Error{Key: "access_token", Msg: "value is required"}
	}

	base, err := url.Parse(settings.Server)
	if err != nil {
		return nil, &config.Error{Key: "server", Msg: "invalid server URL", Err: err}
	}

	transport, err := newTransport(settings)
	if err != nil {
		return nil, err
	}

	timeouts := settings.Timeouts()
	return &Client{
		settings: settings,
		baseURL:  strings.TrimRight(settings.Server, "/"),
		base:     base,
		http: &http.Client{
			Transport: transport,
			// Overall bound across all phases; the transport holds the
			// per-phase limits.
			Timeout: timeouts.Connect + timeouts.Write + timeouts.Read,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}, nil
}

// newTransport builds the http.Transport carrying the per-phase timeouts
// and the proxy configuration.
func newTransport(settings *config.Settings) (*http.Transport, error) {
	timeouts := settings.Timeouts()
	dialer := &net.Dialer{Timeout: timeouts.Connect}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   timeouts.Connect,
		ResponseHeaderTimeout: timeouts.Read,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	if len(settings.Proxies) > 0 {
		proxies := make(map[string]*url.URL, len(settings.Proxies))
		for scheme, raw := range settings.Proxies {
			u, err := url.Parse(raw)
			if err != nil {
				return nil, &config.Error{Key: "proxies." + scheme, Msg: "invalid proxy URL", Err: err}
			}
			proxies[scheme] = u
		}
		// Scheme-specific entry first, socks5 as the catch-all; schemes the
		// table does not cover keep the standard proxy environment behavior.
		transport.Proxy = func(req *http.Request) (*url.URL, error) {
			if u, ok := proxies[req.URL.Scheme]; ok {
				return u, nil
			}
			if u, ok := proxies["socks5"]; ok {
				return u, nil
			}
			return http.ProxyFromEnvironment(req)
		}
	}

	return transport, nil
}

// Settings returns the settings this client was constructed with.
func (c *Client) Settings() *config.Settings {
	return c.settings
}

// send builds and issues one request, classifying transport failures.
// target is either a path under the configured server or an absolute URL
// (for delegated lookups). The caller owns the response body.
func (c *Client) send(ctx context.Context, token, method, target string, query url.Values, body any) (*http.Response, error) {
	reqURL := target
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		reqURL = c.baseURL + target
	}
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	// Custom headers first; the reserved headers always win.
	for name, value := range c.settings.Headers {
		req.Header.Set(name, value)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &TransportError{Kind: classifyTransport(err), Path: target, Err: err}
	}
	return resp, nil
}

// doWithToken issues a request with the given bearer token, checks the
// status, and decodes the JSON body into out (when out is non-nil).
func (c *Client) doWithToken(ctx context.Context, token, method, target string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, token, method, target, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, target); err != nil {
		return err
	}
	return decodeBody(resp.Body, out)
}

// do issues a request authenticated with the configured admin token.
func (c *Client) do(ctx context.Context, method, target string, query url.Values, body, out any) error {
	return c.doWithToken(ctx, c.settings.AccessToken, method, target, query, body, out)
}

// doResult is do for endpoints whose response shape is not fixed.
func (c *Client) doResult(ctx context.Context, method, target string, query url.Values, body any) (Result, error) {
	out := Result{}
	if err := c.do(ctx, method, target, query, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkStatus converts a non-2xx response into an AdminError, lifting the
// server's errcode/error fields verbatim when the body carries them.
func checkStatus(resp *http.Response, path string) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	adminErr := &AdminError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		Path:       path,
	}

	body := readBodyForError(resp.Body)
	var payload struct {
		Code    string `json:"errcode"`
		Message string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && (payload.Code != "" || payload.Message != "") {
		adminErr.Code = payload.Code
		if payload.Message != "" {
			adminErr.Message = payload.Message
		}
	}

	logging.Debug().
		Int("status", resp.StatusCode).
		Str("errcode", adminErr.Code).
		Str("path", path).
		Msg("request failed")
	return adminErr
}

// decodeBody decodes a JSON response body into out. An empty body is not an
// error; several admin endpoints return nothing on success.
func decodeBody(r io.Reader, out any) error {
	if out == nil {
		_, err := io.Copy(io.Discard, r)
		return err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// readBodyForError reads at most maxErrorBodySize bytes of a response body
// for error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}
