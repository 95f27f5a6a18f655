// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package admin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dendritetools/dendritecli/internal/logging"
)

// ResolveDelegation discovers the client API base URL for a domain via its
// /.well-known/matrix/client document, per the client-server discovery
// section of the Matrix spec. A 404 means no delegation: the domain itself
// is the server. The discovered base URL is verified by fetching its
// /_matrix/client/versions endpoint before it is returned.
func (c *Client) ResolveDelegation(ctx context.Context, domain string) (string, error) {
	logging.Info().Str("domain", domain).Msg("resolving delegation")

	wellKnown := "https://" + domain + "/.well-known/matrix/client"
	resp, err := c.send(ctx, c.settings.AccessToken, http.MethodGet, wellKnown, nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "https://" + domain + ":443", nil
	}
	if err := checkStatus(resp, wellKnown); err != nil {
		return "", err
	}

	var doc struct {
		Homeserver struct {
			BaseURL string `json:"base_url"`
		} `json:"m.homeserver"`
	}
	if err := decodeBody(resp.Body, &doc); err != nil {
		return "", fmt.Errorf("resolving delegation for %s: %w", domain, err)
	}
	if doc.Homeserver.BaseURL == "" {
		return "", fmt.Errorf("resolving delegation for %s: missing m.homeserver.base_url", domain)
	}

	baseURL := strings.TrimRight(doc.Homeserver.BaseURL, "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("resolving delegation for %s: invalid base URL %q", domain, doc.Homeserver.BaseURL)
	}
	if parsed.Scheme != "https" {
		return "", fmt.Errorf("resolving delegation for %s: base URL must be https, got %q", domain, parsed.Scheme)
	}

	// The delegated server must actually speak the client API.
	var versions struct {
		Versions []string `json:"versions"`
	}
	if err := c.do(ctx, http.MethodGet, baseURL+"/_matrix/client/versions", nil, nil, &versions); err != nil {
		return "", fmt.Errorf("validating delegated server for %s: %w", domain, err)
	}
	if len(versions.Versions) == 0 {
		return "", fmt.Errorf("validating delegated server for %s: no versions advertised", domain)
	}

	logging.Info().Str("domain", domain).Str("base_url", baseURL).Msg("resolved delegation")
	return baseURL, nil
}
