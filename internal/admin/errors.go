// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package admin

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
)

// Transport failure kinds carried by TransportError.
const (
	KindTimeout   = "timeout"
	KindDNS       = "dns"
	KindTLS       = "tls"
	KindConnect   = "connect"
	KindTransport = "transport"
)

// ValidationError is locally-detected bad input, raised before any request
// is sent. It is fatal to the single operation.
type ValidationError struct {
	// Param names the offending parameter.
	Param string

	// Msg describes the problem.
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Msg)
}

// AdminError is a non-2xx HTTP response from the server. Code and Message
// carry the server's errcode/error body fields verbatim when the error body
// was JSON; otherwise Message falls back to the status text. Never retried.
type AdminError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Code is the server error code (e.g. M_NOT_FOUND), when present.
	Code string

	// Message is the server error message, or the status text.
	Message string

	// Path is the request path that produced the error.
	Path string
}

func (e *AdminError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %s (HTTP %d)", e.Code, e.Path, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Path, e.Message, e.StatusCode)
}

// TransportError is a failure to complete the HTTP exchange at all: dial,
// DNS, TLS, or a timeout in any phase. Never retried automatically; the
// caller may re-invoke the operation.
type TransportError struct {
	// Kind classifies the failure: timeout, dns, tls, connect or transport.
	Kind string

	// Path is the request path that was being attempted.
	Path string

	// Err is the underlying cause.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failure on %s: %v", e.Kind, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// classifyTransport maps a transport-level error to a TransportError kind.
// Timeout takes precedence: a timed-out dial is a timeout, not a connect
// failure.
func classifyTransport(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return KindTLS
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return KindTLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindConnect
	}

	return KindTransport
}
