// dendritecli - Dendrite administration API client and CLI
// Copyright 2026 the dendritecli authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/dendritetools/dendritecli

package admin

import (
	"strings"
	"testing"
)

func TestValidateUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		userID  string
		wantErr bool
	}{
		{name: "plain", userID: "@alice:example.org"},
		{name: "uppercase localpart tolerated", userID: "@Alice:example.org"},
		{name: "historical characters", userID: "@al-ice_.=/x:example.org"},
		{name: "domain with port", userID: "@alice:example.org:8448"},
		{name: "missing sigil", userID: "alice:example.org", wantErr: true},
		{name: "missing domain", userID: "@alice", wantErr: true},
		{name: "empty", userID: "", wantErr: true},
		{name: "room id", userID: "!room:example.org", wantErr: true},
		{name: "too long", userID: "@" + strings.Repeat("a", 255) + ":example.org", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateUserID(tt.userID)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateUserID(%q) error = %v, wantErr %v", tt.userID, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRoomID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		roomID  string
		wantErr bool
	}{
		{name: "room id", roomID: "!abc123:example.org"},
		{name: "alias", roomID: "#general:example.org"},
		{name: "user id", roomID: "@alice:example.org", wantErr: true},
		{name: "bare word", roomID: "general", wantErr: true},
		{name: "empty", roomID: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateRoomID(tt.roomID)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateRoomID(%q) error = %v, wantErr %v", tt.roomID, err, tt.wantErr)
			}
		})
	}
}

func TestUserDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		userID string
		want   string
	}{
		{userID: "@alice:example.org", want: "example.org"},
		{userID: "@alice:example.org:8448", want: "example.org:8448"},
		{userID: "@alice", want: ""},
	}

	for _, tt := range tests {
		if got := userDomain(tt.userID); got != tt.want {
			t.Errorf("userDomain(%q) = %q, want %q", tt.userID, got, tt.want)
		}
	}
}
