// Package domain holds the room and member entities and the checks that keep them valid.
package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxIdentityLen    = 36
	MaxDisplayNameLen = 36
	MaxRoomNameLen    = 64
)

// Identity is a stable credential-derived user id, the same across rooms and sessions.
type Identity string

// NewIdentity synthesizes a fresh anonymous identity.
func NewIdentity() Identity {
	return Identity(uuid.NewString())
}

// NormalizeDisplayName trims the name and checks its bounds.
func NormalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrDisplayNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLen {
		return "", ErrDisplayNameTooLong
	}
	return name, nil
}
