// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"time"
)

const MaxUserIDLen = 64

var (
	ErrUserIDTooLong = errors.New("user id too long")
	ErrUserIDEmpty   = errors.New("user id empty")
)

// UserID is issued by the external auth service; the relay trusts it as claimed.
type UserID string

func NewUserID(raw string) (UserID, error) {
	if len(raw) == 0 {
		return "", ErrUserIDEmpty
	}
	if len(raw) > MaxUserIDLen {
		return "", ErrUserIDTooLong
	}
	return UserID(raw), nil
}

// PresenceEntry is one row of the presence store.
type PresenceEntry struct {
	UserID   UserID     `json:"id"`
	Online   bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}
