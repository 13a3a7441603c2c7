package domain

import (
	"errors"
	"time"
)

// API token status. Expired and exhausted are set lazily when a validation
// attempt observes the condition.
const (
	TokenStatusEnabled   = 1
	TokenStatusDisabled  = 2
	TokenStatusExpired   = 3
	TokenStatusExhausted = 4
)

var (
	ErrTokenNotFound  = errors.New("token not found")
	ErrTokenDisabled  = errors.New("token is disabled")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenExhausted = errors.New("token quota exhausted")
)

// APIToken is a named, revocable credential a user hands to third-party
// programs. Distinct from User.AccessToken: API tokens carry their own quota
// and status and are never visible to administrators.
type APIToken struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Key            string    `json:"key"`
	Name           string    `json:"name"`
	Status         int       `json:"status"`
	RemainQuota    int64     `json:"remain_quota"`
	UnlimitedQuota bool      `json:"unlimited_quota"`
	CreatedTime    time.Time `json:"created_time"`
	AccessedTime   time.Time `json:"accessed_time"`
	ExpiredTime    time.Time `json:"expired_time"`
}

// Usable reports whether the token can authenticate a request right now.
func (t *APIToken) Usable(now time.Time) error {
	if t.Status != TokenStatusEnabled {
		return ErrTokenDisabled
	}
	if t.ExpiredTime.Before(now) {
		return ErrTokenExpired
	}
	if !t.UnlimitedQuota && t.RemainQuota <= 0 {
		return ErrTokenExhausted
	}
	return nil
}
