// Package client is the Go SDK for the account system API. It bundles three
// cooperating pieces: a SessionStore holding the authenticated identity across
// process restarts, a Gateway dispatching authorized requests and tearing the
// session down on authorization failure, and a typed Client over the REST
// surface.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Identity is the authenticated user record as the API serves it.
type Identity struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        int    `json:"role"`
	Status      int    `json:"status"`
	// AccessToken is the long-lived bearer credential, present only on the
	// owner's own record.
	AccessToken string `json:"access_token,omitempty"`
}

// Role tiers mirrored from the API.
const (
	RoleCommon = 1
	RoleAdmin  = 10
	RoleRoot   = 100
)

// APIToken is a user-managed programmatic credential, distinct from the
// access token embedded in Identity.
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

// Envelope is the uniform response shape the API speaks:
// {success, message, data?, total?}.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Total   int64           `json:"total"`
}

// APIError carries a business failure: the server answered, but with
// success=false. The message is the server's, surfaced verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// ErrUnauthorized is returned after the Gateway has torn the session down in
// response to a 401.
var ErrUnauthorized = errors.New("authorization lost")

// ErrValidation wraps client-side validation failures: these never reach the
// network.
var ErrValidation = errors.New("validation failed")

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
