package domain

import (
	"errors"
	"time"
)

// Role tiers. Higher value means more privilege.
const (
	RoleGuest  = 0
	RoleCommon = 1
	RoleAdmin  = 10
	RoleRoot   = 100
)

// User account status.
const (
	UserStatusEnabled  = 1
	UserStatusDisabled = 2
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user is disabled")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidRole        = errors.New("invalid role")
)

// User models an account in the system. Password holds the bcrypt hash at
// rest and is never serialized. AccessToken is the optional long-lived opaque
// bearer credential, usable standalone as an alternative to the session
// cookie.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Password    string    `json:"-"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Role        int       `json:"role"`
	Status      int       `json:"status"`
	AccessToken string    `json:"access_token,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidRole reports whether role is one of the defined tiers.
func ValidRole(role int) bool {
	return role == RoleGuest || role == RoleCommon || role == RoleAdmin || role == RoleRoot
}

// Enabled reports whether the account may authenticate.
func (u *User) Enabled() bool {
	return u.Status == UserStatusEnabled
}

// IsAdmin reports whether the user holds admin privileges or above.
func (u *User) IsAdmin() bool {
	return u.Role >= RoleAdmin
}

// Sanitized returns a copy safe to hand to other principals. The access token
// is a bearer capability and must never leak to anyone but its owner.
func (u *User) Sanitized() *User {
	clone := *u
	clone.Password = ""
	clone.AccessToken = ""
	return &clone
}

// UserUpdate carries a partial profile update. An empty password means
// "keep the current one".
type UserUpdate struct {
	Username    string
	DisplayName string
	Email       string
	Password    string
}
