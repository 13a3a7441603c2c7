package middleware

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "session"

const sessionTTL = 24 * time.Hour

// Principal is the authenticated identity resolved by the Auth middleware and
// stored in the echo context under principalKey.
type Principal struct {
	ID       string
	Username string
	Role     int
	Status   int
	// Bearer is true when the request authenticated with the personal
	// access token instead of the session cookie.
	Bearer bool
}

const principalKey = "principal"

// SetPrincipal stores the authenticated identity in the request context.
func SetPrincipal(c echo.Context, p *Principal) {
	c.Set(principalKey, p)
}

// GetPrincipal returns the identity the Auth middleware resolved, or nil on
// unauthenticated requests.
func GetPrincipal(c echo.Context) *Principal {
	p, _ := c.Get(principalKey).(*Principal)
	return p
}

// IssueSessionCookie signs a session token for the principal and attaches it
// to the response as an HttpOnly cookie.
func IssueSessionCookie(c echo.Context, secret string, p *Principal) error {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      p.ID,
		"username": p.Username,
		"role":     p.Role,
		"status":   p.Status,
		"iat":      now.Unix(),
		"exp":      now.Add(sessionTTL).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(sessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// parseSessionCookie validates the signed session token and reconstructs the
// principal. Only HS256 signatures are accepted.
func parseSessionCookie(value, secret string) (*Principal, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	id, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	// JSON numbers decode as float64.
	role, _ := claims["role"].(float64)
	status, _ := claims["status"].(float64)

	return &Principal{
		ID:       id,
		Username: username,
		Role:     int(role),
		Status:   int(status),
	}, nil
}
