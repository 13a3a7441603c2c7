package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/MikeLinPlan/account-system/internal/core/domain"
)

type stubUserLookup struct {
	byToken map[string]*domain.User
}

func (s *stubUserLookup) FindByAccessToken(_ context.Context, token string) (*domain.User, error) {
	if u, ok := s.byToken[token]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUserLookup) Create(context.Context, *domain.User) (*domain.User, error) { return nil, nil }
func (s *stubUserLookup) FindByID(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (s *stubUserLookup) FindByLogin(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (s *stubUserLookup) ExistsByUsernameOrEmail(context.Context, string, string) (bool, error) {
	return false, nil
}
func (s *stubUserLookup) Update(context.Context, *domain.User) error { return nil }
func (s *stubUserLookup) Delete(context.Context, string) error       { return nil }
func (s *stubUserLookup) List(context.Context, int, int) ([]*domain.User, int64, error) {
	return nil, 0, nil
}
func (s *stubUserLookup) Search(context.Context, string, int, int) ([]*domain.User, int64, error) {
	return nil, 0, nil
}
func (s *stubUserLookup) Count(context.Context) (int64, error) { return 0, nil }

const testSecret = "test-secret"

func sessionRequest(t *testing.T, p *Principal) *http.Request {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := IssueSessionCookie(c, testSecret, p); err != nil {
		t.Fatalf("issue cookie: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

func runAuth(t *testing.T, req *http.Request, users *stubUserLookup, minRole int) (*httptest.ResponseRecorder, *Principal, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *Principal
	mw := Auth(testSecret, users, minRole)
	err := mw(func(c echo.Context) error {
		seen = GetPrincipal(c)
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, seen, err
}

func TestAuth_SessionCookie(t *testing.T) {
	req := sessionRequest(t, &Principal{ID: "u1", Username: "alice", Role: domain.RoleCommon, Status: domain.UserStatusEnabled})

	_, seen, err := runAuth(t, req, &stubUserLookup{}, domain.RoleCommon)
	if err != nil {
		t.Fatalf("auth failed: %v", err)
	}
	if seen == nil || seen.Username != "alice" || seen.Role != domain.RoleCommon {
		t.Fatalf("unexpected principal: %+v", seen)
	}
	if seen.Bearer {
		t.Fatalf("cookie auth must not be flagged as bearer")
	}
}

func TestAuth_MissingCredentials(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, _, err := runAuth(t, req, &stubUserLookup{}, domain.RoleCommon)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuth_TamperedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-jwt"})

	_, _, err := runAuth(t, req, &stubUserLookup{}, domain.RoleCommon)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuth_BearerAccessToken(t *testing.T) {
	users := &stubUserLookup{byToken: map[string]*domain.User{
		"tok123": {ID: "u2", Username: "bob", Role: domain.RoleAdmin, Status: domain.UserStatusEnabled},
	}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok123")

	_, seen, err := runAuth(t, req, users, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("auth failed: %v", err)
	}
	if seen == nil || seen.Username != "bob" || !seen.Bearer {
		t.Fatalf("unexpected principal: %+v", seen)
	}
}

func TestAuth_UnknownBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")

	_, _, err := runAuth(t, req, &stubUserLookup{}, domain.RoleCommon)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuth_InsufficientRole(t *testing.T) {
	req := sessionRequest(t, &Principal{ID: "u1", Username: "carol", Role: domain.RoleCommon, Status: domain.UserStatusEnabled})

	_, _, err := runAuth(t, req, &stubUserLookup{}, domain.RoleAdmin)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestAuth_DisabledUser(t *testing.T) {
	req := sessionRequest(t, &Principal{ID: "u1", Username: "dave", Role: domain.RoleAdmin, Status: domain.UserStatusDisabled})

	_, _, err := runAuth(t, req, &stubUserLookup{}, domain.RoleCommon)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}
