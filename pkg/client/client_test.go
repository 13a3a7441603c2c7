package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func writeEnvelope(w http.ResponseWriter, status int, data any, total int64) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	raw, _ := json.Marshal(data)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": status < 400,
		"message": "",
		"data":    json.RawMessage(raw),
		"total":   total,
	})
}

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return c, srv
}

func TestGatewayInjectsBearerOnlyWhenPresent(t *testing.T) {
	var lastAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, Identity{ID: "u1", Username: "alice"}, 0)
	}))

	if _, err := c.Self(context.Background()); err != nil {
		t.Fatal(err)
	}
	if lastAuth != "" {
		t.Errorf("Authorization = %q, want empty without a token", lastAuth)
	}

	c.Session().Establish(&Identity{ID: "u1", Username: "alice", AccessToken: "tok123"})
	if _, err := c.Self(context.Background()); err != nil {
		t.Fatal(err)
	}
	if lastAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q, want Bearer tok123", lastAuth)
	}
}

func TestUnauthorizedResponseTearsSessionDown(t *testing.T) {
	lost := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, nil, 0)
	}), WithAuthorizationLostHandler(func() { lost++ }))

	snap := c.Session().snapshot
	c.Session().Establish(&Identity{ID: "u1", Username: "alice", AccessToken: "tok"})

	_, err := c.Self(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if c.Session().IsAuthenticated() {
		t.Error("expected session cleared after 401")
	}
	if saved, _ := snap.Load(); saved != nil {
		t.Error("expected snapshot cleared after 401")
	}
	if lost != 1 {
		t.Errorf("authorization-lost callbacks = %d, want 1", lost)
	}
}

func TestLoginEstablishesSessionWithAccessToken(t *testing.T) {
	var lastAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/user/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" || body["password"] != "password123" {
			writeEnvelope(w, http.StatusUnauthorized, nil, 0)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "jwt-value", Path: "/"})
		writeEnvelope(w, http.StatusOK, Identity{ID: "u1", Username: "alice", Role: RoleCommon, AccessToken: "tok456"}, 0)
	})
	mux.HandleFunc("GET /api/user/self", func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		if cookie, err := r.Cookie("session"); err != nil || cookie.Value != "jwt-value" {
			writeEnvelope(w, http.StatusUnauthorized, nil, 0)
			return
		}
		writeEnvelope(w, http.StatusOK, Identity{ID: "u1", Username: "alice", Role: RoleCommon}, 0)
	})
	c, _ := newTestClient(t, mux)

	id, err := c.Login(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatal(err)
	}
	if id.AccessToken != "tok456" {
		t.Fatalf("access token = %q, want tok456", id.AccessToken)
	}
	if !c.Session().IsAuthenticated() {
		t.Fatal("expected authenticated session after login")
	}

	// The follow-up request rides both credentials: the cookie from the jar
	// and the bearer token from the store.
	if _, err := c.Self(context.Background()); err != nil {
		t.Fatal(err)
	}
	if lastAuth != "Bearer tok456" {
		t.Errorf("Authorization = %q, want Bearer tok456", lastAuth)
	}
}

func TestRegisterShortPasswordNeverReachesNetwork(t *testing.T) {
	requests := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeEnvelope(w, http.StatusOK, nil, 0)
	}))

	err := c.Register(context.Background(), RegisterInput{Username: "bob", Password: "short"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if requests != 0 {
		t.Errorf("server saw %d requests, want 0", requests)
	}
}

func TestListUsersPagination(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user" {
			t.Errorf("path = %q, want /api/user", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("page_size") != "10" {
			t.Errorf("query = %q, want page=2&page_size=10", r.URL.RawQuery)
		}
		items := make([]Identity, 10)
		for i := range items {
			items[i] = Identity{ID: "u", Username: "user"}
		}
		writeEnvelope(w, http.StatusOK, items, 25)
	}))

	page, err := c.ListUsers(context.Background(), 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 10 {
		t.Errorf("items = %d, want 10", len(page.Items))
	}
	if page.Total != 25 {
		t.Errorf("total = %d, want 25", page.Total)
	}
	if page.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", page.TotalPages)
	}
}

func TestSearchTokensSendsKeyword(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/token/search" {
			t.Errorf("path = %q, want /api/token/search", r.URL.Path)
		}
		if kw := r.URL.Query().Get("keyword"); kw != "prod" {
			t.Errorf("keyword = %q, want prod", kw)
		}
		writeEnvelope(w, http.StatusOK, []APIToken{{ID: "t1", Name: "prod-deploy"}}, 1)
	}))

	page, err := c.SearchTokens(context.Background(), "prod", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "prod-deploy" {
		t.Fatalf("items = %+v, want the matching token", page.Items)
	}
}

func TestBusinessFailureSurfacesServerMessage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "username already taken",
		})
	}))

	err := c.Register(context.Background(), RegisterInput{Username: "bob", Password: "password123"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Message != "username already taken" {
		t.Errorf("apiErr = %+v, want 409 with server message", apiErr)
	}
}

func TestGenerateAccessTokenRefreshesStoredIdentity(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "fresh-token", 0)
	}))
	c.Session().Establish(&Identity{ID: "u1", Username: "alice", AccessToken: "old-token"})

	token, err := c.GenerateAccessToken(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if token != "fresh-token" {
		t.Fatalf("token = %q, want fresh-token", token)
	}
	if current := c.Session().Current(); current.AccessToken != "fresh-token" {
		t.Errorf("stored access token = %q, want fresh-token", current.AccessToken)
	}
}

func TestUpdateTokenStatusOnlyOmitsQuotaFields(t *testing.T) {
	var body map[string]json.RawMessage
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeEnvelope(w, http.StatusOK, APIToken{ID: "t1", Name: "forever", Status: 2, UnlimitedQuota: true}, 0)
	}))

	if _, err := c.UpdateToken(context.Background(), UpdateTokenInput{ID: "t1", Status: 2}); err != nil {
		t.Fatal(err)
	}
	if _, present := body["remain_quota"]; present {
		t.Error("status-only update must not send remain_quota")
	}
	if _, present := body["unlimited_quota"]; present {
		t.Error("status-only update must not send unlimited_quota")
	}
}

func TestLogoutClearsSessionEvenWhenServerFails(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, nil, 0)
	}))
	c.Session().Establish(&Identity{ID: "u1", Username: "alice"})

	c.Logout(context.Background())

	if c.Session().IsAuthenticated() {
		t.Error("expected session cleared after logout")
	}
}
