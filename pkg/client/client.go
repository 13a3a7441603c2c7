package client

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const minPasswordLength = 8

// Client is the typed SDK over the account API. All calls flow through the
// shared Gateway, so credential injection and 401 teardown apply uniformly.
type Client struct {
	gateway *Gateway
	store   *SessionStore
}

// Option customizes a Client at construction.
type Option func(*options)

type options struct {
	httpClient *http.Client
	snapshot   Snapshot
	onLost     func()
}

// WithHTTPClient replaces the default HTTP client. A cookie jar is attached
// if the client has none, since the session rides on a cookie.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithSnapshot sets the persistence backend for the session. Defaults to an
// in-memory snapshot that does not survive the process.
func WithSnapshot(s Snapshot) Option {
	return func(o *options) { o.snapshot = s }
}

// WithAuthorizationLostHandler registers a callback fired when a request
// comes back 401 and the session has been torn down.
func WithAuthorizationLostHandler(fn func()) Option {
	return func(o *options) { o.onLost = fn }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	o := options{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		snapshot:   NewMemorySnapshot(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		o.httpClient.Jar = jar
	}

	store := NewSessionStore(o.snapshot)
	gateway := NewGateway(baseURL, o.httpClient, store)
	gateway.OnAuthorizationLost = o.onLost
	return &Client{gateway: gateway, store: store}, nil
}

// Session exposes the store for state queries (Current, IsAuthenticated,
// Loading, Initialized).
func (c *Client) Session() *SessionStore {
	return c.store
}

// Hydrate restores a persisted session and validates it against the server.
// Call once at startup; it never returns an error, it resolves the store.
func (c *Client) Hydrate(ctx context.Context) {
	c.store.Hydrate(ctx, func(ctx context.Context) (*Identity, error) {
		var id Identity
		if _, err := c.gateway.Do(ctx, http.MethodGet, "/api/user/self", nil, &id); err != nil {
			return nil, err
		}
		return &id, nil
	})
}

// RegisterInput is the self-service sign-up payload.
type RegisterInput struct {
	Username string
	Password string
	Email    string
}

// Register creates an account. It does not establish a session; call Login
// after. Local validation failures return ErrValidation without touching the
// network.
func (c *Client) Register(ctx context.Context, in RegisterInput) error {
	if strings.TrimSpace(in.Username) == "" {
		return validationError("username is required")
	}
	if len(in.Password) < minPasswordLength {
		return validationError("password must be at least 8 characters")
	}
	body := map[string]string{"username": in.Username, "password": in.Password}
	if in.Email != "" {
		body["email"] = in.Email
	}
	_, err := c.gateway.Do(ctx, http.MethodPost, "/api/user/register", body, nil)
	return err
}

// Login authenticates and establishes the session: the server sets the
// session cookie on the jar and the returned Identity (access token
// included) is stored and persisted.
func (c *Client) Login(ctx context.Context, username, password string) (*Identity, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, validationError("username and password are required")
	}
	var id Identity
	body := map[string]string{"username": username, "password": password}
	if _, err := c.gateway.Do(ctx, http.MethodPost, "/api/user/login", body, &id); err != nil {
		return nil, err
	}
	c.store.Establish(&id)
	return c.store.Current(), nil
}

// Logout ends the session. The server call is best-effort; the local session
// is cleared regardless.
func (c *Client) Logout(ctx context.Context) {
	c.store.Clear(ctx, func(ctx context.Context) error {
		_, err := c.gateway.Do(ctx, http.MethodGet, "/api/user/logout", nil, nil)
		return err
	})
}

// Self fetches the caller's own record and refreshes the stored session
// with it.
func (c *Client) Self(ctx context.Context) (*Identity, error) {
	var id Identity
	if _, err := c.gateway.Do(ctx, http.MethodGet, "/api/user/self", nil, &id); err != nil {
		return nil, err
	}
	c.store.Refresh(&id)
	return c.store.Current(), nil
}

// UpdateSelfInput carries optional profile edits; zero fields are left
// untouched server-side.
type UpdateSelfInput struct {
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password,omitempty"`
}

// UpdateSelf edits the caller's profile and refreshes the stored session.
func (c *Client) UpdateSelf(ctx context.Context, in UpdateSelfInput) (*Identity, error) {
	if in.Password != "" && len(in.Password) < minPasswordLength {
		return nil, validationError("password must be at least 8 characters")
	}
	var id Identity
	if _, err := c.gateway.Do(ctx, http.MethodPut, "/api/user/self", in, &id); err != nil {
		return nil, err
	}
	c.store.Refresh(&id)
	return c.store.Current(), nil
}

// DeleteSelf removes the caller's account and clears the local session.
func (c *Client) DeleteSelf(ctx context.Context) error {
	if _, err := c.gateway.Do(ctx, http.MethodDelete, "/api/user/self", nil, nil); err != nil {
		return err
	}
	c.store.ClearLocal()
	return nil
}

// GenerateAccessToken mints a fresh personal access token, replacing any
// prior one, and updates the stored Identity so subsequent requests carry it.
func (c *Client) GenerateAccessToken(ctx context.Context) (string, error) {
	var token string
	if _, err := c.gateway.Do(ctx, http.MethodGet, "/api/user/token", nil, &token); err != nil {
		return "", err
	}
	if current := c.store.Current(); current != nil {
		current.AccessToken = token
		c.store.Refresh(current)
	}
	return token, nil
}

// UserPage is one page of user records with pagination bookkeeping.
type UserPage struct {
	Items      []Identity
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// TokenPage is one page of API tokens with pagination bookkeeping.
type TokenPage struct {
	Items      []APIToken
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

func pageQuery(page, pageSize int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	return q
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize
}

// ListUsers returns a page of users. Admin only.
func (c *Client) ListUsers(ctx context.Context, page, pageSize int) (*UserPage, error) {
	return c.userPage(ctx, "/api/user", "", page, pageSize)
}

// SearchUsers returns a page of users matching keyword against username,
// display name and email. Admin only.
func (c *Client) SearchUsers(ctx context.Context, keyword string, page, pageSize int) (*UserPage, error) {
	return c.userPage(ctx, "/api/user/search", keyword, page, pageSize)
}

func (c *Client) userPage(ctx context.Context, path, keyword string, page, pageSize int) (*UserPage, error) {
	page, pageSize = normalizePaging(page, pageSize)
	q := pageQuery(page, pageSize)
	if keyword != "" {
		q.Set("keyword", keyword)
	}
	var items []Identity
	env, err := c.gateway.Get(ctx, path, q, &items)
	if err != nil {
		return nil, err
	}
	return &UserPage{
		Items:      items,
		Total:      env.Total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(env.Total, pageSize),
	}, nil
}

// GetUser fetches one user by id. Admin only.
func (c *Client) GetUser(ctx context.Context, id string) (*Identity, error) {
	var user Identity
	if _, err := c.gateway.Do(ctx, http.MethodGet, "/api/user/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUserInput is the admin account-creation payload.
type CreateUserInput struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        int    `json:"role,omitempty"`
	Status      int    `json:"status,omitempty"`
}

// CreateUser creates an account on behalf of another user. Admin only; the
// server rejects roles at or above the caller's.
func (c *Client) CreateUser(ctx context.Context, in CreateUserInput) (*Identity, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, validationError("username is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationError("password must be at least 8 characters")
	}
	var user Identity
	if _, err := c.gateway.Do(ctx, http.MethodPost, "/api/user", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserInput edits another user's record; zero fields are left
// untouched server-side.
type UpdateUserInput struct {
	ID          string `json:"id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password,omitempty"`
	Role        int    `json:"role,omitempty"`
	Status      int    `json:"status,omitempty"`
}

// UpdateUser edits another user's record. Admin only.
func (c *Client) UpdateUser(ctx context.Context, in UpdateUserInput) (*Identity, error) {
	if in.ID == "" {
		return nil, validationError("user id is required")
	}
	if in.Password != "" && len(in.Password) < minPasswordLength {
		return nil, validationError("password must be at least 8 characters")
	}
	var user Identity
	if _, err := c.gateway.Do(ctx, http.MethodPut, "/api/user", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes another user's account. Admin only.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return validationError("user id is required")
	}
	_, err := c.gateway.Do(ctx, http.MethodDelete, "/api/user/"+url.PathEscape(id), nil, nil)
	return err
}

// ListTokens returns a page of the caller's API tokens.
func (c *Client) ListTokens(ctx context.Context, page, pageSize int) (*TokenPage, error) {
	return c.tokenPage(ctx, "/api/token", "", page, pageSize)
}

// SearchTokens returns a page of the caller's API tokens matching keyword
// against the token name.
func (c *Client) SearchTokens(ctx context.Context, keyword string, page, pageSize int) (*TokenPage, error) {
	return c.tokenPage(ctx, "/api/token/search", keyword, page, pageSize)
}

func (c *Client) tokenPage(ctx context.Context, path, keyword string, page, pageSize int) (*TokenPage, error) {
	page, pageSize = normalizePaging(page, pageSize)
	q := pageQuery(page, pageSize)
	if keyword != "" {
		q.Set("keyword", keyword)
	}
	var items []APIToken
	env, err := c.gateway.Get(ctx, path, q, &items)
	if err != nil {
		return nil, err
	}
	return &TokenPage{
		Items:      items,
		Total:      env.Total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(env.Total, pageSize),
	}, nil
}

// GetToken fetches one of the caller's API tokens by id.
func (c *Client) GetToken(ctx context.Context, id string) (*APIToken, error) {
	var token APIToken
	if _, err := c.gateway.Do(ctx, http.MethodGet, "/api/token/"+url.PathEscape(id), nil, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// CreateTokenInput names a new API token and sets its quota. When
// UnlimitedQuota is set the numeric quota is ignored server-side.
type CreateTokenInput struct {
	Name           string `json:"name"`
	RemainQuota    int64  `json:"remain_quota"`
	UnlimitedQuota bool   `json:"unlimited_quota"`
}

// CreateToken creates an API token owned by the caller.
func (c *Client) CreateToken(ctx context.Context, in CreateTokenInput) (*APIToken, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, validationError("token name is required")
	}
	var token APIToken
	if _, err := c.gateway.Do(ctx, http.MethodPost, "/api/token", in, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// UpdateTokenInput edits an existing API token. Nil quota fields are omitted
// from the request and leave the server-side quota untouched.
type UpdateTokenInput struct {
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	Status         int    `json:"status,omitempty"`
	RemainQuota    *int64 `json:"remain_quota,omitempty"`
	UnlimitedQuota *bool  `json:"unlimited_quota,omitempty"`
}

// UpdateToken edits one of the caller's API tokens.
func (c *Client) UpdateToken(ctx context.Context, in UpdateTokenInput) (*APIToken, error) {
	if in.ID == "" {
		return nil, validationError("token id is required")
	}
	var token APIToken
	if _, err := c.gateway.Do(ctx, http.MethodPut, "/api/token", in, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// DeleteToken removes one of the caller's API tokens.
func (c *Client) DeleteToken(ctx context.Context, id string) error {
	if id == "" {
		return validationError("token id is required")
	}
	_, err := c.gateway.Do(ctx, http.MethodDelete, "/api/token/"+url.PathEscape(id), nil, nil)
	return err
}
