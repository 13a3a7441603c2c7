package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Gateway is the single chokepoint for every backend request. It attaches
// credentials, decodes the response envelope, and centralizes the reaction
// to a lost authorization: one 401 anywhere tears the session down.
type Gateway struct {
	baseURL string
	http    *http.Client
	store   *SessionStore

	// OnAuthorizationLost runs at most once per failing response, after the
	// local session has been cleared. Optional.
	OnAuthorizationLost func()

	lostMu sync.Mutex
}

func NewGateway(baseURL string, httpClient *http.Client, store *SessionStore) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		store:   store,
	}
}

// Do performs an authorized request. The session cookie rides on the
// http.Client's jar; the Authorization header is added iff the current
// Identity carries an access token. body may be nil; out, when non-nil,
// receives the decoded envelope Data.
//
// A 401 response while a session exists clears it, fires
// OnAuthorizationLost, and returns ErrUnauthorized. Any other non-success
// outcome returns *APIError carrying the envelope message.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := g.store.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	// A 401 means the session is gone only if there was one; a rejected
	// login attempt is an ordinary API failure.
	if res.StatusCode == http.StatusUnauthorized && g.store.IsAuthenticated() {
		g.authorizationLost()
		return nil, ErrUnauthorized
	}

	var env Envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if res.StatusCode >= 400 || !env.Success {
		return nil, &APIError{Status: res.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decoding response data: %w", err)
		}
	}
	return &env, nil
}

// Get is Do with query parameters appended to the path.
func (g *Gateway) Get(ctx context.Context, path string, query url.Values, out any) (*Envelope, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return g.Do(ctx, http.MethodGet, path, nil, out)
}

func (g *Gateway) authorizationLost() {
	g.lostMu.Lock()
	defer g.lostMu.Unlock()
	g.store.ClearLocal()
	if g.OnAuthorizationLost != nil {
		g.OnAuthorizationLost()
	}
}
