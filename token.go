package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// expiryMargin refreshes slightly early so a token never expires mid-request.
const expiryMargin = 60 * time.Second

// fallbackTokenTTL is used when the grant response omits expires_in. Zoho
// tokens live an hour; 50 minutes is the conservative window.
const fallbackTokenTTL = 50 * time.Minute

// TokenManager owns the OAuth access token for the whole process. All callers
// share one cached token; when it expires, exactly one refresh-token grant is
// in flight at a time and concurrent callers wait for its result.
type TokenManager struct {
	accountsURL  string // e.g. https://accounts.zoho.in
	clientID     string
	clientSecret string
	refreshToken string
	httpClient   *http.Client

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	refresh singleflight.Group
}

func NewTokenManager(cfg Config) *TokenManager {
	return &TokenManager{
		accountsURL:  strings.TrimRight(cfg.ZohoAccountsURL, "/"),
		clientID:     cfg.ZohoClientID,
		clientSecret: cfg.ZohoClientSecret,
		refreshToken: cfg.ZohoRefreshToken,
		httpClient:   zohoHTTPClient,
	}
}

// Token returns a valid access token, refreshing first if the cached one is
// missing or within the expiry margin.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	tok, exp := m.token, m.expiresAt
	m.mu.RUnlock()

	if tok != "" && time.Now().Before(exp.Add(-expiryMargin)) {
		return tok, nil
	}

	v, err, _ := m.refresh.Do("token", func() (interface{}, error) {
		// Another caller may have refreshed while we waited on the group.
		m.mu.RLock()
		tok, exp := m.token, m.expiresAt
		m.mu.RUnlock()
		if tok != "" && time.Now().Before(exp.Add(-expiryMargin)) {
			return tok, nil
		}
		return m.grant(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token, but only if it is still the one the
// caller saw rejected. A token refreshed in the meantime stays cached.
func (m *TokenManager) Invalidate(rejected string) {
	m.mu.Lock()
	if m.token == rejected {
		m.token = ""
		m.expiresAt = time.Time{}
	}
	m.mu.Unlock()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// grant performs the refresh-token exchange and caches the result.
func (m *TokenManager) grant(ctx context.Context) (string, error) {
	form := url.Values{
		"refresh_token": {m.refreshToken},
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.accountsURL+"/oauth/v2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthError{Detail: fmt.Sprintf("creating grant request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Detail: fmt.Sprintf("executing grant request: %v", err)}
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", &AuthError{Detail: fmt.Sprintf("reading grant response: %v", err)}
	}

	if resp.StatusCode != 200 {
		return "", &AuthError{StatusCode: resp.StatusCode, Detail: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", &AuthError{Detail: fmt.Sprintf("parsing grant response: %v", err)}
	}
	if tr.AccessToken == "" {
		detail := tr.Error
		if detail == "" {
			detail = "grant response missing access_token"
		}
		return "", &AuthError{StatusCode: resp.StatusCode, Detail: detail}
	}

	ttl := fallbackTokenTTL
	if tr.ExpiresIn > 0 {
		ttl = time.Duration(tr.ExpiresIn) * time.Second
	}

	m.mu.Lock()
	m.token = tr.AccessToken
	m.expiresAt = time.Now().Add(ttl)
	m.mu.Unlock()

	log.Printf("token refreshed, valid for %s", ttl)
	return tr.AccessToken, nil
}
