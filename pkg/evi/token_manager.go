package evi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenManager exchanges an API key and secret key for access tokens using
// the client credentials grant and caches them until shortly before expiry.
type TokenManager struct {
	endpoint      string
	apiKey        string
	secretKey     string
	refreshBuffer float64
	httpClient    *http.Client
	now           func() time.Time

	mu    sync.Mutex
	token *AccessToken
}

func NewTokenManager(endpoint, apiKey, secretKey string, refreshBuffer float64) *TokenManager {
	if endpoint == "" {
		endpoint = DefaultAuthEndpoint
	}
	return &TokenManager{
		endpoint:      endpoint,
		apiKey:        apiKey,
		secretKey:     secretKey,
		refreshBuffer: refreshBuffer,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		now:           time.Now,
	}
}

// GetToken returns the cached token or fetches a new one when the cached one
// expires within the refresh buffer.
func (tm *TokenManager) GetToken(ctx context.Context) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.token != nil {
		refreshAt := time.UnixMilli(tm.token.ExpiresAt).Add(-time.Duration(tm.refreshBuffer * float64(time.Second)))
		if tm.now().Before(refreshAt) {
			return tm.token.Token, nil
		}
	}

	token, err := tm.refreshToken(ctx)
	if err != nil {
		return "", err
	}
	tm.token = token
	return token.Token, nil
}

type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   float64 `json:"expires_in"`
	TokenType   string  `json:"token_type"`
}

func (tm *TokenManager) refreshToken(ctx context.Context) (*AccessToken, error) {
	if tm.apiKey == "" || tm.secretKey == "" {
		return nil, NewAuthError("api key and secret key are required for token auth")
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tm.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, WrapError(err, "failed to build token request", ErrCodeConfigInvalid)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(tm.apiKey, tm.secretKey)

	resp, err := tm.httpClient.Do(req)
	if err != nil {
		return nil, WrapError(err, "token request failed", ErrCodeConnectionFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewAuthError(fmt.Sprintf("failed to refresh token: %s", resp.Status)).
			AddDetail("status_code", resp.StatusCode)
	}

	var data tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, WrapError(err, "failed to decode token response", ErrCodeJSONParse)
	}
	if data.AccessToken == "" {
		return nil, NewAuthError("no token received")
	}

	expiresAt, ok := tokenExpiry(data.AccessToken)
	if !ok {
		if data.ExpiresIn <= 0 {
			return nil, NewTokenError("token response carries no expiry")
		}
		expiresAt = tm.now().Add(time.Duration(data.ExpiresIn * float64(time.Second)))
	}

	return &AccessToken{Token: data.AccessToken, ExpiresAt: expiresAt.UnixMilli()}, nil
}

// tokenExpiry reads the exp claim of a JWT access token without verifying
// it; the server already authenticated us.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(int64(exp), 0), true
}

func (tm *TokenManager) Clear() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.token = nil
}

// GetTokenInfo returns the cached token and its expiry in Unix milliseconds.
func (tm *TokenManager) GetTokenInfo() (*string, *int64) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.token == nil {
		return nil, nil
	}
	token, expires := tm.token.Token, tm.token.ExpiresAt
	return &token, &expires
}

// IsTokenExpired reports whether token has passed its expiry.
func IsTokenExpired(token *AccessToken) bool {
	return time.Now().UnixMilli() > token.ExpiresAt
}
