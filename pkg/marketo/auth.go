package marketo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	httpclient "github.com/natserract/mkto/pkg/http"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// maxExpirySkew is how long before the reported expiry a token is treated
// as expired.
const maxExpirySkew = 30 * time.Second

// AuthToken is a bearer token and the instant it stops being usable.
type AuthToken struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token is set and unexpired at now.
func (t AuthToken) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// AuthResponse represents the OAuth token response
type AuthResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        *int   `json:"expires_in"`
	Scope            string `json:"scope"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// TokenProvider owns the cached bearer token. Concurrent callers that find
// the token missing or expired share a single grant request.
type TokenProvider struct {
	config     *Config
	httpClient *httpclient.Client
	logger     *zap.Logger
	now        func() time.Time

	mu    sync.RWMutex
	token AuthToken
	group singleflight.Group
}

// NewTokenProvider creates a provider that grants against cfg's identity
// endpoint using httpClient.
func NewTokenProvider(cfg *Config, httpClient *httpclient.Client, logger *zap.Logger) *TokenProvider {
	return &TokenProvider{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

func (p *TokenProvider) cached() (AuthToken, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.token.Valid(p.now()) {
		return p.token, true
	}
	return AuthToken{}, false
}

// Token returns the cached token if it is still valid, otherwise performs
// a client-credentials grant and caches the result.
func (p *TokenProvider) Token(ctx context.Context) (AuthToken, error) {
	if tok, ok := p.cached(); ok {
		p.logger.Debug("Using cached access token", zap.Duration("remaining", tok.ExpiresAt.Sub(p.now())))
		return tok, nil
	}

	// One caller's cancellation must not fail the others waiting on the
	// same grant; the HTTP client timeout still bounds it.
	grantCtx := context.WithoutCancel(ctx)
	v, err, shared := p.group.Do("token", func() (interface{}, error) {
		if tok, ok := p.cached(); ok {
			return tok, nil
		}

		p.logger.Info("Access token expired or not available, authenticating")
		authResp, err := p.Authenticate(grantCtx)
		if err != nil {
			return nil, err
		}

		expiresIn := time.Duration(*authResp.ExpiresIn) * time.Second
		skew := maxExpirySkew
		if expiresIn/2 < skew {
			skew = expiresIn / 2
		}

		tok := AuthToken{
			Value:     authResp.AccessToken,
			ExpiresAt: p.now().Add(expiresIn - skew),
		}

		p.mu.Lock()
		p.token = tok
		p.mu.Unlock()

		p.logger.Info("Successfully authenticated and cached access token",
			zap.Duration("expires_in", expiresIn),
			zap.Time("expires_at", tok.ExpiresAt))
		return tok, nil
	})
	if err != nil {
		p.logger.Error("Failed to authenticate", zap.Error(err), zap.Bool("shared", shared))
		return AuthToken{}, err
	}
	return v.(AuthToken), nil
}

// Invalidate drops the cached token if it is still stale. A token that has
// already been replaced by a concurrent refresh is left alone, so several
// callers rejected with the same token trigger one refresh between them.
func (p *TokenProvider) Invalidate(stale string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token.Value == "" || p.token.Value != stale {
		return false
	}
	p.token = AuthToken{}
	p.logger.Info("Invalidated rejected access token")
	return true
}

// Authenticate performs one client-credentials grant without touching the
// cache.
func (p *TokenProvider) Authenticate(ctx context.Context) (*AuthResponse, error) {
	endpoint := p.config.IdentityURL()
	p.logger.Info("Authenticating with Marketo", zap.String("url", endpoint))

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
	}
	headers := map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	}

	resp, err := p.httpClient.Post(ctx, endpoint, headers, form)
	if err != nil {
		p.logger.Error("Authentication request failed", zap.Error(err), zap.String("url", endpoint))
		return nil, &AuthError{Msg: "grant request failed", Err: err}
	}

	var authResp AuthResponse
	parseErr := json.Unmarshal(resp.Body, &authResp)

	if !resp.IsSuccess() {
		p.logger.Error("Authentication failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(resp.Body)))
		msg := "grant rejected"
		if parseErr == nil && authResp.Error != "" {
			msg = fmt.Sprintf("grant rejected: %s %s", authResp.Error, authResp.ErrorDescription)
		}
		return nil, &AuthError{StatusCode: resp.StatusCode, Body: string(resp.Body), Msg: msg}
	}

	if parseErr != nil {
		p.logger.Error("Failed to parse authentication response", zap.Error(parseErr))
		return nil, &AuthError{StatusCode: resp.StatusCode, Msg: "malformed grant response", Err: parseErr}
	}
	if authResp.AccessToken == "" {
		return nil, &AuthError{StatusCode: resp.StatusCode, Msg: "grant response missing access_token"}
	}
	if authResp.ExpiresIn == nil {
		return nil, &AuthError{StatusCode: resp.StatusCode, Msg: "grant response missing expires_in"}
	}

	p.logger.Info("Successfully authenticated",
		zap.String("token_type", authResp.TokenType),
		zap.Int("expires_in", *authResp.ExpiresIn))

	return &authResp, nil
}
