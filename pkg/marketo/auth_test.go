package marketo

import (
	"context"
	"sync"
	"testing"
	"time"

	httpclient "github.com/natserract/mkto/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestProvider(t *testing.T, identity *identityServer) *TokenProvider {
	t.Helper()
	cfg := testConfig(identity.URL)
	require.NoError(t, cfg.Validate())
	logger := zaptest.NewLogger(t)
	return NewTokenProvider(cfg, httpclient.NewClientWithLogger(logger, httpclient.WithTimeout(5*time.Second)), logger)
}

func TestTokenCachedUntilExpiry(t *testing.T) {
	identity := newIdentityServer(t)
	provider := newTestProvider(t, identity)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	provider.now = func() time.Time { return now }

	tok, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.Value)
	assert.Equal(t, now.Add(3600*time.Second-maxExpirySkew), tok.ExpiresAt)

	tok, err = provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.Value)
	assert.Equal(t, int32(1), identity.grants.Load())

	now = now.Add(time.Hour)
	tok, err = provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok.Value)
	assert.Equal(t, int32(2), identity.grants.Load())
}

func TestTokenShortLifetimeSkew(t *testing.T) {
	identity := newIdentityServer(t)
	identity.expiresIn = 20
	provider := newTestProvider(t, identity)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	provider.now = func() time.Time { return now }

	tok, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(10*time.Second), tok.ExpiresAt)
}

func TestTokenConcurrentCallersShareOneGrant(t *testing.T) {
	identity := newIdentityServer(t)
	provider := newTestProvider(t, identity)

	const callers = 25
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			tok, err := provider.Token(context.Background())
			tokens[i] = tok.Value
			errs[i] = err
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-1", tokens[i])
	}
	assert.Equal(t, int32(1), identity.grants.Load())
}

func TestTokenInvalidate(t *testing.T) {
	identity := newIdentityServer(t)
	provider := newTestProvider(t, identity)

	tok, err := provider.Token(context.Background())
	require.NoError(t, err)

	assert.False(t, provider.Invalidate("some-other-token"))
	assert.True(t, provider.Invalidate(tok.Value))
	assert.False(t, provider.Invalidate(tok.Value))

	tok, err = provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok.Value)
}

func TestAuthenticateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		msg    string
	}{
		{
			name:   "rejected credentials",
			status: 401,
			body:   `{"error":"unauthorized","error_description":"Bad client credentials"}`,
			msg:    "Bad client credentials",
		},
		{
			name: "malformed json",
			body: `not json`,
			msg:  "malformed grant response",
		},
		{
			name: "missing access token",
			body: `{"token_type":"bearer","expires_in":3600}`,
			msg:  "missing access_token",
		},
		{
			name: "missing expiry",
			body: `{"access_token":"abc","token_type":"bearer"}`,
			msg:  "missing expires_in",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := newIdentityServer(t)
			identity.status = tt.status
			identity.body = tt.body
			provider := newTestProvider(t, identity)

			_, err := provider.Token(context.Background())
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Contains(t, authErr.Error(), tt.msg)
			if tt.status != 0 {
				assert.Equal(t, tt.status, authErr.StatusCode)
			}

			_, cached := provider.cached()
			assert.False(t, cached)
		})
	}
}

func TestAuthenticateTransportFailure(t *testing.T) {
	identity := newIdentityServer(t)
	provider := newTestProvider(t, identity)
	identity.Close()

	_, err := provider.Token(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Error(t, authErr.Unwrap())
}
