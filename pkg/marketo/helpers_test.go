package marketo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// identityServer hands out tok-1, tok-2, ... and counts grants.
type identityServer struct {
	*httptest.Server
	grants    atomic.Int32
	expiresIn int
	status    int
	body      string
}

func newIdentityServer(t *testing.T) *identityServer {
	t.Helper()
	s := &identityServer{expiresIn: 3600}
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		n := s.grants.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if s.status != 0 {
			w.WriteHeader(s.status)
			_, _ = w.Write([]byte(s.body))
			return
		}
		if s.body != "" {
			_, _ = w.Write([]byte(s.body))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": fmt.Sprintf("tok-%d", n),
			"token_type":   "bearer",
			"expires_in":   s.expiresIn,
			"scope":        "api@example.com",
		})
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// spyExecutor records every request and answers from respond.
type spyExecutor struct {
	mu       sync.Mutex
	requests []*Request
	respond  func(n int, req *Request) (*RawResponse, error)
}

func (s *spyExecutor) Send(_ context.Context, req *Request) (*RawResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	n := len(s.requests)
	s.mu.Unlock()
	if s.respond == nil {
		return jsonResponse(http.StatusOK, `{"requestId":"r1","success":true,"result":[]}`), nil
	}
	return s.respond(n, req)
}

func (s *spyExecutor) calls() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Request(nil), s.requests...)
}

func jsonResponse(status int, body string) *RawResponse {
	return &RawResponse{
		StatusCode: status,
		Headers:    http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(body),
	}
}

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:      baseURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}
}

func newTestClient(t *testing.T, identity *identityServer, exec Executor) *Client {
	t.Helper()
	opts := []Option{}
	if exec != nil {
		opts = append(opts, WithExecutor(exec))
	}
	client, err := NewClientWithLogger(testConfig(identity.URL), zaptest.NewLogger(t), opts...)
	require.NoError(t, err)
	return client
}

func lookup(t *testing.T, name string) Operation {
	t.Helper()
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	op, ok := catalog.Lookup(name)
	require.True(t, ok, "operation %s not in catalog", name)
	return op
}
