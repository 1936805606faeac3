package marketo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewClientConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		cfg   *Config
		field string
	}{
		{name: "nil config", cfg: nil},
		{name: "no base url or munchkin", cfg: &Config{ClientID: "id", ClientSecret: "secret"}, field: "BaseURL"},
		{name: "no client id", cfg: &Config{MunchkinID: "123-ABC-456", ClientSecret: "secret"}, field: "ClientID"},
		{name: "no client secret", cfg: &Config{MunchkinID: "123-ABC-456", ClientID: "id"}, field: "ClientSecret"},
		{name: "negative version", cfg: &Config{MunchkinID: "123-ABC-456", ClientID: "id", ClientSecret: "secret", APIVersion: -1}, field: "APIVersion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &spyExecutor{}
			_, err := NewClientWithLogger(tt.cfg, zaptest.NewLogger(t), WithExecutor(exec))
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Empty(t, exec.calls())
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClientWithLogger(&Config{MunchkinID: "123-ABC-456", ClientID: "id", ClientSecret: "secret"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	cfg := client.Config()
	assert.Equal(t, "https://123-ABC-456.mktorest.com", cfg.Host())
	assert.Equal(t, "https://123-ABC-456.mktorest.com/rest/v1", cfg.RootURL(cfg.DefaultRoot()))
	assert.Equal(t, "https://123-ABC-456.mktorest.com/identity/oauth/token", cfg.IdentityURL())
	assert.Equal(t, defaultTimeout, cfg.Timeout)
}

func TestExecuteAttachesToken(t *testing.T) {
	identity := newIdentityServer(t)
	exec := &spyExecutor{}
	client := newTestClient(t, identity, exec)

	res, err := client.Execute(context.Background(), OpGetLead, Args{"id": 123})
	require.NoError(t, err)
	assert.True(t, res.IsSuccess())

	calls := exec.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer tok-1", calls[0].Headers["Authorization"])
	assert.Equal(t, identity.URL+"/rest/v1/leads.json?id=123", calls[0].URL)
}

func TestExecuteRetriesOnceAfterAuthFailure(t *testing.T) {
	tests := []struct {
		name     string
		rejected *RawResponse
	}{
		{name: "http 401", rejected: jsonResponse(http.StatusUnauthorized, `{"success":false}`)},
		{name: "code 601", rejected: jsonResponse(http.StatusOK, `{"success":false,"errors":[{"code":"601","message":"Access token invalid"}]}`)},
		{name: "code 602", rejected: jsonResponse(http.StatusOK, `{"success":false,"errors":[{"code":"602","message":"Access token expired"}]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := newIdentityServer(t)
			exec := &spyExecutor{respond: func(n int, req *Request) (*RawResponse, error) {
				if n == 1 {
					return tt.rejected, nil
				}
				return jsonResponse(http.StatusOK, `{"requestId":"ok","success":true,"result":[{"id":1}]}`), nil
			}}
			client := newTestClient(t, identity, exec)

			res, err := client.Execute(context.Background(), OpGetLead, Args{"id": 1})
			require.NoError(t, err)
			assert.Equal(t, "ok", res.RequestID)

			calls := exec.calls()
			require.Len(t, calls, 2)
			assert.Equal(t, "Bearer tok-1", calls[0].Headers["Authorization"])
			assert.Equal(t, "Bearer tok-2", calls[1].Headers["Authorization"])
			assert.Equal(t, calls[0].URL, calls[1].URL)
			assert.Equal(t, int32(2), identity.grants.Load())
		})
	}
}

func TestExecuteDoesNotRetryTwice(t *testing.T) {
	identity := newIdentityServer(t)
	exec := &spyExecutor{respond: func(int, *Request) (*RawResponse, error) {
		return jsonResponse(http.StatusOK, `{"requestId":"bad","success":false,"errors":[{"code":"601","message":"Access token invalid"}]}`), nil
	}}
	client := newTestClient(t, identity, exec)

	res, err := client.Execute(context.Background(), OpGetLead, Args{"id": 1})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.HasCode("601"))
	require.NotNil(t, res)
	assert.False(t, res.IsSuccess())
	assert.Len(t, exec.calls(), 2)
	assert.Equal(t, int32(2), identity.grants.Load())
}

func TestExecuteUnsuccessfulReturnsResultAndError(t *testing.T) {
	identity := newIdentityServer(t)
	exec := &spyExecutor{respond: func(int, *Request) (*RawResponse, error) {
		return jsonResponse(http.StatusOK, `{"requestId":"co","success":true,"result":[]}`), nil
	}}
	client := newTestClient(t, identity, exec)

	res, err := client.GetCustomObjects(context.Background(), "car_c", "vin", []string{"V1"}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.NotNil(t, res)
	assert.Equal(t, Error{Code: "", Message: "Custom Objects not found"}, *res.Err())
	assert.Equal(t, "co", apiErr.RequestID)
}

func TestExecuteUnknownOperation(t *testing.T) {
	identity := newIdentityServer(t)
	exec := &spyExecutor{}
	client := newTestClient(t, identity, exec)

	_, err := client.Execute(context.Background(), "getUnicorns", nil)
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "getUnicorns", buildErr.Operation)
	assert.Empty(t, exec.calls())
	assert.Equal(t, int32(0), identity.grants.Load())
}

func TestExecuteBuildErrorBeforeNetwork(t *testing.T) {
	identity := newIdentityServer(t)
	exec := &spyExecutor{}
	client := newTestClient(t, identity, exec)

	_, err := client.ImportLeads(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), ImportOptions{})
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Empty(t, exec.calls())
	assert.Equal(t, int32(0), identity.grants.Load())
}

func TestExecuteTransportError(t *testing.T) {
	identity := newIdentityServer(t)
	cause := errors.New("connection reset by peer")
	exec := &spyExecutor{respond: func(int, *Request) (*RawResponse, error) {
		return nil, &TransportError{Method: "GET", URL: "x", Err: cause}
	}}
	client := newTestClient(t, identity, exec)

	_, err := client.Execute(context.Background(), OpDescribeLeads, nil)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, cause)
}

func TestExecuteAuthErrorSurfaces(t *testing.T) {
	identity := newIdentityServer(t)
	identity.status = http.StatusUnauthorized
	identity.body = `{"error":"unauthorized"}`
	exec := &spyExecutor{}
	client := newTestClient(t, identity, exec)

	_, err := client.Execute(context.Background(), OpDescribeLeads, nil)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Empty(t, exec.calls())
}

func TestExecuteRaw(t *testing.T) {
	identity := newIdentityServer(t)
	exec := &spyExecutor{respond: func(int, *Request) (*RawResponse, error) {
		return &RawResponse{StatusCode: http.StatusOK, Body: []byte("email,reason\nx@example.com,invalid\n")}, nil
	}}
	client := newTestClient(t, identity, exec)

	body, err := client.ImportLeadsFailures(context.Background(), 1001)
	require.NoError(t, err)
	assert.Equal(t, "email,reason\nx@example.com,invalid\n", string(body))

	body, err = client.ExecuteRaw(context.Background(), OpGetLead, Args{"id": 1})
	require.NoError(t, err)
	assert.Contains(t, string(body), "invalid")
}

func TestExecuteWithRepeatedKeysOption(t *testing.T) {
	identity := newIdentityServer(t)
	exec := &spyExecutor{}
	client := newTestClient(t, identity, exec)

	_, err := client.Execute(context.Background(), OpGetLeadsByListID,
		Args{"listId": 7, "segment": []int{1, 2}}, WithRepeatedKeys("segment"))
	require.NoError(t, err)

	calls := exec.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, identity.URL+"/rest/v1/list/7/leads.json?segment=1&segment=2", calls[0].URL)

	op, ok := client.Catalog().Lookup(OpGetLeadsByListID)
	require.True(t, ok)
	assert.False(t, op.UsesRepeatedKeys("segment"))
}

func TestExecuteOverHTTP(t *testing.T) {
	var apiCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"live","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/bulk/v1/leads.json", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer live", r.Header.Get("Authorization"))
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		assert.Equal(t, "leads.csv", header.Filename)
		assert.Equal(t, "csv", r.FormValue("format"))
		fmt.Fprint(w, `{"requestId":"b1","success":true,"result":[{"batchId":1001,"status":"Queued"}]}`)
	})
	mux.HandleFunc("/rest/v1/leads/describe.json", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `<html>oops</html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClientWithLogger(testConfig(server.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte("email\na@example.com\n"), 0o600))

	batch, err := client.ImportLeadsBatch(context.Background(), path, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1001, batch.BatchID)
	assert.Equal(t, ImportQueued, batch.Status)

	_, err = client.DescribeLeads(context.Background())
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, http.StatusInternalServerError, decodeErr.StatusCode)
	assert.Equal(t, int32(2), apiCalls.Load())
}

func TestExecuteConcurrentCallsAfterExpiryShareOneGrant(t *testing.T) {
	identity := newIdentityServer(t)
	exec := &spyExecutor{}
	client := newTestClient(t, identity, exec)

	var mu sync.Mutex
	now := time.Now()
	client.Tokens().now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	_, err := client.Execute(context.Background(), OpDescribeLeads, nil)
	require.NoError(t, err)
	require.Equal(t, int32(1), identity.grants.Load())

	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	const callers = 20
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Execute(context.Background(), OpGetLead, Args{"id": i + 1})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(2), identity.grants.Load())

	calls := exec.calls()
	require.Len(t, calls, callers+1)
	for _, req := range calls[1:] {
		assert.Equal(t, "Bearer tok-2", req.Headers["Authorization"])
	}
}
