package marketo

import (
	"context"
	"encoding/json"
	"net/http"

	httpclient "github.com/natserract/mkto/pkg/http"
)

// Marketo error codes for a rejected bearer token.
const (
	codeInvalidToken = "601"
	codeExpiredToken = "602"
)

// RawResponse is an undecoded HTTP response.
type RawResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Executor sends a built request. Implementations return a TransportError
// when no response was received and pass every status code through.
type Executor interface {
	Send(ctx context.Context, req *Request) (*RawResponse, error)
}

type httpExecutor struct {
	client *httpclient.Client
}

// NewHTTPExecutor returns an Executor backed by the transport client.
func NewHTTPExecutor(client *httpclient.Client) Executor {
	return &httpExecutor{client: client}
}

func (e *httpExecutor) Send(ctx context.Context, req *Request) (*RawResponse, error) {
	opts := httpclient.RequestOptions{
		Method:  req.Method,
		URL:     req.URL,
		Headers: req.Headers,
		Context: ctx,
	}
	if len(req.Body) > 0 {
		opts.Body = req.Body
	}

	resp, err := e.client.Do(opts)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: err}
	}
	return &RawResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}

// isAuthFailure reports whether the response rejects the bearer token:
// HTTP 401, or an envelope carrying error 601 or 602.
func isAuthFailure(raw *RawResponse) bool {
	if raw.StatusCode == http.StatusUnauthorized {
		return true
	}
	var env struct {
		Errors []Error `json:"errors"`
	}
	if err := json.Unmarshal(raw.Body, &env); err != nil {
		return false
	}
	for _, e := range env.Errors {
		if e.Code == codeInvalidToken || e.Code == codeExpiredToken {
			return true
		}
	}
	return false
}
