package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Client sends single HTTP requests and hands back the status, headers and
// body without interpreting the status code. Retrying is left to callers.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request made by the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying net/http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

type RequestOptions struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    interface{}
	Context context.Context
}

type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func NewClient(opts ...Option) *Client {
	logger, _ := zap.NewProduction()
	return NewClientWithLogger(logger, opts...)
}

// NewClientWithLogger creates a new HTTP client with a custom logger
func NewClientWithLogger(logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the per-request timeout of the underlying client.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Do sends the request once. A non-nil error means no response was
// received (connection, DNS or timeout failure); any status code is
// returned as a Response.
func (c *Client) Do(opts RequestOptions) (*Response, error) {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := c.buildRequest(ctx, opts)
	if err != nil {
		c.logger.Error("Failed to build request", zap.Error(err), zap.String("method", opts.Method), zap.String("url", redactURL(opts.URL)))
		return nil, err
	}

	c.logger.Debug("Making HTTP request",
		zap.String("method", opts.Method),
		zap.String("url", redactURL(opts.URL)))

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed",
			zap.Error(err),
			zap.String("method", opts.Method),
			zap.String("url", redactURL(opts.URL)))
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.logger.Error("Failed to read response body", zap.Error(err))
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}

	c.logger.Debug("HTTP request completed",
		zap.Int("status_code", resp.StatusCode),
		zap.String("method", opts.Method),
		zap.String("url", redactURL(opts.URL)))

	return resp, nil
}

func (c *Client) buildRequest(ctx context.Context, opts RequestOptions) (*http.Request, error) {
	var bodyReader io.Reader
	if opts.Body != nil {
		switch v := opts.Body.(type) {
		case []byte:
			bodyReader = bytes.NewReader(v)
		case io.Reader:
			bodyReader = v
		default:
			// If Content-Type explicitly requests form encoding, honor it.
			contentType := opts.Headers["Content-Type"]
			if contentType == "" {
				contentType = opts.Headers["content-type"]
			}

			if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
				form, err := toForm(opts.Body)
				if err != nil {
					return nil, err
				}
				bodyReader = strings.NewReader(form.Encode())
			} else {
				bodyJSON, err := json.Marshal(opts.Body)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal request body: %w", err)
				}
				bodyReader = bytes.NewReader(bodyJSON)
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set default headers
	if opts.Body != nil && opts.Headers["Content-Type"] == "" && opts.Headers["content-type"] == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	// Set custom headers
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

func toForm(body interface{}) (url.Values, error) {
	form := url.Values{}
	switch v := body.(type) {
	case url.Values:
		return v, nil
	case map[string]string:
		for k, val := range v {
			form.Set(k, val)
		}
	case map[string]interface{}:
		for k, val := range v {
			if val == nil {
				continue
			}
			form.Set(k, fmt.Sprint(val))
		}
	default:
		// Convert structs (or other JSON-marshalable types) into a map first.
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		var m map[string]interface{}
		if err := json.Unmarshal(bodyJSON, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal request body: %w", err)
		}
		for k, val := range m {
			if val == nil {
				continue
			}
			form.Set(k, fmt.Sprint(val))
		}
	}
	return form, nil
}

func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.Do(RequestOptions{
		Method:  http.MethodGet,
		URL:     url,
		Headers: headers,
		Context: ctx,
	})
}

func (c *Client) Post(ctx context.Context, url string, headers map[string]string, body interface{}) (*Response, error) {
	return c.Do(RequestOptions{
		Method:  http.MethodPost,
		URL:     url,
		Headers: headers,
		Body:    body,
		Context: ctx,
	})
}
