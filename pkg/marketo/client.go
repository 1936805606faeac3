// Package marketo provides a client for the Marketo Engage REST API.
//
// Marketo Engage is Adobe's marketing automation platform. Its REST API
// exposes leads, static lists, smart campaigns, activities, custom objects,
// companies, opportunities, sales persons, named accounts, bulk lead import
// and email assets behind a common JSON envelope:
//
//	{"requestId": "...", "success": true, "result": [...], "errors": [...]}
//
// Every call is described by an entry in an operation catalog (see
// catalog.yaml) that maps an operation name to its HTTP method, path
// template and parameter placement. The client resolves the entry, builds
// the request, attaches an OAuth2 bearer token obtained with the
// client-credentials grant, sends it, and interprets the envelope with the
// operation's response rule. Some rules are stricter than the vendor's own
// success flag: a custom object lookup that matches nothing is reported as
// unsuccessful even though Marketo answers success=true.
package marketo

import (
	httpclient "github.com/natserract/mkto/pkg/http"
	"go.uber.org/zap"
)

// Client is the main client for interacting with the Marketo API
type Client struct {
	config   *Config
	catalog  *Catalog
	builder  *RequestBuilder
	decoder  *ResponseDecoder
	executor Executor
	tokens   *TokenProvider
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCatalog replaces the embedded operation catalog.
func WithCatalog(catalog *Catalog) Option {
	return func(c *Client) {
		if catalog != nil {
			c.catalog = catalog
		}
	}
}

// WithExecutor replaces the HTTP executor used for API calls. Grant
// requests still go through the client's own transport.
func WithExecutor(executor Executor) Option {
	return func(c *Client) {
		if executor != nil {
			c.executor = executor
		}
	}
}

// NewClient creates a new Marketo client with default production logger
func NewClient(cfg *Config, opts ...Option) (*Client, error) {
	logger, _ := zap.NewProduction()
	return NewClientWithLogger(cfg, logger, opts...)
}

// NewClientWithLogger creates a new Marketo client with a custom logger.
// It fails with a ConfigError before any network access when cfg is
// incomplete.
func NewClientWithLogger(cfg *Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, &ConfigError{Msg: "config is required"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config := *cfg
	if err := config.Validate(); err != nil {
		logger.Error("Invalid Marketo config", zap.Error(err))
		return nil, err
	}

	catalog, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}

	httpClient := httpclient.NewClientWithLogger(logger, httpclient.WithTimeout(config.Timeout))
	c := &Client{
		config:   &config,
		catalog:  catalog,
		builder:  NewRequestBuilder(&config),
		decoder:  NewResponseDecoder(),
		executor: NewHTTPExecutor(httpClient),
		tokens:   NewTokenProvider(&config, httpClient, logger),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	logger.Info("Created Marketo client",
		zap.String("host", config.Host()),
		zap.String("root", config.RootURL(config.DefaultRoot())))
	return c, nil
}

// Config returns a copy of the validated config.
func (c *Client) Config() Config {
	return *c.config
}

// Catalog returns the operation catalog in use.
func (c *Client) Catalog() *Catalog {
	return c.catalog
}

// Tokens returns the client's token provider.
func (c *Client) Tokens() *TokenProvider {
	return c.tokens
}
