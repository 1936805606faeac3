package marketo

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultAPIVersion   = 1
	defaultTimeout      = 30 * time.Second
	defaultIdentityPath = "/identity/oauth/token"
	vendorDomain        = "mktorest.com"
)

// Config holds everything needed to construct a Client.
type Config struct {
	// BaseURL is the instance root, e.g. https://123-ABC-456.mktorest.com.
	// When empty it is derived from MunchkinID.
	BaseURL      string
	MunchkinID   string
	ClientID     string
	ClientSecret string
	// APIVersion selects /rest/v<n> or /bulk/v<n>. Zero means 1.
	APIVersion int
	// UseBulkEndpoint roots operations at /bulk instead of /rest.
	UseBulkEndpoint bool
	// Timeout bounds both grant and API requests. Zero means 30s.
	Timeout time.Duration
	// IdentityPath is the OAuth2 token path relative to the base URL.
	IdentityPath string
}

// Validate checks the required fields and fills in defaults.
func (c *Config) Validate() error {
	if c.BaseURL == "" && c.MunchkinID == "" {
		return &ConfigError{Field: "BaseURL", Msg: "base URL or munchkin id is required"}
	}
	if c.ClientID == "" {
		return &ConfigError{Field: "ClientID", Msg: "client id is required"}
	}
	if c.ClientSecret == "" {
		return &ConfigError{Field: "ClientSecret", Msg: "client secret is required"}
	}
	if c.APIVersion < 0 {
		return &ConfigError{Field: "APIVersion", Msg: fmt.Sprintf("invalid api version %d", c.APIVersion)}
	}
	if c.APIVersion == 0 {
		c.APIVersion = defaultAPIVersion
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.IdentityPath == "" {
		c.IdentityPath = defaultIdentityPath
	}
	return nil
}

// Host returns the instance root without a trailing slash.
func (c *Config) Host() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return fmt.Sprintf("https://%s.%s", c.MunchkinID, vendorDomain)
}

// RootURL returns the API root for the given endpoint kind.
func (c *Config) RootURL(root Root) string {
	version := c.APIVersion
	if version == 0 {
		version = defaultAPIVersion
	}
	if root == RootAsset {
		return fmt.Sprintf("%s/rest/asset/v%d", c.Host(), version)
	}
	return fmt.Sprintf("%s/%s/v%d", c.Host(), root, version)
}

// DefaultRoot is the endpoint kind operations use unless their catalog
// entry pins one.
func (c *Config) DefaultRoot() Root {
	if c.UseBulkEndpoint {
		return RootBulk
	}
	return RootREST
}

// IdentityURL returns the OAuth2 grant endpoint.
func (c *Config) IdentityURL() string {
	path := c.IdentityPath
	if path == "" {
		path = defaultIdentityPath
	}
	return c.Host() + "/" + strings.TrimLeft(path, "/")
}
