package innergy

import (
	"errors"
	"net/url"
	"strings"
)

// DefaultTimeoutSeconds is used when no timeout is configured
const DefaultTimeoutSeconds = 30

// Errors for Innergy configuration
var (
	ErrConfigMissingAPIKey  = errors.New("innergy: api key is required")
	ErrConfigMissingBaseURL = errors.New("innergy: base url is required")
	ErrConfigInvalidBaseURL = errors.New("innergy: base url must be absolute")
)

// Config holds configuration for the Innergy API
type Config struct {
	// APIKey is sent in the Api-Key header
	APIKey string
	// BaseURL is the API root, without the /api suffix
	BaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// NewConfig creates a configuration with defaults
func NewConfig(apiKey, baseURL string) *Config {
	return &Config{
		APIKey:         apiKey,
		BaseURL:        baseURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrConfigInvalidBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return nil
}
