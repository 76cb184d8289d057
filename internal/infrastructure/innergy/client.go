// Package innergy implements the project importer against the Innergy REST API.
package innergy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/integration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// maxResponseSize is the maximum allowed response size from the API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client implements integration.ProjectImporter over HTTP
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client with the given configuration
func NewClient(config *Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("innergy")
	return c, nil
}

// NewFactory returns an importer factory producing clients with the given
// timeout and logger
func NewFactory(timeoutSeconds int, logger *zap.Logger) integration.ImporterFactory {
	return func(apiKey, baseURL string) (integration.ProjectImporter, error) {
		cfg := NewConfig(apiKey, baseURL)
		cfg.TimeoutSeconds = timeoutSeconds
		client, err := NewClient(cfg, WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", integration.ErrImporterNotConfigured, err)
		}
		return client, nil
	}
}

// ListProjects returns the active remote projects. The API answers either
// with a bare array or with an object carrying an Items array.
func (c *Client) ListProjects(ctx context.Context) ([]integration.RemoteProject, error) {
	body, _, err := c.get(ctx, "/api/projects")
	if err != nil {
		return nil, err
	}

	items, err := decodeList(body)
	if err != nil {
		return nil, shared.NewTransportError("invalid project list", err)
	}

	projects := make([]integration.RemoteProject, 0, len(items))
	for _, item := range items {
		rp := integration.RemoteProjectFromPayload(item)
		if !integration.IsActive(rp.Status) {
			continue
		}
		projects = append(projects, rp)
	}
	c.logger.Debug("Listed remote projects", zap.Int("total", len(items)), zap.Int("active", len(projects)))
	return projects, nil
}

// FetchProject returns the raw project document
func (c *Client) FetchProject(ctx context.Context, id string) (integration.RawPayload, error) {
	body, status, err := c.get(ctx, "/api/projects/"+url.PathEscape(id))
	if err != nil {
		if status == http.StatusNotFound {
			return nil, shared.NewTransportError("remote project "+id, integration.ErrRemoteProjectNotFound)
		}
		return nil, err
	}
	payload, err := decodeObject(body)
	if err != nil {
		return nil, shared.NewTransportError("invalid project document", err)
	}
	if payload == nil {
		return nil, shared.NewTransportError("remote project "+id, integration.ErrRemoteProjectNotFound)
	}
	return payload, nil
}

// FetchProducts returns the raw products document, or nil when the project
// has none. A bare array is wrapped under Items.
func (c *Client) FetchProducts(ctx context.Context, id string) (integration.RawPayload, error) {
	body, status, err := c.get(ctx, "/api/projects/"+url.PathEscape(id)+"/products")
	if err != nil {
		if status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	trimmed := bytes.TrimSpace(body)
	if trimmed[0] == '[' {
		var items []any
		if err := decodeJSON(trimmed, &items); err != nil {
			return nil, shared.NewTransportError("invalid products document", err)
		}
		return integration.RawPayload{"Items": items}, nil
	}
	payload, err := decodeObject(trimmed)
	if err != nil {
		return nil, shared.NewTransportError("invalid products document", err)
	}
	return payload, nil
}

// get performs an authenticated GET and returns the body of a 2xx response.
// The status code is returned alongside errors for HTTP failures.
func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	endpoint := c.config.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("innergy: failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Request failed", zap.String("path", path), zap.Error(err))
		return nil, 0, shared.NewTransportError("innergy request failed", fmt.Errorf("%w: %v", integration.ErrImporterRequestFailed, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, shared.NewTransportError("failed to read innergy response", err)
	}
	c.logger.Debug("Request completed",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, resp.StatusCode, shared.NewTransportError("innergy rejected credentials",
			fmt.Errorf("%w: HTTP %d", integration.ErrImporterAuthFailed, resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, resp.StatusCode, shared.NewTransportError("innergy request failed",
			fmt.Errorf("%w: HTTP %d", integration.ErrImporterRequestFailed, resp.StatusCode))
	}
	return body, resp.StatusCode, nil
}

func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrImporterInvalidResponse, err)
	}
	return nil
}

func decodeObject(body []byte) (integration.RawPayload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var payload integration.RawPayload
	if err := decodeJSON(body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func decodeList(body []byte) ([]integration.RawPayload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []any
		if err := decodeJSON(trimmed, &items); err != nil {
			return nil, err
		}
		return integration.RawPayload{"Items": items}.List("Items"), nil
	}
	payload, err := decodeObject(trimmed)
	if err != nil {
		return nil, err
	}
	items := payload.List("Items", "Projects", "Data")
	if items == nil {
		return nil, errors.New("innergy: project list has no items")
	}
	return items, nil
}

var _ integration.ProjectImporter = (*Client)(nil)
