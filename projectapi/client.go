// Package projectapi is the read-side client for the project collaboration
// service: the initial API-specification snapshot and the proposal and
// feature-specification documents that gate automatic generation.
package projectapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/specboard/specboard/document"
)

// maxBodySize limits collaborator response bodies.
const maxBodySize = 16 * 1024 * 1024 // 16MB

// Client calls the project collaboration service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a project service client rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetAPISpec fetches the current API-specification snapshot for a project.
func (c *Client) GetAPISpec(ctx context.Context, projectID string) (document.Document, error) {
	var doc document.Document
	if err := c.getJSON(ctx, c.projectPath(projectID, "api-docs"), &doc); err != nil {
		return document.Document{}, err
	}
	if err := doc.CheckShape(); err != nil {
		return document.Document{}, NewFetchError(fmt.Errorf("api spec payload: %w", err))
	}
	return doc, nil
}

// GetProposal fetches the project proposal document.
func (c *Client) GetProposal(ctx context.Context, projectID string) (*Proposal, error) {
	var p Proposal
	if err := c.getJSON(ctx, c.projectPath(projectID, "proposal"), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetFeatureSpec fetches the feature-specification document.
func (c *Client) GetFeatureSpec(ctx context.Context, projectID string) (*FeatureSpec, error) {
	var f FeatureSpec
	if err := c.getJSON(ctx, c.projectPath(projectID, "feature-spec"), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) projectPath(projectID, resource string) string {
	return fmt.Sprintf("/api/v1/projects/%s/%s", url.PathEscape(projectID), resource)
}

// getJSON performs a GET and decodes the JSON body into out. All transport
// and HTTP failures come back as FetchError.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return NewFetchError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewFetchError(fmt.Errorf("GET %s: %w", path, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return NewFetchError(fmt.Errorf("read %s: %w", path, err))
	}

	if resp.StatusCode != http.StatusOK {
		return NewFetchError(fmt.Errorf("GET %s: status %d", path, resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return NewFetchError(fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
