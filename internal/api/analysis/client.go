// Package analysis provides the HTTP client for the remote analysis
// service. Responses are normalized through the codec before they reach the
// session controller, so callers only ever see the canonical record.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/serenemind/sessiond/internal/codec"
	"github.com/serenemind/sessiond/internal/domain"
)

const defaultBaseURL = "http://localhost:8000"

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client is the HTTP client for the analysis service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new analysis service client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request is the analysis request body.
type Request struct {
	Text    string                  `json:"text"`
	History []domain.ContextMessage `json:"history,omitempty"`
}

// Analyze submits a journal entry with its conversation context and returns
// the normalized analysis. Failures come back as classified errors: a
// structured error body yields a validation error, everything else a
// transport error, and an unrecognizable 2xx body a schema error.
func (c *Client) Analyze(ctx context.Context, text string, history []domain.ContextMessage) (*domain.Analysis, error) {
	body, err := json.Marshal(&Request{Text: text, History: history})
	if err != nil {
		return nil, fmt.Errorf("marshal analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze/journal", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create analysis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.ErrTransport("")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrTransport("")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, codec.ParseErrorResponse(resp.StatusCode, respBody)
	}

	return codec.Normalize(respBody)
}
