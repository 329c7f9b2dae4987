// Package avatar provides the HTTP client for the response-generation
// service, which turns a normalized analysis plus conversation context into
// the avatar's empathetic reply.
package avatar

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

const defaultBaseURL = "http://localhost:8001"

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

// Client is the HTTP client for the response-generation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new response-generation client.
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

// RespondRequest carries the normalized analysis fields and the ordered
// conversation context. History roles use the external "assistant" label.
type RespondRequest struct {
	JournalText         string                  `json:"journal_text"`
	Emotion             string                  `json:"emotion"`
	Confidence          float64                 `json:"confidence"`
	RiskLevel           domain.RiskLevel        `json:"risk_level"`
	CrisisProbability   float64                 `json:"crisis_probability"`
	MentalState         string                  `json:"mental_state"`
	SeverityRating      int                     `json:"severity_rating"`
	Tags                []string                `json:"tags"`
	SemanticSummary     string                  `json:"semantic_summary"`
	ConversationHistory []domain.ContextMessage `json:"conversation_history"`
}

// RespondResponse is the generated reply.
type RespondResponse struct {
	Text string `json:"text"`
}

// Respond requests a generated reply for the current turn.
func (c *Client) Respond(ctx context.Context, req *RespondRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal respond request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/respond", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create respond request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.ErrTransport("")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.ErrTransport("")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", codec.ParseErrorResponse(resp.StatusCode, respBody)
	}

	var out RespondResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", domain.ErrSchema("")
	}
	return out.Text, nil
}
