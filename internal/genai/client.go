// Package genai is the HTTP facade over the Google generative
// language API: video generation, image editing, and character
// analysis.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrAPIKeyMissing is returned when no API key has been configured.
var ErrAPIKeyMissing = errors.New("genai: api key not configured")

// RemoteError is a non-2xx or semantically failed remote response.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("genai: %s: %s", e.Op, e.Message)
}

// KeySource supplies the API key per request, so key changes take
// effect without rebuilding the client.
type KeySource interface {
	APIKey() (string, error)
}

// Config tunes the client. Zero values fall back to defaults.
type Config struct {
	BaseURL      string
	PollInterval time.Duration
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

type Client struct {
	baseURL      string
	keys         KeySource
	httpClient   *http.Client
	pollInterval time.Duration
	log          *slog.Logger
}

func NewClient(keys KeySource, cfg Config) *Client {
	c := &Client{
		baseURL:      cfg.BaseURL,
		keys:         keys,
		httpClient:   cfg.HTTPClient,
		pollInterval: cfg.PollInterval,
		log:          cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 10 * time.Second
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// postJSON sends the request body to path under the base URL and
// decodes the response into out.
func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	key, err := c.keys.APIKey()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("genai: encode %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("genai: build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)
	return c.do(req, op, out)
}

// getJSON fetches path under the base URL and decodes the response
// into out.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	key, err := c.keys.APIKey()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("genai: build %s request: %w", op, err)
	}
	req.Header.Set("x-goog-api-key", key)
	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("genai: %s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return fmt.Errorf("genai: read %s response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{Op: op, Message: remoteMessage(resp.StatusCode, data)}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("genai: decode %s response: %w", op, err)
		}
	}
	return nil
}

// remoteMessage pulls the error message out of a standard Google API
// error envelope, falling back to the status code.
func remoteMessage(status int, body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fmt.Sprintf("unexpected status %d", status)
}
