package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the Session API over HTTP+JSON. A Client is bound to at most one bearer
// token; use WithToken to derive a client for a specific caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// NewClient constructs a Client with the provided request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithToken returns a copy of the client that authenticates as the given bearer token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = strings.TrimSpace(token)
	return &clone
}

// Submit records a finalized hold via POST /sessions.
func (c *Client) Submit(ctx context.Context, s Submission) error {
	if err := s.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, "/sessions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// List returns the caller's sessions via GET /sessions, in the order the API returns them.
func (c *Client) List(ctx context.Context) ([]SessionRecord, error) {
	resp, err := c.do(ctx, http.MethodGet, "/sessions", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var records []SessionRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	if records == nil {
		records = []SessionRecord{}
	}
	return records, nil
}

// Stats returns aggregate statistics via GET /sessions/stats.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	resp, err := c.do(ctx, http.MethodGet, "/sessions/stats", nil)
	if err != nil {
		return Stats{}, err
	}
	defer resp.Body.Close()

	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

// do issues the request and maps non-2xx responses to errors. The caller closes the body of
// successful responses.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, ErrNotAuthenticated
	}
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return resp, nil
}

// StatusError represents a non-successful Session API response other than 401.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("session api %s %s failed with status %d", e.Method, e.Path, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}
