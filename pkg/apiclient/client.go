// Package apiclient provides a REST API client for aliasctl.
package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client is the aliasd API client.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu           sync.Mutex
	token        string
	refreshToken string
	onRefresh    func(*TokenResponse)
}

// New creates a new API client. Redirects are never followed so that alias
// lookups can report the destination instead of fetching it.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// WithToken returns a new client with the given token.
func (c *Client) WithToken(token string) *Client {
	return &Client{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		token:      token,
	}
}

// SetToken sets the authentication token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current access token.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// SetRefreshToken enables transparent token renewal. When a request is
// rejected with 401 the client exchanges refreshToken for a new pair, calls
// onRefresh with it (so callers can persist the tokens) and retries once.
func (c *Client) SetRefreshToken(refreshToken string, onRefresh func(*TokenResponse)) {
	c.mu.Lock()
	c.refreshToken = refreshToken
	c.onRefresh = onRefresh
	c.mu.Unlock()
}

// do performs an HTTP request and decodes the response.
func (c *Client) do(method, path string, body, result any) error {
	resp, respBody, err := c.send(method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.canRefresh(path) {
		if c.renew() == nil {
			resp, respBody, err = c.send(method, path, body)
			if err != nil {
				return err
			}
		}
	}

	if resp.StatusCode >= 400 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// send performs a single round trip and returns the fully read body.
func (c *Client) send(method, path string, body any) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp, respBody, nil
}

func (c *Client) canRefresh(path string) bool {
	if path == refreshPath || path == loginPath {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshToken != ""
}

// renew exchanges the stored refresh token for a new pair.
func (c *Client) renew() error {
	c.mu.Lock()
	refreshToken, onRefresh := c.refreshToken, c.onRefresh
	c.mu.Unlock()

	tokens, err := c.Refresh(refreshToken)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.token = tokens.AccessToken
	c.refreshToken = tokens.RefreshToken
	c.mu.Unlock()

	if onRefresh != nil {
		onRefresh(tokens)
	}
	return nil
}

// call performs method on path and decodes the answer into a new T.
func call[T any](c *Client, method, path string, body any) (*T, error) {
	var out T
	if err := c.do(method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
