package apiclient

import (
	"fmt"
	"net/http"
	"time"
)

// Alias is a short name and the URL it redirects to.
type Alias struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	OwnerID   uint      `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// CreateAliasRequest is the request to create or replace an alias.
type CreateAliasRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CreateAliasResponse is the server's acknowledgement of a created alias.
type CreateAliasResponse struct {
	Message string `json:"message"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// CreateAlias creates alias, or replaces it and takes ownership.
func (c *Client) CreateAlias(alias, destination string) (*CreateAliasResponse, error) {
	return call[CreateAliasResponse](c, http.MethodPost, aliasesPath, CreateAliasRequest{From: alias, To: destination})
}

// ListAliases returns the aliases owned by the current user.
func (c *Client) ListAliases() ([]Alias, error) {
	list, err := call[[]Alias](c, http.MethodGet, aliasesPath, nil)
	if err != nil {
		return nil, err
	}
	return *list, nil
}

// GetAlias looks up an alias through the API.
func (c *Client) GetAlias(alias string) (*Alias, error) {
	return call[Alias](c, http.MethodGet, aliasPath(alias), nil)
}

// DeleteAlias deletes an alias owned by the current user.
func (c *Client) DeleteAlias(alias string) error {
	return c.do(http.MethodDelete, aliasPath(alias), nil, nil)
}

// ResolveAlias asks the public redirect endpoint for alias and returns the
// Location it answers with, without following it.
func (c *Client) ResolveAlias(alias string) (string, error) {
	resp, body, err := c.send(http.MethodGet, redirectPath(alias), nil)
	if err != nil {
		return "", err
	}

	switch {
	case resp.StatusCode >= 400:
		return "", newAPIError(resp.StatusCode, body)
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		location := resp.Header.Get("Location")
		if location == "" {
			return "", fmt.Errorf("redirect for %q has no Location header", alias)
		}
		return location, nil
	default:
		return "", fmt.Errorf("unexpected status %d resolving %q", resp.StatusCode, alias)
	}
}
