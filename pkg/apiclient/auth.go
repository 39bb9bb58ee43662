package apiclient

import (
	"net/http"
	"time"
)

// LoginRequest is the body of a login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User is the authenticated account.
type User struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse is returned by login and refresh. ExpiresIn counts seconds
// and describes the access token.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

func (t *TokenResponse) ExpiresInDuration() time.Duration {
	return time.Duration(t.ExpiresIn) * time.Second
}

// Login trades credentials for a token pair. A 401 is never retried through
// the refresh token.
func (c *Client) Login(username, password string) (*TokenResponse, error) {
	return call[TokenResponse](c, http.MethodPost, loginPath, LoginRequest{Username: username, Password: password})
}

// Refresh trades a refresh token for a new pair.
func (c *Client) Refresh(refreshToken string) (*TokenResponse, error) {
	body := map[string]string{"refresh_token": refreshToken}
	return call[TokenResponse](c, http.MethodPost, refreshPath, body)
}

// Me returns the owner of the current access token.
func (c *Client) Me() (*User, error) {
	return call[User](c, http.MethodGet, mePath, nil)
}
