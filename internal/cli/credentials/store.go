// Package credentials keeps aliasctl sessions on disk, one per server.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultConfigDir is the directory under $XDG_CONFIG_HOME.
	DefaultConfigDir = "aliasctl"
	// FileName is the name of the credentials file.
	FileName = "credentials.json"

	FilePermissions = 0600
	DirPermissions  = 0700
)

var (
	// ErrNoCurrentContext indicates no server has been logged into yet.
	ErrNoCurrentContext = errors.New("no current server set")
	// ErrContextNotFound indicates there are no credentials for a server.
	ErrContextNotFound = errors.New("no credentials for server")
	// ErrNotLoggedIn indicates no valid credentials exist.
	ErrNotLoggedIn = errors.New("not logged in - run 'aliasctl login' first")
)

// Context is the session stored for one server.
type Context struct {
	ServerURL    string    `json:"server_url"`
	Username     string    `json:"username,omitempty"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// IsExpired reports whether the access token is expired or expires within
// the next minute.
func (c *Context) IsExpired() bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().Add(time.Minute).After(c.ExpiresAt)
}

// HasRefreshToken returns true if a refresh token is available.
func (c *Context) HasRefreshToken() bool {
	return c.RefreshToken != ""
}

// LoggedIn reports whether the context holds any token.
func (c *Context) LoggedIn() bool {
	return c.AccessToken != "" || c.RefreshToken != ""
}

// file is the on-disk layout.
type file struct {
	CurrentServer string              `json:"current_server"`
	Contexts      map[string]*Context `json:"contexts"`
}

// Store reads and writes the credentials file.
type Store struct {
	path string
	data *file
}

// NewStore opens the credentials file in the user's config directory.
func NewStore() (*Store, error) {
	path, err := defaultPath()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(path)
}

// NewStoreAt opens the credentials file at path. A missing file is an empty
// store.
func NewStoreAt(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("cannot read credentials file %s: %w", path, err)
		}
		s.data = &file{}
	}
	if s.data.Contexts == nil {
		s.data.Contexts = make(map[string]*Context)
	}
	return s, nil
}

func defaultPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, DefaultConfigDir, FileName), nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	s.data = &file{}
	return json.Unmarshal(raw, s.data)
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), DirPermissions); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, FilePermissions)
}

// ServerKey normalizes a server URL so that "HTTP://Host:8080/" and
// "http://host:8080" share one entry.
func ServerKey(serverURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return trimmed
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// Current returns the context of the last server logged into.
func (s *Store) Current() (*Context, error) {
	if s.data.CurrentServer == "" {
		return nil, ErrNoCurrentContext
	}
	return s.Get(s.data.CurrentServer)
}

// CurrentServer returns the key of the current server, or "".
func (s *Store) CurrentServer() string {
	return s.data.CurrentServer
}

// Get returns the context stored for serverURL.
func (s *Store) Get(serverURL string) (*Context, error) {
	ctx, ok := s.data.Contexts[ServerKey(serverURL)]
	if !ok {
		return nil, ErrContextNotFound
	}
	return ctx, nil
}

// Servers returns every stored server key, sorted.
func (s *Store) Servers() []string {
	keys := make([]string, 0, len(s.data.Contexts))
	for k := range s.data.Contexts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save stores ctx under its server and makes it current.
func (s *Store) Save(ctx *Context) error {
	key := ServerKey(ctx.ServerURL)
	ctx.ServerURL = key
	s.data.Contexts[key] = ctx
	s.data.CurrentServer = key
	return s.save()
}

// UpdateTokens replaces the tokens stored for serverURL.
func (s *Store) UpdateTokens(serverURL, accessToken, refreshToken string, expiresAt time.Time) error {
	ctx, err := s.Get(serverURL)
	if err != nil {
		return err
	}

	ctx.AccessToken = accessToken
	ctx.RefreshToken = refreshToken
	ctx.ExpiresAt = expiresAt
	return s.save()
}

// Remove deletes the credentials of serverURL.
func (s *Store) Remove(serverURL string) error {
	key := ServerKey(serverURL)
	if _, ok := s.data.Contexts[key]; !ok {
		return ErrContextNotFound
	}

	delete(s.data.Contexts, key)
	if s.data.CurrentServer == key {
		s.data.CurrentServer = ""
	}
	return s.save()
}

// Path returns the location of the credentials file.
func (s *Store) Path() string {
	return s.path
}
