package cmdutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/aliasd/internal/cli/credentials"
	"github.com/marmos91/aliasd/internal/cli/output"
	"github.com/marmos91/aliasd/pkg/apiclient"
)

// withStore points the package at a throwaway credentials file and resets
// the global flags.
func withStore(t *testing.T) *credentials.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), credentials.FileName)
	store, err := credentials.NewStoreAt(path)
	if err != nil {
		t.Fatal(err)
	}

	prevStore, prevFlags := credentialStore, *Flags
	credentialStore = func() (*credentials.Store, error) { return credentials.NewStoreAt(path) }
	*Flags = GlobalFlags{}
	t.Cleanup(func() {
		credentialStore = prevStore
		*Flags = prevFlags
	})
	t.Setenv(EnvServerURL, "")
	return store
}

func TestResolveServerURL(t *testing.T) {
	store := withStore(t)

	if got := ResolveServerURL(store); got != DefaultServerURL {
		t.Errorf("default = %q", got)
	}

	if err := store.Save(&credentials.Context{ServerURL: "http://stored:8080"}); err != nil {
		t.Fatal(err)
	}
	if got := ResolveServerURL(store); got != "http://stored:8080" {
		t.Errorf("stored = %q", got)
	}

	t.Setenv(EnvServerURL, "http://env:8080")
	if got := ResolveServerURL(store); got != "http://env:8080" {
		t.Errorf("env = %q", got)
	}

	Flags.ServerURL = "http://flag:8080"
	if got := ResolveServerURL(store); got != "http://flag:8080" {
		t.Errorf("flag = %q", got)
	}
}

func TestGetAuthenticatedClient(t *testing.T) {
	t.Run("NotLoggedIn", func(t *testing.T) {
		withStore(t)
		if _, err := GetAuthenticatedClient(); !errors.Is(err, credentials.ErrNotLoggedIn) {
			t.Errorf("err = %v, want ErrNotLoggedIn", err)
		}
	})

	t.Run("TokenFlag", func(t *testing.T) {
		withStore(t)
		Flags.Token = "explicit"
		client, err := GetAuthenticatedClient()
		if err != nil {
			t.Fatal(err)
		}
		if client.Token() != "explicit" {
			t.Errorf("token = %q", client.Token())
		}
	})

	t.Run("ValidStoredToken", func(t *testing.T) {
		store := withStore(t)
		_ = store.Save(&credentials.Context{
			ServerURL:   DefaultServerURL,
			AccessToken: "stored",
			ExpiresAt:   time.Now().Add(time.Hour),
		})
		client, err := GetAuthenticatedClient()
		if err != nil {
			t.Fatal(err)
		}
		if client.Token() != "stored" {
			t.Errorf("token = %q", client.Token())
		}
	})

	t.Run("ExpiredTokenRefreshed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v1/auth/refresh" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(apiclient.TokenResponse{
				AccessToken:  "fresh",
				RefreshToken: "fresh-refresh",
				ExpiresAt:    time.Now().Add(time.Hour),
			})
		}))
		defer server.Close()

		store := withStore(t)
		Flags.ServerURL = server.URL
		_ = store.Save(&credentials.Context{
			ServerURL:    server.URL,
			AccessToken:  "stale",
			RefreshToken: "refresh",
			ExpiresAt:    time.Now().Add(-time.Minute),
		})

		client, err := GetAuthenticatedClient()
		if err != nil {
			t.Fatal(err)
		}
		if client.Token() != "fresh" {
			t.Errorf("token = %q, want fresh", client.Token())
		}

		reloaded, _ := credentialStore()
		ctx, err := reloaded.Get(server.URL)
		if err != nil {
			t.Fatal(err)
		}
		if ctx.RefreshToken != "fresh-refresh" {
			t.Errorf("stored refresh token = %q", ctx.RefreshToken)
		}
	})

	t.Run("RefreshRejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		store := withStore(t)
		Flags.ServerURL = server.URL
		_ = store.Save(&credentials.Context{ServerURL: server.URL, RefreshToken: "revoked"})

		_, err := GetAuthenticatedClient()
		if err == nil || !strings.Contains(err.Error(), "session expired") {
			t.Errorf("err = %v, want session expired", err)
		}
	})
}

type rows [][]string

func (r rows) Headers() []string { return []string{"Alias", "Destination"} }
func (r rows) Rows() [][]string  { return r }

func TestPrintOutput(t *testing.T) {
	withStore(t)
	data := []apiclient.Alias{{From: "docs", To: "https://example.com"}}
	table := rows{{"docs", "https://example.com"}}

	tests := []struct {
		format  string
		empty   bool
		want    string
		wantErr bool
	}{
		{format: "table", want: "docs"},
		{format: "table", empty: true, want: "No aliases."},
		{format: "json", want: `"from": "docs"`},
		{format: "yaml", want: "from: docs"},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			Flags.Output = tt.format
			var buf bytes.Buffer
			err := PrintOutput(&buf, data, tt.empty, "No aliases.", table)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestPrintResourceWithSuccess(t *testing.T) {
	withStore(t)
	Flags.NoColor = true

	var buf bytes.Buffer
	if err := PrintResourceWithSuccess(&buf, map[string]string{"from": "docs"}, "Alias docs added"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "Alias docs added\n" {
		t.Errorf("table output = %q", buf.String())
	}

	Flags.Output = string(output.FormatJSON)
	buf.Reset()
	if err := PrintResourceWithSuccess(&buf, map[string]string{"from": "docs"}, "Alias docs added"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"from": "docs"`) {
		t.Errorf("json output = %q", buf.String())
	}
}

func TestRunDeleteWithConfirmationForce(t *testing.T) {
	withStore(t)
	Flags.NoColor = true

	called := false
	var buf bytes.Buffer
	err := RunDeleteWithConfirmation(&buf, "alias", "docs", true, func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("delete function not called")
	}
	if !strings.Contains(buf.String(), "alias 'docs' deleted") {
		t.Errorf("output = %q", buf.String())
	}

	boom := errors.New("boom")
	if err := RunDeleteWithConfirmation(&buf, "alias", "docs", true, func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestDescribeError(t *testing.T) {
	plain := errors.New("dial tcp: refused")
	if DescribeError(plain) != plain {
		t.Error("non-API errors pass through")
	}

	err := DescribeError(&apiclient.APIError{StatusCode: http.StatusUnauthorized, Detail: "Token has expired"})
	if !strings.Contains(err.Error(), "aliasctl login") {
		t.Errorf("401 hint missing: %v", err)
	}

	err = DescribeError(&apiclient.APIError{StatusCode: http.StatusServiceUnavailable, Detail: "Storage is unavailable, retry later"})
	if !strings.HasPrefix(err.Error(), "server is unavailable") {
		t.Errorf("503 hint missing: %v", err)
	}

	notFound := &apiclient.APIError{StatusCode: http.StatusNotFound}
	if !apiclient.IsNotFound(DescribeError(notFound)) {
		t.Error("404 should stay an APIError")
	}
}

func TestEmptyOr(t *testing.T) {
	if EmptyOr("", "-") != "-" || EmptyOr("x", "-") != "x" {
		t.Error("EmptyOr")
	}
}
