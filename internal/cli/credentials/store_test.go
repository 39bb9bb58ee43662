package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		expected  bool
	}{
		{"expired in past", time.Now().Add(-time.Hour), true},
		{"expires soon", time.Now().Add(30 * time.Second), true},
		{"not expired", time.Now().Add(2 * time.Hour), false},
		{"zero time is expired", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &Context{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.expected, ctx.IsExpired())
		})
	}
}

func TestContextTokens(t *testing.T) {
	ctx := &Context{}
	assert.False(t, ctx.HasRefreshToken())
	assert.False(t, ctx.LoggedIn())

	ctx.RefreshToken = "token"
	assert.True(t, ctx.HasRefreshToken())
	assert.True(t, ctx.LoggedIn())
}

func TestServerKey(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8080":     "http://localhost:8080",
		"http://localhost:8080/":    "http://localhost:8080",
		"HTTP://LocalHost:8080":     "http://localhost:8080",
		" https://go.example/ ":     "https://go.example",
		"https://go.example/prefix": "https://go.example/prefix",
		"not a url":                 "not a url",
	}

	for in, want := range tests {
		assert.Equal(t, want, ServerKey(in), in)
	}
}

func TestNewStoreUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	store, err := NewStore()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultConfigDir, FileName), store.Path())

	_, err = store.Current()
	assert.ErrorIs(t, err, ErrNoCurrentContext)
	assert.Empty(t, store.Servers())
}

func TestStoreOperations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliasctl", FileName)
	store, err := NewStoreAt(path)
	require.NoError(t, err)

	require.NoError(t, store.Save(&Context{
		ServerURL:    "http://localhost:8080/",
		Username:     "alice",
		AccessToken:  "token1",
		RefreshToken: "refresh1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))

	current, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", current.ServerURL)
	assert.Equal(t, "alice", current.Username)

	require.NoError(t, store.Save(&Context{ServerURL: "https://go.example", Username: "bob", AccessToken: "t2"}))
	assert.Equal(t, "https://go.example", store.CurrentServer())
	assert.Equal(t, []string{"http://localhost:8080", "https://go.example"}, store.Servers())

	got, err := store.Get("HTTP://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "token1", got.AccessToken)

	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	require.NoError(t, store.UpdateTokens("http://localhost:8080", "token1b", "refresh1b", exp))

	// Everything survives a reload.
	reloaded, err := NewStoreAt(path)
	require.NoError(t, err)
	got, err = reloaded.Get("http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "token1b", got.AccessToken)
	assert.Equal(t, "refresh1b", got.RefreshToken)
	assert.True(t, exp.Equal(got.ExpiresAt))

	require.NoError(t, reloaded.Remove("https://go.example"))
	assert.Empty(t, reloaded.CurrentServer())
	_, err = reloaded.Current()
	assert.ErrorIs(t, err, ErrNoCurrentContext)

	assert.ErrorIs(t, reloaded.Remove("https://go.example"), ErrContextNotFound)
	assert.ErrorIs(t, reloaded.UpdateTokens("https://nowhere", "", "", time.Time{}), ErrContextNotFound)
}

func TestFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	store, err := NewStoreAt(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(&Context{ServerURL: "http://localhost:8080", AccessToken: "secret"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePermissions), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(DirPermissions), dirInfo.Mode().Perm())
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), FilePermissions))

	_, err := NewStoreAt(path)
	assert.Error(t, err)
}
