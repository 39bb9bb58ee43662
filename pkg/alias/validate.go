package alias

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// MaxKeyLength is the longest accepted alias key.
const MaxKeyLength = 128

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_~-][A-Za-z0-9._~-]*$`)

// reserved keys collide with top-level routes of the HTTP server.
var reserved = map[string]struct{}{
	"api":     {},
	"health":  {},
	"metrics": {},
}

// ValidateKey checks that key can be used as the path segment of a short link.
func ValidateKey(key string) error {
	if key == "" || len(key) > MaxKeyLength {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidAlias, MaxKeyLength)
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q may only contain letters, digits, '.', '_', '~' or '-' and must not start with '.'", ErrInvalidAlias, key)
	}
	if _, ok := reserved[strings.ToLower(key)]; ok {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidAlias, key)
	}
	return nil
}

// NormalizeDestination parses raw as an absolute URL with a scheme and a
// host and returns its canonical string form.
func NormalizeDestination(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDestination, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q must be absolute", ErrInvalidDestination, raw)
	}
	return u.String(), nil
}
