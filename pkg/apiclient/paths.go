package apiclient

import "net/url"

// Endpoints of the aliasd API.
const (
	loginPath   = "/api/v1/auth/login"
	refreshPath = "/api/v1/auth/refresh"
	mePath      = "/api/v1/auth/me"
	aliasesPath = "/api/v1/aliases"
	healthPath  = "/health"
	readyPath   = "/health/ready"
)

// aliasPath is the management endpoint of one alias.
func aliasPath(alias string) string {
	return aliasesPath + "/" + url.PathEscape(alias)
}

// redirectPath is the public endpoint that answers with a redirect.
func redirectPath(alias string) string {
	return "/" + url.PathEscape(alias)
}
