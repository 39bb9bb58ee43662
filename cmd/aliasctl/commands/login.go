package commands

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/aliasd/cmd/aliasctl/cmdutil"
	"github.com/marmos91/aliasd/internal/cli/credentials"
	"github.com/marmos91/aliasd/internal/cli/prompt"
	"github.com/marmos91/aliasd/pkg/apiclient"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with an aliasd server",
	Long: `Authenticate with an aliasd server and store the tokens.

Missing credentials are read from $ALIAS_USERNAME and $ALIAS_PASSWORD, then
prompted for. Tokens are stored per server in
$XDG_CONFIG_HOME/aliasctl/credentials.json.

Examples:
  # Log in to a server
  aliasctl login --server http://localhost:8080 --username alice

  # Non-interactive
  ALIAS_URL=https://go.example ALIAS_USERNAME=alice ALIAS_PASSWORD=... aliasctl login`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (default: $"+cmdutil.EnvUsername+")")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (default: $"+cmdutil.EnvPassword+")")
}

func runLogin(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	store, err := cmdutil.OpenStore()
	if err != nil {
		return err
	}

	serverURL, err := normalizeServerURL(cmdutil.ResolveServerURL(store))
	if err != nil {
		return err
	}

	username := firstNonEmpty(loginUsername, os.Getenv(cmdutil.EnvUsername))
	if username == "" {
		username, err = prompt.InputRequired("Username")
		if err != nil {
			return cmdutil.HandleAbort(out, err)
		}
	}

	password := firstNonEmpty(loginPassword, os.Getenv(cmdutil.EnvPassword))
	if password == "" {
		password, err = prompt.Password("Password")
		if err != nil {
			return cmdutil.HandleAbort(out, err)
		}
	}

	if cmdutil.Flags.Verbose {
		_, _ = fmt.Fprintf(out, "Logging in to %s as %s...\n", serverURL, username)
	}

	tokens, err := apiclient.New(serverURL).Login(username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := store.Save(&credentials.Context{
		ServerURL:    serverURL,
		Username:     username,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(out, tokens.User,
		fmt.Sprintf("Logged in to %s as %s", credentials.ServerKey(serverURL), username))
}

// normalizeServerURL defaults the scheme to http.
func normalizeServerURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("http://" + raw)
		if err != nil {
			return "", fmt.Errorf("invalid server URL: %w", err)
		}
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: missing host", raw)
	}
	return u.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
