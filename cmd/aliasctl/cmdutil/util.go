// Package cmdutil provides shared utilities for aliasctl commands.
package cmdutil

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/marmos91/aliasd/internal/cli/credentials"
	"github.com/marmos91/aliasd/internal/cli/output"
	"github.com/marmos91/aliasd/internal/cli/prompt"
	"github.com/marmos91/aliasd/pkg/apiclient"
)

// Environment variables read as defaults for flags and prompts.
const (
	EnvServerURL = "ALIAS_URL"
	EnvUsername  = "ALIAS_USERNAME"
	EnvPassword  = "ALIAS_PASSWORD"
)

// DefaultServerURL is used when neither --server, ALIAS_URL nor stored
// credentials name a server.
const DefaultServerURL = "http://localhost:8080"

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ServerURL string
	Token     string
	Output    string
	NoColor   bool
	Verbose   bool
}

// credentialStore is swapped in tests.
var credentialStore = credentials.NewStore

// OpenStore opens the credentials file.
func OpenStore() (*credentials.Store, error) {
	store, err := credentialStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}
	return store, nil
}

// ResolveServerURL picks the server from --server, then ALIAS_URL, then the
// current stored context, then DefaultServerURL.
func ResolveServerURL(store *credentials.Store) string {
	if Flags.ServerURL != "" {
		return Flags.ServerURL
	}
	if env := os.Getenv(EnvServerURL); env != "" {
		return env
	}
	if store != nil {
		if ctx, err := store.Current(); err == nil && ctx.ServerURL != "" {
			return ctx.ServerURL
		}
	}
	return DefaultServerURL
}

// GetClient returns an unauthenticated client for the resolved server.
func GetClient() (*apiclient.Client, error) {
	store, err := OpenStore()
	if err != nil {
		return nil, err
	}
	return apiclient.New(ResolveServerURL(store)), nil
}

// GetAuthenticatedClient returns an API client using --token, or the tokens
// stored for the resolved server. An expired access token is refreshed
// up front; a token rejected later is refreshed by the client and the new
// pair is written back to the store.
func GetAuthenticatedClient() (*apiclient.Client, error) {
	store, err := OpenStore()
	if err != nil {
		return nil, err
	}
	serverURL := ResolveServerURL(store)

	if Flags.Token != "" {
		return apiclient.New(serverURL).WithToken(Flags.Token), nil
	}

	ctx, err := store.Get(serverURL)
	if err != nil || !ctx.LoggedIn() {
		return nil, credentials.ErrNotLoggedIn
	}

	client := apiclient.New(serverURL)
	client.SetToken(ctx.AccessToken)

	if !ctx.HasRefreshToken() {
		return client, nil
	}

	persist := func(tokens *apiclient.TokenResponse) {
		_ = store.UpdateTokens(serverURL, tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresAt)
	}

	if ctx.IsExpired() {
		tokens, err := client.Refresh(ctx.RefreshToken)
		if err != nil {
			if apiclient.IsAuthError(err) {
				return nil, fmt.Errorf("session expired. Run 'aliasctl login' to re-authenticate")
			}
			return nil, err
		}
		persist(tokens)
		client.SetToken(tokens.AccessToken)
		client.SetRefreshToken(tokens.RefreshToken, persist)
		return client, nil
	}

	client.SetRefreshToken(ctx.RefreshToken, persist)
	return client, nil
}

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// NewPrinter returns a printer for w honouring --output and --no-color.
func NewPrinter(w io.Writer) (*output.Printer, error) {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(w, format, !Flags.NoColor), nil
}

// PrintOutput prints data in the selected format. Table output prints
// emptyMsg instead of an empty table.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, table output.TableRenderer) error {
	printer, err := NewPrinter(w)
	if err != nil {
		return err
	}

	if printer.Format() != output.FormatTable {
		return printer.Print(data)
	}
	if isEmpty {
		printer.Println(emptyMsg)
		return nil
	}
	return output.PrintTable(w, table)
}

// PrintResourceWithSuccess prints data as JSON/YAML, or successMsg for table
// output.
func PrintResourceWithSuccess(w io.Writer, data any, successMsg string) error {
	printer, err := NewPrinter(w)
	if err != nil {
		return err
	}
	if printer.Format() != output.FormatTable {
		return printer.Print(data)
	}
	printer.Success(successMsg)
	return nil
}

// RunDeleteWithConfirmation prompts (unless force) and runs deleteFn.
func RunDeleteWithConfirmation(w io.Writer, resourceType, name string, force bool, deleteFn func() error) error {
	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete %s '%s'", resourceType, name), force)
	if err != nil {
		return HandleAbort(w, err)
	}
	if !confirmed {
		_, _ = fmt.Fprintln(w, "Aborted.")
		return nil
	}

	if err := deleteFn(); err != nil {
		return err
	}

	return PrintResourceWithSuccess(w, map[string]string{"deleted": name},
		fmt.Sprintf("%s '%s' deleted", resourceType, name))
}

// HandleAbort turns a Ctrl+C at a prompt into a clean exit.
func HandleAbort(w io.Writer, err error) error {
	if prompt.IsAborted(err) {
		_, _ = fmt.Fprintln(w, "\nAborted.")
		return nil
	}
	return err
}

// DescribeError rewrites API errors into hints for the user.
func DescribeError(err error) error {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.StatusCode == 401:
		return fmt.Errorf("%s. Run 'aliasctl login' to re-authenticate", apiErr.Error())
	case apiErr.IsUnavailable():
		return fmt.Errorf("server is unavailable: %s", apiErr.Error())
	default:
		return err
	}
}

// EmptyOr returns the value if not empty, otherwise returns the fallback.
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
