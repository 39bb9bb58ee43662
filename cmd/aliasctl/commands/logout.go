package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/aliasd/cmd/aliasctl/cmdutil"
	"github.com/marmos91/aliasd/internal/cli/credentials"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	Long: `Remove the tokens stored for the current server.

Examples:
  aliasctl logout
  aliasctl logout --server https://go.example`,
	RunE: runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, err := cmdutil.OpenStore()
	if err != nil {
		return err
	}

	serverURL := cmdutil.ResolveServerURL(store)
	if err := store.Remove(serverURL); err != nil {
		if errors.Is(err, credentials.ErrContextNotFound) {
			return fmt.Errorf("not logged in to %s", serverURL)
		}
		return fmt.Errorf("failed to remove credentials: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(cmd.OutOrStdout(),
		map[string]string{"server": credentials.ServerKey(serverURL)},
		fmt.Sprintf("Logged out from %s", credentials.ServerKey(serverURL)))
}
