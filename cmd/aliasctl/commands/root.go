// Package commands implements the aliasctl CLI.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/aliasd/cmd/aliasctl/cmdutil"
	"github.com/marmos91/aliasd/internal/buildinfo"
)

var rootCmd = &cobra.Command{
	Use:   "aliasctl",
	Short: "Manage short links on an aliasd server",
	Long: `aliasctl talks to the aliasd REST API: log in, create and delete aliases,
list the ones you own and check where an alias points.

The server defaults to $ALIAS_URL, then to the server of the last login.

Use "aliasctl [command] --help" for more information about a command.`,
	Version:       buildinfo.Get(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cmdutil.Flags.ServerURL, "server", "", "Server URL (default: $"+cmdutil.EnvServerURL+" or the last login)")
	flags.StringVar(&cmdutil.Flags.Token, "token", "", "Access token (overrides stored credentials)")
	flags.StringVarP(&cmdutil.Flags.Output, "output", "o", "table", "Output format (table|json|yaml)")
	flags.BoolVar(&cmdutil.Flags.NoColor, "no-color", os.Getenv("NO_COLOR") != "", "Disable colored output")
	flags.BoolVarP(&cmdutil.Flags.Verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
