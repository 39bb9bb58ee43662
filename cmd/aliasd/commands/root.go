// Package commands implements the CLI commands of the aliasd server.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/aliasd/cmd/aliasd/commands/config"
	"github.com/marmos91/aliasd/internal/buildinfo"
)

var (
	cfgFile   string
	verbosity int
)

var rootCmd = &cobra.Command{
	Use:   "aliasd",
	Short: "aliasd - short link server",
	Long: `aliasd maps short aliases to destination URLs. A single connection
worker owns the database; a coherent in-process cache serves the redirects.

Use "aliasd [command] --help" for more information about a command.`,
	Version:       buildinfo.Get(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs aliasd with os.Args.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/aliasd/config.yaml)")
	pf.CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v forces DEBUG logging)")

	rootCmd.AddCommand(startCmd, initCmd, userCmd, logsCmd, config.Cmd, versionCmd)
}

// GetConfigFile is the --config flag, empty for the default location.
func GetConfigFile() string {
	return cfgFile
}
