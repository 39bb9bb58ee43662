package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/aliasd/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String("aliasd"))
	},
}
