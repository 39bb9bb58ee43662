package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/aliasd/internal/cli/output"
	"github.com/marmos91/aliasd/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective aliasd configuration: file values with
environment overrides and defaults applied.

Examples:
  # Show default config as YAML
  aliasd config show

  # Show as JSON
  aliasd config show --output json`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(configPath(cmd))
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	// Secrets never leave the process.
	for _, secret := range []*string{&cfg.Server.JWT.Secret, &cfg.Database.Postgres.Password} {
		if *secret != "" {
			*secret = "<redacted>"
		}
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	default:
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	}
}
