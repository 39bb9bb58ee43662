package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/aliasd/pkg/api"
	"github.com/marmos91/aliasd/pkg/config"
	"github.com/marmos91/aliasd/pkg/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the aliasd configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  aliasd config validate

  # Validate specific config file
  aliasd config validate --config /etc/aliasd/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)

	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}

	displayPath := path
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if !cfg.Server.HasJWTSecret() {
		warnings = append(warnings, fmt.Sprintf("JWT secret not configured - set %s or server.jwt.secret before starting", api.EnvJWTSecret))
	}
	if cfg.Database.Type == store.TypeBadger && cfg.Database.Badger.InMemory {
		warnings = append(warnings, "badger runs in memory - aliases are lost on restart")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Database type:   %s\n", cfg.Database.Type)
	_, _ = fmt.Fprintf(out, "  API port:        %d\n", cfg.Server.Port)
	_, _ = fmt.Fprintf(out, "  Cache capacity:  %d\n", cfg.Cache.Capacity)
	_, _ = fmt.Fprintf(out, "  Queue:           %d (%s)\n", cfg.Actor.QueueSize, cfg.Actor.Overflow)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
