package commands

import (
	"fmt"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/marmos91/aliasd/internal/api/auth"
	"github.com/marmos91/aliasd/pkg/api"
	"github.com/marmos91/aliasd/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Write a configuration file holding every default, ready to edit.

The file goes to $XDG_CONFIG_HOME/aliasd/config.yaml unless --config names
another path. An existing file is kept unless --force is given.

Examples:
  aliasd init
  aliasd init --config /etc/aliasd/config.yaml
  aliasd init --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

var nextSteps = template.Must(template.New("next").Parse(`Configuration file created at: {{.Path}}

Next steps:
  1. Set a JWT signing secret of at least {{.MinSecret}} characters:
       export {{.SecretEnv}}=$(openssl rand -hex 32)
  2. Create a user with: aliasd user add <name>
  3. Start the server with: aliasd start{{if .Custom}} --config {{.Path}}{{end}}
`))

func runInit(cmd *cobra.Command, _ []string) error {
	path := GetConfigFile()

	var err error
	if path != "" {
		err = config.InitConfigToPath(path, initForce)
	} else {
		path, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	return nextSteps.Execute(cmd.OutOrStdout(), map[string]any{
		"Path":      path,
		"Custom":    GetConfigFile() != "",
		"MinSecret": auth.MinSecretLength,
		"SecretEnv": api.EnvJWTSecret,
	})
}
