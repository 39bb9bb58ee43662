package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/marmos91/aliasd/pkg/config"
)

const schemaDraft = "https://json-schema.org/draft/2020-12/schema"

var schemaOutput string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate JSON schema for configuration",
	Long: `Print a JSON schema of config.yaml, keyed by the YAML field names.
Editors use it for completion and inline validation.

Examples:
  aliasd config schema
  aliasd config schema --output config.schema.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, err := generateSchema()
		if err != nil {
			return fmt.Errorf("failed to generate schema: %w", err)
		}

		if schemaOutput == "" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return err
		}
		if err := os.WriteFile(schemaOutput, append(raw, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write schema file: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "JSON schema written to %s\n", schemaOutput)
		return nil
	},
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Output file (default: stdout)")
}

func generateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		FieldNameTag:   "yaml",
		DoNotReference: true,
	}
	s := r.Reflect(&config.Config{})
	s.Version = schemaDraft
	s.Title = "aliasd Configuration"
	s.Description = "aliasd server configuration file (config.yaml)"
	return json.MarshalIndent(s, "", "  ")
}
