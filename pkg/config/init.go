package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configHeader = `# aliasd configuration file
#
# Every key can be overridden with an ALIASD_ environment variable,
# e.g. ALIASD_LOGGING_LEVEL=DEBUG or ALIASD_SERVER_PORT=9000.
# The JWT secret is best supplied through ALIASD_JWT_SECRET.

`

// InitConfig writes the default configuration to GetDefaultConfigPath and
// returns that path.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes the default configuration, with a comment header,
// to path. An existing file is replaced only when force is set.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	buf := bytes.NewBufferString(configHeader)
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(GetDefaultConfig()); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return writeFile(path, buf.Bytes())
}
