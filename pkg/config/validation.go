package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/aliasd/pkg/api"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags, then the rules that span several fields.
//
// Tag violations are reported as "Field.Path: failed 'tag' validation" so the
// failing rule is visible to the operator.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return fmt.Errorf("telemetry.profiling.endpoint is required when profiling is enabled")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.Server.Port {
		return fmt.Errorf("metrics.port and server.port must differ (both %d)", cfg.Server.Port)
	}

	if secret := cfg.Server.JWT.Secret; secret != "" && len(secret) < api.MinJWTSecretLength {
		return fmt.Errorf("server.jwt.secret must be at least %d characters", api.MinJWTSecretLength)
	}
	if cfg.Server.JWT.RefreshTokenDuration < cfg.Server.JWT.AccessTokenDuration {
		return fmt.Errorf("server.jwt.refresh_token_duration must not be shorter than access_token_duration")
	}

	return nil
}

func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed '%s=%s' validation (value: %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed '%s' validation", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
