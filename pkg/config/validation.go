package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if cfg.API.Enabled && cfg.Metrics.Enabled &&
		cfg.API.Port != 0 && cfg.API.Port == cfg.Metrics.Port {
		return fmt.Errorf("api.port and metrics.port must differ (both %d)", cfg.API.Port)
	}

	switch cfg.Records.Type {
	case "mongo":
		if isBlank(cfg.Records.Mongo["uri"]) {
			return fmt.Errorf("records.mongo: uri is required")
		}
	case "postgres":
		if isBlank(cfg.Records.Postgres["url"]) {
			return fmt.Errorf("records.postgres: url is required")
		}
	case "badger":
		if isBlank(cfg.Records.Badger["db_path"]) && !isTrue(cfg.Records.Badger["in_memory"]) {
			return fmt.Errorf("records.badger: db_path is required unless in_memory is set")
		}
	}

	switch cfg.Objects.Type {
	case "s3":
		if isBlank(cfg.Objects.S3["bucket"]) {
			return fmt.Errorf("objects.s3: bucket is required")
		}
	case "filesystem":
		if isBlank(cfg.Objects.Filesystem["path"]) {
			return fmt.Errorf("objects.filesystem: path is required")
		}
	}

	return nil
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return !ok || s == ""
}

func isTrue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "1"
	}
	return false
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		// Return the first validation error with context
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
