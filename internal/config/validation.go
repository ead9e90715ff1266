// Package config provides configuration management for the value scanner.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Engine.OddsMin >= cfg.Engine.OddsMax {
		return fmt.Errorf("engine odds_min must be below odds_max")
	}
	if cfg.Engine.FieldMin > cfg.Engine.FieldMax {
		return fmt.Errorf("engine field_min cannot exceed field_max")
	}
	if cfg.Engine.FavOddsMax > 0 && cfg.Engine.FavOddsMax <= 1 {
		return fmt.Errorf("engine fav_odds_max must be above 1.0 when set")
	}

	// An ambiguity margin at or above the threshold would reject every
	// fuzzy match that has more than one candidate.
	if cfg.Matching.AmbiguityMargin >= cfg.Matching.SimilarityThreshold {
		return fmt.Errorf("matching ambiguity_margin must be below similarity_threshold")
	}

	if cfg.Dutching.MinRunners > cfg.Dutching.MaxRunners {
		return fmt.Errorf("dutching min_runners cannot exceed max_runners")
	}

	if cfg.IsProduction() {
		if cfg.Feed.APIKey == "" {
			return fmt.Errorf("production environment requires a feed API key")
		}
		if isTestCredential(cfg.Feed.APIKey) {
			return fmt.Errorf("production environment should not use a test feed API key")
		}
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// isTestCredential checks if a credential looks like a placeholder
func isTestCredential(credential string) bool {
	lowered := strings.ToLower(credential)
	placeholders := []string{"test", "demo", "example", "placeholder", "your_", "changeme"}
	for _, pattern := range placeholders {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}
