package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateRequired checks that a string field is not blank.
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidatePort checks that port is a usable TCP port.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

// ValidatePositive checks that an integer setting is greater than zero.
func ValidatePositive(field string, value int) error {
	if value <= 0 {
		return &ValidationError{Field: field, Message: "must be greater than zero"}
	}
	return nil
}

// ValidatePositiveDuration checks that a duration setting is greater than zero.
func ValidatePositiveDuration(field string, value time.Duration) error {
	if value <= 0 {
		return &ValidationError{Field: field, Message: "must be a positive duration"}
	}
	return nil
}

// ValidateOneOf checks that value is one of allowed.
func ValidateOneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: "must be one of: " + strings.Join(allowed, ", "),
	}
}

// ValidateLogLevel checks that level is understood by the logger package.
func ValidateLogLevel(field, level string) error {
	return ValidateOneOf(field, level, "debug", "info", "warn", "warning", "error")
}
