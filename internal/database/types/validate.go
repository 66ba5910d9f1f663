package types

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

// ValidationError reports input that was rejected before reaching storage.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks whether err is a validation failure.
func IsValidationError(err error) bool {
	var verr *ValidationError

	return errors.As(err, &verr)
}

const (
	// MinReasonLength is the shortest accepted moderation reason.
	MinReasonLength = 3
	// MaxReasonLength is the longest accepted moderation reason.
	MaxReasonLength = 500
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,16}$`)

// ValidateUsername checks a player name against the accepted format.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return NewValidationError("username", "cannot be empty")
	}

	if !usernamePattern.MatchString(username) {
		return NewValidationError("username",
			"must be 3-16 characters and contain only letters, numbers, and underscores")
	}

	return nil
}

// ValidateReason checks a moderation reason against the accepted length bounds.
func ValidateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return NewValidationError("reason", "cannot be empty")
	}

	if len(reason) < MinReasonLength {
		return NewValidationError("reason",
			fmt.Sprintf("must be at least %d characters long", MinReasonLength))
	}

	if len(reason) > MaxReasonLength {
		return NewValidationError("reason",
			fmt.Sprintf("cannot exceed %d characters", MaxReasonLength))
	}

	return nil
}

// ValidateAddress checks an IP address. Both IPv4 and IPv6 are accepted.
func ValidateAddress(address string) error {
	if strings.TrimSpace(address) == "" {
		return NewValidationError("address", "cannot be empty")
	}

	if net.ParseIP(address) == nil {
		return NewValidationError("address", fmt.Sprintf("invalid IP address: %s", address))
	}

	return nil
}
