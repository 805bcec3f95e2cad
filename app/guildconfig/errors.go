package guildconfig

import (
	"errors"
	"fmt"
)

// ConfigNotFoundError indicates that a guild has never been set up.
type ConfigNotFoundError struct {
	GuildID string
	Reason  string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("guild config not found for guild %s: %s", e.GuildID, e.Reason)
}

// IsConfigNotFound checks if an error indicates a permanent config absence
func IsConfigNotFound(err error) bool {
	var target *ConfigNotFoundError
	return errors.As(err, &target)
}

// ConfigTemporaryError indicates a temporary failure that might succeed on retry
type ConfigTemporaryError struct {
	GuildID string
	Reason  string
	Cause   error
}

func (e *ConfigTemporaryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("temporary error getting guild config for %s: %s (caused by: %v)", e.GuildID, e.Reason, e.Cause)
	}
	return fmt.Sprintf("temporary error getting guild config for %s: %s", e.GuildID, e.Reason)
}

func (e *ConfigTemporaryError) Unwrap() error {
	return e.Cause
}

// IsConfigTemporaryError checks if an error indicates a temporary failure
func IsConfigTemporaryError(err error) bool {
	var target *ConfigTemporaryError
	return errors.As(err, &target)
}

// NewConfigNotFoundError creates a ConfigNotFoundError for permanent failures
func NewConfigNotFoundError(guildID, reason string) *ConfigNotFoundError {
	return &ConfigNotFoundError{GuildID: guildID, Reason: reason}
}

// NewConfigTemporaryError creates a ConfigTemporaryError for temporary failures
func NewConfigTemporaryError(guildID, reason string, cause error) *ConfigTemporaryError {
	return &ConfigTemporaryError{GuildID: guildID, Reason: reason, Cause: cause}
}
