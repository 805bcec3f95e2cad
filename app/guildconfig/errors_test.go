package guildconfig

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigNotFoundError_Error(t *testing.T) {
	e := &ConfigNotFoundError{GuildID: "g1", Reason: "missing"}
	if got, want := e.Error(), "guild config not found for guild g1: missing"; got != want {
		t.Errorf("ConfigNotFoundError.Error() = %v, want %v", got, want)
	}
}

func TestIsConfigNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"other", errors.New("y"), false},
		{"notfound", &ConfigNotFoundError{GuildID: "g", Reason: "r"}, true},
		{"wrapped", fmt.Errorf("check: %w", NewConfigNotFoundError("g", "r")), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsConfigNotFound(tc.err); got != tc.want {
				t.Errorf("IsConfigNotFound() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestConfigTemporaryError_Error(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name    string
		guildID string
		reason  string
		cause   error
		want    string
	}{
		{"no cause", "g1", "retry later", nil, "temporary error getting guild config for g1: retry later"},
		{"with cause", "g2", "store timeout", cause, "temporary error getting guild config for g2: store timeout (caused by: boom)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := &ConfigTemporaryError{GuildID: tc.guildID, Reason: tc.reason, Cause: tc.cause}
			if got := e.Error(); got != tc.want {
				t.Errorf("ConfigTemporaryError.Error() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestConfigTemporaryError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := NewConfigTemporaryError("g", "r", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is did not see the cause through Unwrap")
	}
	if (&ConfigTemporaryError{}).Unwrap() != nil {
		t.Fatalf("nil cause should unwrap to nil")
	}
}

func TestIsConfigTemporaryError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"other", errors.New("e"), false},
		{"temp", &ConfigTemporaryError{GuildID: "g", Reason: "r"}, true},
		{"not found is permanent", &ConfigNotFoundError{GuildID: "g"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsConfigTemporaryError(tc.err); got != tc.want {
				t.Errorf("IsConfigTemporaryError() = %v, want %v", got, tc.want)
			}
		})
	}
}
