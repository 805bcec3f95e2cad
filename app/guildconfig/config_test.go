package guildconfig

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestResolverConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		cfg           ResolverConfig
		wantErrSubStr string
	}{
		{
			name: "valid standard",
			cfg:  ResolverConfig{RequestTimeout: time.Second, CacheWindow: time.Minute},
		},
		{
			name:          "zero request timeout",
			cfg:           ResolverConfig{RequestTimeout: 0, CacheWindow: time.Minute},
			wantErrSubStr: "request_timeout must be positive",
		},
		{
			name:          "zero cache window",
			cfg:           ResolverConfig{RequestTimeout: time.Second},
			wantErrSubStr: "cache_window must be positive",
		},
		{
			name:          "request excessive",
			cfg:           ResolverConfig{RequestTimeout: 31 * time.Second, CacheWindow: time.Minute},
			wantErrSubStr: "request_timeout (31s) seems excessive",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErrSubStr == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErrSubStr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tc.wantErrSubStr)
				}
				if !strings.Contains(err.Error(), tc.wantErrSubStr) {
					t.Fatalf("error %q does not contain expected substring %q", err.Error(), tc.wantErrSubStr)
				}
			}
		})
	}
}

func TestDefaultResolverConfig(t *testing.T) {
	got := DefaultResolverConfig()
	want := &ResolverConfig{RequestTimeout: 2 * time.Second, CacheWindow: 10 * time.Minute}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DefaultResolverConfig mismatch: got %+v want %+v", got, want)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}
