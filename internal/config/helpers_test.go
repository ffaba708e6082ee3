package config

import (
	"strings"
	"testing"
	"time"
)

func TestHelpers_FromEnvOrFlag(t *testing.T) {
	const key = "CFG_STR"
	tests := []struct {
		name   string
		env    string
		flag   string
		def    string
		expect string
	}{
		{"env takes precedence over flag", "  env-val  ", "flag-val", "def", "env-val"},
		{"flag used when env empty", "", "  flag-val  ", "def", "flag-val"},
		{"default used when both empty", "   ", "   ", "def", "def"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(key, tc.env)
			got := FromEnvOrFlag(key, tc.flag, tc.def)
			if got != tc.expect {
				t.Fatalf("got %q, want %q", got, tc.expect)
			}
		})
	}
}

func TestHelpers_FromEnvOrFlagBool(t *testing.T) {
	const key = "CFG_BOOL"
	tests := []struct {
		name    string
		env     string
		flag    string
		def     bool
		expect  bool
		wantErr bool
	}{
		{name: "default", def: true, expect: true},
		{name: "flag false beats default true", flag: "false", def: true, expect: false},
		{name: "env beats flag", env: "yes", flag: "false", expect: true},
		{name: "garbage is an error", env: "maybe", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(key, tc.env)
			got, err := FromEnvOrFlagBool(key, tc.flag, tc.def)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tc.wantErr)
			}
			if got != tc.expect {
				t.Fatalf("got %v, want %v", got, tc.expect)
			}
		})
	}
}

func TestHelpers_FromEnvOrFlagInt(t *testing.T) {
	const key = "CFG_INT"
	tests := []struct {
		name    string
		env     string
		flag    string
		expect  int
		wantErr string
	}{
		{name: "default", expect: 3},
		{name: "flag zero is honoured", flag: "0", expect: 0},
		{name: "env beats flag", env: "9", flag: "4", expect: 9},
		{name: "below min", flag: "-2", wantErr: "must be >= 0"},
		{name: "not a number", env: "many", wantErr: "invalid integer"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(key, tc.env)
			got, err := FromEnvOrFlagInt(key, tc.flag, 3, 0)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expect {
				t.Fatalf("got %d, want %d", got, tc.expect)
			}
		})
	}
}

func TestHelpers_FromEnvOrFlagDuration(t *testing.T) {
	const key = "CFG_DUR"
	tests := []struct {
		name    string
		env     string
		flag    string
		expect  time.Duration
		wantErr bool
	}{
		{name: "default", expect: time.Second},
		{name: "flag seconds", flag: "4", expect: 4 * time.Second},
		{name: "env go syntax wins", env: "150ms", flag: "4", expect: 150 * time.Millisecond},
		{name: "zero rejected", flag: "0", wantErr: true},
		{name: "negative rejected", env: "-1s", wantErr: true},
		{name: "garbage rejected", env: "eventually", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(key, tc.env)
			got, err := FromEnvOrFlagDuration(key, tc.flag, time.Second)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tc.wantErr)
			}
			if got != tc.expect {
				t.Fatalf("got %v, want %v", got, tc.expect)
			}
		})
	}
}
