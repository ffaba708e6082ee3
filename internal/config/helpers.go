package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vshulcz/metrics-statsd/internal/misc"
)

// FromEnvOrFlag returns the environment value when present, otherwise falls back to a CLI flag then default.
func FromEnvOrFlag(envKey, flagVal, def string) string {
	if v := misc.Getenv(envKey, ""); v != "" {
		return v
	}
	if v := strings.TrimSpace(flagVal); v != "" {
		return v
	}
	return def
}

// FromEnvOrFlagBool resolves a boolean; an unparsable value is an error rather than a silent default.
func FromEnvOrFlagBool(envKey, flagVal string, def bool) (bool, error) {
	raw := FromEnvOrFlag(envKey, flagVal, "")
	if raw == "" {
		return def, nil
	}
	b, err := misc.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", envKey, err)
	}
	return b, nil
}

// FromEnvOrFlagInt resolves an integer no smaller than min.
func FromEnvOrFlagInt(envKey, flagVal string, def, min int) (int, error) {
	raw := FromEnvOrFlag(envKey, flagVal, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", envKey, raw)
	}
	if n < min {
		return 0, fmt.Errorf("%s must be >= %d, got %d", envKey, min, n)
	}
	return n, nil
}

// FromEnvOrFlagDuration resolves a positive duration given in seconds or Go syntax.
func FromEnvOrFlagDuration(envKey, flagVal string, def time.Duration) (time.Duration, error) {
	raw := FromEnvOrFlag(envKey, flagVal, "")
	if raw == "" {
		return def, nil
	}
	d, err := misc.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", envKey, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be > 0, got %v", envKey, d)
	}
	return d, nil
}
