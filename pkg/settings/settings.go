// Package settings layers the three sources every config section reads:
// built-in defaults, TOML overlays and environment variables.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default sets *dst to v when *dst holds the zero value.
func Default[T comparable](dst *T, v T) {
	var zero T
	if *dst == zero {
		*dst = v
	}
}

// Overlay sets *dst to v when v is not the zero value.
func Overlay[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

// Var binds an environment variable to a config field.
type Var struct {
	name string
	set  func(string) error
}

// String binds name to dst.
func String(name string, dst *string) Var {
	return Var{name, func(v string) error {
		*dst = v
		return nil
	}}
}

// Int binds name to dst.
func Int(name string, dst *int) Var {
	return Var{name, func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}}
}

// Bool binds name to dst. Accepts the forms strconv.ParseBool does.
func Bool(name string, dst *bool) Var {
	return Var{name, func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}}
}

// List binds name to dst as a comma-separated list. Items are trimmed and
// blank items dropped.
func List(name string, dst *[]string) Var {
	return Var{name, func(v string) error {
		var out []string
		for item := range strings.SplitSeq(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*dst = out
		return nil
	}}
}

// Duration binds name to a duration kept in string form. The value must
// parse with time.ParseDuration.
func Duration(name string, dst *string) Var {
	return Var{name, func(v string) error {
		if _, err := time.ParseDuration(v); err != nil {
			return err
		}
		*dst = v
		return nil
	}}
}

// Apply reads every variable. Vars with an empty name, and variables that
// are unset or empty, are skipped. Malformed values leave their field
// untouched and are reported together.
func Apply(vars ...Var) error {
	var errs []error
	for _, v := range vars {
		if v.name == "" {
			continue
		}
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		if err := v.set(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", v.name, raw, err))
		}
	}
	return errors.Join(errs...)
}

// ParseDuration parses the named field, naming it in the error.
func ParseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	return d, nil
}

// PositiveDuration is ParseDuration that also rejects zero and negative
// durations.
func PositiveDuration(field, value string) (time.Duration, error) {
	d, err := ParseDuration(field, value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", field)
	}
	return d, nil
}
