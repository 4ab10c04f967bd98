// Package formatting converts sizes and file names between their display
// and machine forms.
package formatting

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Byte sizes are base-1024 whichever spelling is used: "MB", "MiB" and "M"
// all mean 1024*1024.
var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

var errEmptySize = errors.New("empty byte size")

// FormatBytes renders n with the largest unit that keeps the value at or
// above one, using precision decimal places.
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	value := float64(n)
	unit := 0
	for math.Abs(value) >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return strconv.FormatInt(n, 10) + " B"
	}
	return strconv.FormatFloat(value, 'f', precision, 64) + " " + units[unit]
}

// ParseBytes reads sizes such as "50MB", "1.5 GiB", "512k" or a bare byte
// count. Negative sizes and sizes beyond int64 are rejected.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptySize
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.TrimSpace(s[split:])
	}
	if number == "" {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	exp, ok := unitExponent(unit)
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit: %q", unit)
	}

	size := value * math.Pow(1024, float64(exp))
	if size >= math.MaxInt64 {
		return 0, fmt.Errorf("byte size out of range: %q", s)
	}
	return int64(size), nil
}

func unitExponent(unit string) (int, bool) {
	unit = strings.ToUpper(unit)
	switch {
	case unit == "":
		return 0, true
	case len(unit) == 1 && unit != "B":
		unit += "B"
	case len(unit) == 3 && unit[1] == 'I' && unit[2] == 'B':
		unit = unit[:1] + "B"
	}

	for i, u := range units {
		if u == unit {
			return i, true
		}
	}
	return 0, false
}
