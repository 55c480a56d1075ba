package internal

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidDurationFormat is returned for expiry strings that do not match
// the compact <integer><unit> grammar, unit one of d, h, m, s.
var ErrInvalidDurationFormat = NewValidationError("invalid duration format", ErrCodeInvalidDuration)

var expiryPattern = regexp.MustCompile(`^(\d+)([dhms])$`)

// ParseExpiry parses a compact expiry string such as "30d", "1h", "15m" or
// "45s" into a time.Duration. time.ParseDuration is not used because it has
// no day unit and accepts composite strings the token configuration forbids.
func ParseExpiry(expiry string) (time.Duration, error) {
	match := expiryPattern.FindStringSubmatch(expiry)
	if match == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDurationFormat, expiry)
	}

	value, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDurationFormat, expiry)
	}

	switch match[2] {
	case "d":
		return time.Duration(value) * 24 * time.Hour, nil
	case "h":
		return time.Duration(value) * time.Hour, nil
	case "m":
		return time.Duration(value) * time.Minute, nil
	default:
		return time.Duration(value) * time.Second, nil
	}
}

// ExpirySeconds is ParseExpiry reported in whole seconds, the unit the
// session cache and token responses use.
func ExpirySeconds(expiry string) (int64, error) {
	d, err := ParseExpiry(expiry)
	if err != nil {
		return 0, err
	}
	return int64(d / time.Second), nil
}
