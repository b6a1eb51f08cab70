// Package parse provides defensive parsing for identifier and time fields
// exported by the external decoder. Malformed values are reported as
// absent, never as errors, matching the decoder's loose output.
package parse

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Int parses a decimal integer, or a hexadecimal one carrying a 0x/0X
// prefix. Empty or malformed input reports false.
func Int(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") {
		if v, err := strconv.ParseInt(lower[2:], 16, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// Float parses a fractional number, reporting false on malformed input.
func Float(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Time parses a user-supplied time bound into fractional epoch seconds.
// Accepted forms: numeric epoch seconds, or ISO-8601 with a Z suffix,
// a numeric offset, or no zone at all (treated as UTC). Unlike the field
// parsers this returns an error: a bad interval bound is a usage error.
func Time(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		return float64(t.UnixNano()) / float64(time.Second), nil
	}
	return 0, &TimeError{Value: s}
}

// TimeError reports an unparseable time bound.
type TimeError struct {
	Value string
}

func (e *TimeError) Error() string {
	return "invalid time format: '" + e.Value + "', use epoch seconds or ISO 8601"
}

// ISOMillis renders fractional epoch seconds as an ISO-8601 UTC timestamp
// with millisecond precision, e.g. 2025-09-17T18:50:00.123Z.
func ISOMillis(epoch float64) string {
	ms := int64(math.Round(epoch * 1000))
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000") + "Z"
}
