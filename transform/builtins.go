package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reoring/jsondecode/errors"
)

// Option names read by the built-in transformers.
const (
	OptionScale          = "scale"
	OptionDatetimeFormat = "datetime_format"
)

var upper = cases.Upper(language.Und)

// StringToBool maps "true"/"false" (any case, surrounding blanks ignored) to bool.
func StringToBool(v any, _ Options) (any, error) {
	s, err := str(v)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return nil, fmt.Errorf("%q is not a boolean", s)
}

// StringToInt parses a decimal integer string. When the "scale" option is
// set the result is divided by it.
func StringToInt(v any, opts Options) (any, error) {
	s, err := str(v)
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, err
	}
	raw, ok := opts[OptionScale]
	if !ok {
		return n, nil
	}
	scale, err := toInt(raw)
	if err != nil {
		return nil, fmt.Errorf("option %q: %w", OptionScale, err)
	}
	if scale == 0 {
		return nil, fmt.Errorf("option %q must not be zero", OptionScale)
	}
	return n / scale, nil
}

// Uppercase upper-cases a string with Unicode case mapping.
func Uppercase(v any, _ Options) (any, error) {
	s, err := str(v)
	if err != nil {
		return nil, err
	}
	return upper.String(s), nil
}

// Range parses "a..b" into []int64{a, b}.
func Range(v any, _ Options) (any, error) {
	s, err := str(v)
	if err != nil {
		return nil, err
	}
	lo, hi, ok := strings.Cut(s, "..")
	if !ok {
		return nil, fmt.Errorf("%q is not a range", s)
	}
	a, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	if err != nil {
		return nil, err
	}
	b, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
	if err != nil {
		return nil, err
	}
	return []int64{a, b}, nil
}

// Datetime parses a timestamp into time.Time. RFC3339 (with optional
// fractional seconds) and plain dates are accepted unless the
// "datetime_format" option names a Go layout.
func Datetime(v any, opts Options) (any, error) {
	s, err := str(v)
	if err != nil {
		return nil, err
	}
	if layout, ok := opts[OptionDatetimeFormat].(string); ok && layout != "" {
		return time.Parse(layout, s)
	}
	return parseTime(s)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
		return t2, nil
	}
	if t2, err2 := time.Parse(time.DateOnly, s); err2 == nil {
		return t2, nil
	}
	return time.Time{}, err
}

func str(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %s", errors.DebugType(v))
	}
	return s, nil
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}
