package format

// convert.go coerces raw field values into the numbers, booleans, times and
// text the formatters work with.
//
// Values decoded from JSON text arrive as json.Number, string, bool, nil or a
// structure; native input may carry any Go numeric type or a time.Time.
// Strings get the same cleanup user-typed data usually needs:
//   - Currency symbols and thousands separators in numbers
//   - Accounting negatives "(123.45)"
//   - Many date formats (US, EU, ISO, RFC 3339)
//   - Various boolean representations (yes/no, true/false, 1/0)

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/jsonkv/internal/core"
)

var (
	// ErrNotNumeric is returned when a value cannot be read as a number.
	ErrNotNumeric = errors.New("value is not numeric")

	// ErrNotDate is returned when a value cannot be read as a date.
	ErrNotDate = errors.New("value is not a date")
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006", "Jan 2, 2006 3:04 PM",
		"20060102",
	}
)

// toFloat reads v as a number. nil reads as zero.
func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		return parseNumeric(string(t))
	case string:
		return parseNumeric(t)
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return float64(rv.Int()), nil
	case rv.CanUint():
		return float64(rv.Uint()), nil
	case rv.CanFloat():
		return rv.Float(), nil
	}
	return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
}

// parseNumeric parses a decimal string after stripping currency symbols,
// thousands separators and accounting parentheses. Blank reads as zero.
func parseNumeric(s string) (float64, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, "₦", "") // Naira
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, orig)
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrNotNumeric, orig, err)
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, orig)
	}
	return f.Float64, nil
}

// toBool reports whether v is truthy. Empty values, zero, and the strings
// false/f/no/n/0/off are false.
func toBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.TrimSpace(strings.ToLower(t)) {
		case "", "false", "f", "no", "n", "0", "off":
			return false
		}
		return true
	case []any:
		return len(t) > 0
	case *core.Object:
		return t.Len() > 0
	}

	f, err := toFloat(v)
	if err != nil {
		return true
	}
	return f != 0
}

// toText renders v as plain text. nil is empty; structures are JSON.
func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	}
	return fmt.Sprint(core.DisplayValue(v))
}

// toTime reads v as a point in time. Numbers are Unix seconds.
func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t != nil {
			return *t, nil
		}
	case string:
		return parseDate(t)
	case json.Number, int, int64, float64:
		f, err := toFloat(t)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrNotDate, v)
		}
		return time.Unix(int64(f), 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %T", ErrNotDate, v)
}

// parseDate supports multiple date formats and handles 2-digit years with a
// pivot.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrNotDate, s)
}
