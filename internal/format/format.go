// Package format provides ready-made formatters for common display values:
// money, percentages, dates, file sizes, phone numbers and enum labels, plus
// HTML formatters (badge, link, email) that return templ components.
//
// Every constructor returns a core.Formatter:
//
//	opts, err := core.NewBuilder().
//	    Formatter("amount", format.Currency("$", 2)).
//	    Formatter("created_at", format.Date("")).
//	    Formatter("status", format.Badge(map[string]string{"active": "green"})).
//	    Build()
//
// Formatters can also be constructed by name from configuration with
// FromSpec.
package format

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/JonMunkholm/jsonkv/internal/core"
)

// Defaults used when a constructor argument is left empty.
const (
	DefaultCurrencySymbol = "₦"
	DefaultDateLayout     = "Jan 02, 2006"
	DefaultDateTimeLayout = "Jan 02, 2006 3:04 PM"
	DefaultTruncateLength = 50
	DefaultTruncateEnding = "..."
)

var phoneRegex = regexp.MustCompile(`(\d{3})(\d{3})(\d{4})`)

var fileSizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// formatNumber groups thousands and fixes the number of decimals:
// 1234.5 with 2 decimals is "1,234.50".
func formatNumber(f float64, decimals int) string {
	p := message.NewPrinter(language.English)
	return p.Sprint(number.Decimal(f, number.Scale(decimals)))
}

// Currency prefixes symbol to the value formatted with decimals places.
func Currency(symbol string, decimals int) core.Formatter {
	return func(v any, _ *core.Object) (any, error) {
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return symbol + formatNumber(f, decimals), nil
	}
}

// Percentage formats the value with decimals places and a percent sign.
// The value is not scaled: 45.678 is "45.68%".
func Percentage(decimals int) core.Formatter {
	return func(v any, _ *core.Object) (any, error) {
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return formatNumber(f, decimals) + "%", nil
	}
}

// FileSize renders a byte count in the largest binary unit up to TB,
// rounded to two decimals: 1536 is "1.5 KB".
func FileSize() core.Formatter {
	return func(v any, _ *core.Object) (any, error) {
		size, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		size = math.Max(size, 0)

		pow := 0
		for size >= 1024 && pow < len(fileSizeUnits)-1 {
			size /= 1024
			pow++
		}

		rounded := math.Round(size*100) / 100
		return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + fileSizeUnits[pow], nil
	}
}

// Date formats a date value with a Go time layout. Empty layout means
// DefaultDateLayout. Falsy values show core.MissingValue.
func Date(layout string) core.Formatter {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return timeFormatter(layout)
}

// DateTime is Date with DefaultDateTimeLayout as the default layout.
func DateTime(layout string) core.Formatter {
	if layout == "" {
		layout = DefaultDateTimeLayout
	}
	return timeFormatter(layout)
}

func timeFormatter(layout string) core.Formatter {
	return func(v any, _ *core.Object) (any, error) {
		if !toBool(v) {
			return core.MissingValue, nil
		}
		t, err := toTime(v)
		if err != nil {
			return nil, err
		}
		return t.Format(layout), nil
	}
}

// Boolean shows trueLabel for truthy values and falseLabel otherwise.
// Empty labels mean "Yes" and "No".
func Boolean(trueLabel, falseLabel string) core.Formatter {
	if trueLabel == "" {
		trueLabel = "Yes"
	}
	if falseLabel == "" {
		falseLabel = "No"
	}
	return func(v any, _ *core.Object) (any, error) {
		if toBool(v) {
			return trueLabel, nil
		}
		return falseLabel, nil
	}
}

// Uppercase upper-cases the value.
func Uppercase() core.Formatter {
	return caser(func() cases.Caser { return cases.Upper(language.Und) })
}

// Lowercase lower-cases the value.
func Lowercase() core.Formatter {
	return caser(func() cases.Caser { return cases.Lower(language.Und) })
}

// TitleCase lower-cases the value, then capitalizes each word.
func TitleCase() core.Formatter {
	return caser(func() cases.Caser { return cases.Title(language.English) })
}

// caser builds a Caser per call; a Caser keeps state and is not safe for
// concurrent use.
func caser(newCaser func() cases.Caser) core.Formatter {
	return func(v any, _ *core.Object) (any, error) {
		c := newCaser()
		return c.String(toText(v)), nil
	}
}

// Phone rewrites runs of ten digits as "(555) 123-4567" and prefixes
// countryCode.
func Phone(countryCode string) core.Formatter {
	return func(v any, _ *core.Object) (any, error) {
		return countryCode + phoneRegex.ReplaceAllString(toText(v), "($1) $2-$3"), nil
	}
}

// Truncate cuts text longer than length characters and appends ending.
// Text is NFC-normalized first so combining marks are not split from their
// base character.
func Truncate(length int, ending string) core.Formatter {
	if length <= 0 {
		length = DefaultTruncateLength
	}
	return func(v any, _ *core.Object) (any, error) {
		s, _, err := transform.String(norm.NFC, toText(v))
		if err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(s) <= length {
			return s, nil
		}
		return string([]rune(s)[:length]) + ending, nil
	}
}

// JSON encodes the value as JSON, indented with four spaces when pretty.
// Key order of decoded objects is kept.
func JSON(pretty bool) core.Formatter {
	return func(v any, _ *core.Object) (any, error) {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if pretty {
			enc.SetIndent("", "    ")
		}
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		return strings.TrimSuffix(buf.String(), "\n"), nil
	}
}

// EnumLabel maps enum values to labels. Unmapped values have underscores
// replaced by spaces and each word capitalized: "on_hold" is "On Hold".
func EnumLabel(labels map[string]string) core.Formatter {
	return func(v any, _ *core.Object) (any, error) {
		s := toText(v)
		if label, ok := labels[s]; ok {
			return label, nil
		}
		return capitalizeWords(strings.ReplaceAll(s, "_", " ")), nil
	}
}

// capitalizeWords upper-cases the first letter of each space-separated word
// and leaves the rest untouched.
func capitalizeWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	start := true
	for _, r := range s {
		if start {
			r = unicode.ToUpper(r)
		}
		start = unicode.IsSpace(r)
		b.WriteRune(r)
	}
	return b.String()
}
