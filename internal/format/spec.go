package format

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/JonMunkholm/jsonkv/internal/core"
)

// ErrUnknownFormatter is returned by FromSpec for an unsupported type.
var ErrUnknownFormatter = errors.New("unknown formatter")

// Spec names a formatter and its arguments, as written in a panel
// definition:
//
//	formatters:
//	  amount: {type: currency, symbol: "$", decimals: 2}
//	  status: {type: badge, colors: {active: green}}
type Spec struct {
	Type        string            `yaml:"type" json:"type"`
	Symbol      *string           `yaml:"symbol,omitempty" json:"symbol,omitempty"`
	Decimals    *int              `yaml:"decimals,omitempty" json:"decimals,omitempty"`
	Layout      string            `yaml:"layout,omitempty" json:"layout,omitempty"`
	TrueLabel   string            `yaml:"true_label,omitempty" json:"trueLabel,omitempty"`
	FalseLabel  string            `yaml:"false_label,omitempty" json:"falseLabel,omitempty"`
	CountryCode string            `yaml:"country_code,omitempty" json:"countryCode,omitempty"`
	Length      int               `yaml:"length,omitempty" json:"length,omitempty"`
	Ending      *string           `yaml:"ending,omitempty" json:"ending,omitempty"`
	Pretty      *bool             `yaml:"pretty,omitempty" json:"pretty,omitempty"`
	Colors      map[string]string `yaml:"colors,omitempty" json:"colors,omitempty"`
	Text        string            `yaml:"text,omitempty" json:"text,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

var builders = map[string]func(Spec) core.Formatter{
	"currency": func(s Spec) core.Formatter {
		return Currency(deref(s.Symbol, DefaultCurrencySymbol), deref(s.Decimals, 2))
	},
	"percentage": func(s Spec) core.Formatter { return Percentage(deref(s.Decimals, 2)) },
	"filesize":   func(Spec) core.Formatter { return FileSize() },
	"date":       func(s Spec) core.Formatter { return Date(s.Layout) },
	"datetime":   func(s Spec) core.Formatter { return DateTime(s.Layout) },
	"boolean":    func(s Spec) core.Formatter { return Boolean(s.TrueLabel, s.FalseLabel) },
	"uppercase":  func(Spec) core.Formatter { return Uppercase() },
	"lowercase":  func(Spec) core.Formatter { return Lowercase() },
	"titlecase":  func(Spec) core.Formatter { return TitleCase() },
	"phone":      func(s Spec) core.Formatter { return Phone(s.CountryCode) },
	"truncate": func(s Spec) core.Formatter {
		return Truncate(s.Length, deref(s.Ending, DefaultTruncateEnding))
	},
	"json":      func(s Spec) core.Formatter { return JSON(deref(s.Pretty, true)) },
	"badge":     func(s Spec) core.Formatter { return Badge(s.Colors) },
	"url":       func(s Spec) core.Formatter { return URL(s.Text) },
	"email":     func(Spec) core.Formatter { return Email() },
	"enumlabel": func(s Spec) core.Formatter { return EnumLabel(s.Labels) },
}

// FromSpec builds the formatter named by s.Type. Names are matched without
// regard to case, underscores or hyphens, so "file_size" and "fileSize" both
// work.
func FromSpec(s Spec) (core.Formatter, error) {
	build, ok := builders[canonicalName(s.Type)]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFormatter, s.Type)
	}
	return build(s), nil
}

// FromSpecs builds a formatter for every key in specs. All unknown names are
// reported together.
func FromSpecs(specs map[string]Spec) (map[string]core.Formatter, error) {
	out := make(map[string]core.Formatter, len(specs))
	var errs []error
	for _, key := range sortedKeys(specs) {
		f, err := FromSpec(specs[key])
		if err != nil {
			errs = append(errs, fmt.Errorf("formatter for %q: %w", key, err))
			continue
		}
		out[key] = f
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Names returns the supported formatter types in sorted order.
func Names() []string {
	return sortedKeys(builders)
}

func canonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "", "-", "").Replace(name)
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
