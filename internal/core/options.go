package core

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultNestedSeparator joins the segments of a composite key.
	DefaultNestedSeparator = " → "

	// DefaultArrayIndexFormat numbers item panels: "Orders #1".
	DefaultArrayIndexFormat = " #%d"
)

// DefaultExcludeSuffixes hides validation error fields such as "email_error".
var DefaultExcludeSuffixes = []string{"_error"}

// Options configures one transformation. It is read-only while a
// transformation runs; build it with DefaultOptions or a Builder.
//
// The zero value applies every default: nested objects are flattened, a nil
// ExcludeSuffixes means DefaultExcludeSuffixes (pass an empty slice to
// disable suffix exclusion), and an empty NestedSeparator or ArrayIndexFormat
// means the default.
type Options struct {
	Skip            []string
	ExcludeSuffixes []string
	ExcludePrefixes []string
	KeepNested      bool // leave nested objects unflattened
	NestedSeparator string
	ItemLabel       string
	Labels          map[string]string
	Formatters      map[string]Formatter
	Lookups         map[string]LookupDescriptor

	// Adapter options, used by Panels only.
	FlattenSingleArrays bool
	MaxArraySize        int // 0 means unlimited
	SkipArrayIndices    bool
	ArrayIndexFormat    string
}

// DefaultOptions returns Options with every default applied.
func DefaultOptions() Options {
	return Options{
		ExcludeSuffixes:  slices.Clone(DefaultExcludeSuffixes),
		NestedSeparator:  DefaultNestedSeparator,
		ArrayIndexFormat: DefaultArrayIndexFormat,
	}
}

// Separator returns the effective nested separator.
func (o Options) Separator() string {
	if o.NestedSeparator == "" {
		return DefaultNestedSeparator
	}
	return o.NestedSeparator
}

func (o Options) indexFormat() string {
	if o.ArrayIndexFormat == "" {
		return DefaultArrayIndexFormat
	}
	return o.ArrayIndexFormat
}

func (o Options) excludeSuffixes() []string {
	if o.ExcludeSuffixes == nil {
		return DefaultExcludeSuffixes
	}
	return o.ExcludeSuffixes
}

// Include reports whether a flattened key survives filtering. A key is
// dropped when it is in Skip, ends with an exclude suffix, or starts with an
// exclude prefix. Suffixes are checked before prefixes.
func (o Options) Include(key string) bool {
	if slices.Contains(o.Skip, key) {
		return false
	}
	for _, suffix := range o.excludeSuffixes() {
		if strings.HasSuffix(key, suffix) {
			return false
		}
	}
	for _, prefix := range o.ExcludePrefixes {
		if strings.HasPrefix(key, prefix) {
			return false
		}
	}
	return true
}

// LabelFor returns the display label for a flattened key: the configured
// label if there is one, otherwise each separator segment with its
// underscore-delimited words capitalized and underscores turned into spaces.
//
//	"first_name"            => "First Name"
//	"user → home_address"   => "User → Home Address"
func (o Options) LabelFor(key string) string {
	if label, ok := o.Labels[key]; ok {
		return label
	}

	sep := o.Separator()
	parts := strings.Split(key, sep)
	for i, part := range parts {
		parts[i] = titleSegment(part)
	}
	return strings.Join(parts, sep)
}

func titleSegment(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		words[i] = upperFirst(w)
	}
	return strings.Join(words, " ")
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Validate checks Options for configuration errors. All problems are
// reported together; the result wraps ErrInvalidOptions.
func (o Options) Validate() error {
	var errs []string

	for key, f := range o.Formatters {
		if f == nil {
			errs = append(errs, fmt.Sprintf("formatter for %q is nil", key))
		}
	}

	for key, l := range o.Lookups {
		if l.Source == "" {
			errs = append(errs, fmt.Sprintf("lookup for %q has no source", key))
		}
		if l.MatchField == "" {
			errs = append(errs, fmt.Sprintf("lookup for %q has no match field", key))
		}
		if l.DisplayField == "" {
			errs = append(errs, fmt.Sprintf("lookup for %q has no display field", key))
		}
	}

	if o.MaxArraySize < 0 {
		errs = append(errs, fmt.Sprintf("max array size (%d) must be non-negative", o.MaxArraySize))
	}

	if f := o.ArrayIndexFormat; f != "" && strings.Count(f, "%d") != 1 {
		errs = append(errs, fmt.Sprintf("array index format %q must contain exactly one %%d", f))
	}

	if len(errs) > 0 {
		slices.Sort(errs)
		return fmt.Errorf("%w:\n  - %s", ErrInvalidOptions, strings.Join(errs, "\n  - "))
	}
	return nil
}

// Clone returns a deep copy of the slices and maps in o.
func (o Options) Clone() Options {
	c := o
	c.Skip = slices.Clone(o.Skip)
	c.ExcludeSuffixes = slices.Clone(o.ExcludeSuffixes)
	c.ExcludePrefixes = slices.Clone(o.ExcludePrefixes)
	c.Labels = maps.Clone(o.Labels)
	c.Formatters = maps.Clone(o.Formatters)
	c.Lookups = maps.Clone(o.Lookups)
	return c
}

// Builder accumulates Options through chained calls:
//
//	opts, err := core.NewBuilder().
//	    Skip("password").
//	    Labels(map[string]string{"dob": "Date of Birth"}).
//	    Build()
type Builder struct {
	opts Options
}

// NewBuilder starts from DefaultOptions.
func NewBuilder() *Builder {
	return &Builder{opts: DefaultOptions()}
}

func (b *Builder) Skip(keys ...string) *Builder {
	b.opts.Skip = append(b.opts.Skip, keys...)
	return b
}

// ExcludeSuffixes replaces the exclude suffixes. Calling it with no
// arguments disables suffix exclusion.
func (b *Builder) ExcludeSuffixes(suffixes ...string) *Builder {
	b.opts.ExcludeSuffixes = append([]string{}, suffixes...)
	return b
}

func (b *Builder) ExcludePrefixes(prefixes ...string) *Builder {
	b.opts.ExcludePrefixes = append([]string{}, prefixes...)
	return b
}

func (b *Builder) FlattenNested(flatten bool) *Builder {
	b.opts.KeepNested = !flatten
	return b
}

func (b *Builder) NestedSeparator(sep string) *Builder {
	b.opts.NestedSeparator = sep
	return b
}

func (b *Builder) ItemLabel(label string) *Builder {
	b.opts.ItemLabel = label
	return b
}

// Labels merges explicit labels keyed by flattened key.
func (b *Builder) Labels(labels map[string]string) *Builder {
	if b.opts.Labels == nil {
		b.opts.Labels = make(map[string]string, len(labels))
	}
	maps.Copy(b.opts.Labels, labels)
	return b
}

// Formatter registers a formatter for one flattened key.
func (b *Builder) Formatter(key string, f Formatter) *Builder {
	if b.opts.Formatters == nil {
		b.opts.Formatters = make(map[string]Formatter)
	}
	b.opts.Formatters[key] = f
	return b
}

// Formatters merges formatters keyed by flattened key.
func (b *Builder) Formatters(formatters map[string]Formatter) *Builder {
	for key, f := range formatters {
		b.Formatter(key, f)
	}
	return b
}

// Lookup registers a lookup for one flattened key.
func (b *Builder) Lookup(key string, desc LookupDescriptor) *Builder {
	if b.opts.Lookups == nil {
		b.opts.Lookups = make(map[string]LookupDescriptor)
	}
	b.opts.Lookups[key] = desc
	return b
}

// Lookups merges lookups keyed by flattened key.
func (b *Builder) Lookups(lookups map[string]LookupDescriptor) *Builder {
	for key, desc := range lookups {
		b.Lookup(key, desc)
	}
	return b
}

func (b *Builder) FlattenSingleArrays(flatten bool) *Builder {
	b.opts.FlattenSingleArrays = flatten
	return b
}

func (b *Builder) MaxArraySize(n int) *Builder {
	b.opts.MaxArraySize = n
	return b
}

func (b *Builder) SkipArrayIndices(skip bool) *Builder {
	b.opts.SkipArrayIndices = skip
	return b
}

func (b *Builder) ArrayIndexFormat(format string) *Builder {
	b.opts.ArrayIndexFormat = format
	return b
}

// Build validates the accumulated Options and returns an independent copy.
func (b *Builder) Build() (Options, error) {
	if err := b.opts.Validate(); err != nil {
		return Options{}, err
	}
	return b.opts.Clone(), nil
}
