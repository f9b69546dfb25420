// Package panels holds named display configurations ("panels") loaded from a
// YAML file, and renders data through them.
//
// A definitions file looks like:
//
//	version: "1"
//	panels:
//	  - name: orders
//	    field: Orders
//	    item_label: Order
//	    skip: [internal_notes]
//	    labels:
//	      dob: Date of Birth
//	    formatters:
//	      total: {type: currency, symbol: "$", decimals: 2}
//	    lookups:
//	      customer_id: {source: customers, match: id, display: name}
//	    source: {table: orders, id_column: id, json_column: payload}
//
// Unset fields inherit the global display defaults.
package panels

import (
	"fmt"
	"maps"

	"github.com/JonMunkholm/jsonkv/internal/core"
	"github.com/JonMunkholm/jsonkv/internal/database"
	"github.com/JonMunkholm/jsonkv/internal/format"
)

// File is the top level of a definitions file.
type File struct {
	Version string       `yaml:"version" json:"version"`
	Panels  []Definition `yaml:"panels" json:"panels"`
}

// Definition configures one panel. Pointer and nil fields inherit the
// defaults passed to MergeOptions.
type Definition struct {
	Name        string `yaml:"name" json:"name"`
	Field       string `yaml:"field" json:"field"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	ItemLabel   string `yaml:"item_label,omitempty" json:"itemLabel,omitempty"`

	Skip            []string                         `yaml:"skip,omitempty" json:"skip,omitempty"`
	ExcludeSuffixes []string                         `yaml:"exclude_suffixes,omitempty" json:"excludeSuffixes,omitempty"`
	ExcludePrefixes []string                         `yaml:"exclude_prefixes,omitempty" json:"excludePrefixes,omitempty"`
	FlattenNested   *bool                            `yaml:"flatten_nested,omitempty" json:"flattenNested,omitempty"`
	NestedSeparator string                           `yaml:"nested_separator,omitempty" json:"nestedSeparator,omitempty"`
	Labels          map[string]string                `yaml:"labels,omitempty" json:"labels,omitempty"`
	Formatters      map[string]format.Spec           `yaml:"formatters,omitempty" json:"formatters,omitempty"`
	Lookups         map[string]core.LookupDescriptor `yaml:"lookups,omitempty" json:"lookups,omitempty"`

	FlattenSingleArrays *bool  `yaml:"flatten_single_arrays,omitempty" json:"flattenSingleArrays,omitempty"`
	MaxArraySize        *int   `yaml:"max_array_size,omitempty" json:"maxArraySize,omitempty"`
	SkipArrayIndices    *bool  `yaml:"skip_array_indices,omitempty" json:"skipArrayIndices,omitempty"`
	ArrayIndexFormat    string `yaml:"array_index_format,omitempty" json:"arrayIndexFormat,omitempty"`

	Source *database.Source `yaml:"source,omitempty" json:"source,omitempty"`
}

// MergeOptions merges the definition over defaults and validates the result.
func (d Definition) MergeOptions(defaults core.Options) (core.Options, error) {
	opts := defaults.Clone()

	opts.Skip = append(opts.Skip, d.Skip...)
	if d.ExcludeSuffixes != nil {
		opts.ExcludeSuffixes = append([]string{}, d.ExcludeSuffixes...)
	}
	if d.ExcludePrefixes != nil {
		opts.ExcludePrefixes = append([]string{}, d.ExcludePrefixes...)
	}
	if d.FlattenNested != nil {
		opts.KeepNested = !*d.FlattenNested
	}
	if d.NestedSeparator != "" {
		opts.NestedSeparator = d.NestedSeparator
	}
	if d.ItemLabel != "" {
		opts.ItemLabel = d.ItemLabel
	}

	if len(d.Labels) > 0 {
		if opts.Labels == nil {
			opts.Labels = make(map[string]string, len(d.Labels))
		}
		maps.Copy(opts.Labels, d.Labels)
	}

	if len(d.Formatters) > 0 {
		formatters, err := format.FromSpecs(d.Formatters)
		if err != nil {
			return core.Options{}, fmt.Errorf("%w: panel %q: %w", core.ErrInvalidOptions, d.Name, err)
		}
		if opts.Formatters == nil {
			opts.Formatters = make(map[string]core.Formatter, len(formatters))
		}
		maps.Copy(opts.Formatters, formatters)
	}

	if len(d.Lookups) > 0 {
		if opts.Lookups == nil {
			opts.Lookups = make(map[string]core.LookupDescriptor, len(d.Lookups))
		}
		maps.Copy(opts.Lookups, d.Lookups)
	}

	if d.FlattenSingleArrays != nil {
		opts.FlattenSingleArrays = *d.FlattenSingleArrays
	}
	if d.MaxArraySize != nil {
		opts.MaxArraySize = *d.MaxArraySize
	}
	if d.SkipArrayIndices != nil {
		opts.SkipArrayIndices = *d.SkipArrayIndices
	}
	if d.ArrayIndexFormat != "" {
		opts.ArrayIndexFormat = d.ArrayIndexFormat
	}

	if err := opts.Validate(); err != nil {
		return core.Options{}, fmt.Errorf("panel %q: %w", d.Name, err)
	}
	return opts, nil
}
