// Package core turns JSON-like data into ordered label/value records for
// display.
//
// The package has no UI or storage dependencies. Web handlers, the CLI and
// tests use it unchanged; lookups against external data are injected through
// the [Lookup] interface.
//
// # Pipeline
//
// Every call runs the same stages in a fixed order:
//
//  1. [Normalize] decodes JSON text (keeping key order) or converts native Go
//     values, then yields the items: a list is a sequence of items, a single
//     object is wrapped as one item.
//  2. [Flatten] collapses nested objects into composite keys joined by the
//     nested separator ("user → address → city"). Lists are leaves.
//  3. [Options.Include] drops skipped keys and keys with an excluded suffix
//     or prefix; [Options.LabelFor] derives the display label.
//  4. [Resolve] computes the display value: a lookup, a formatter, or the
//     default (JSON text for structures, "N/A" for nil).
//
// # Options
//
// Options are plain values, built with [DefaultOptions] or fluently:
//
//	opts, err := core.NewBuilder().
//	    Skip("password").
//	    NestedSeparator(" > ").
//	    Formatter("amount", format.Currency("$", 2)).
//	    Build()
//
// # Results
//
// [Transformer.Transform] returns one [Record] per item. [Transformer.Panels]
// wraps records into labelled [Panel] values the way a detail page shows
// them, with placeholders for empty and oversized input.
//
// # Error Handling
//
// Undecodable text ([MalformedInputError]), invalid options
// ([ErrInvalidOptions]) and lookup failures ([LookupResolutionError]) abort
// the call. A failing formatter ([FormatterError]) only fails its own item.
// [MapError] maps any of these to a [UserMessage] with a support code.
package core
