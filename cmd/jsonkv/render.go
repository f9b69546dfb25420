package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/jsonkv/internal/application"
	"github.com/JonMunkholm/jsonkv/internal/core"
	"github.com/JonMunkholm/jsonkv/internal/panels"
	"github.com/JonMunkholm/jsonkv/internal/web"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))

// renderFlags are the options shared by render and view.
type renderFlags struct {
	panel           string
	field           string
	itemLabel       string
	separator       string
	indexFormat     string
	skip            []string
	excludePrefixes []string
	labels          map[string]string
	maxArraySize    int
	noFlatten       bool
	flattenSingle   bool
	skipIndices     bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.panel, "panel", "p", "", "render through a registered panel")
	flags.StringVar(&f.field, "field", "", "field name for panel labels (default: derived from the file name)")
	flags.StringVar(&f.itemLabel, "item-label", "", "label for each item panel")
	flags.StringVar(&f.separator, "separator", "", "nested key separator")
	flags.StringVar(&f.indexFormat, "index-format", "", "item numbering format, e.g. \" #%d\"")
	flags.StringSliceVar(&f.skip, "skip", nil, "keys to hide")
	flags.StringSliceVar(&f.excludePrefixes, "exclude-prefix", nil, "hide keys starting with these prefixes")
	flags.StringToStringVar(&f.labels, "label", nil, "custom labels, key=Label")
	flags.IntVar(&f.maxArraySize, "max-array-size", 0, "largest list to display; 0 is unlimited")
	flags.BoolVar(&f.noFlatten, "no-flatten", false, "show nested objects as JSON instead of flattening")
	flags.BoolVar(&f.flattenSingle, "flatten-single", false, "show a one-item list as a single panel")
	flags.BoolVar(&f.skipIndices, "skip-indices", false, "omit item numbers from panel labels")
}

// definition turns ad-hoc flags into a panel definition; only flags the
// user set override the display defaults.
func (f *renderFlags) definition(cmd *cobra.Command, field string) panels.Definition {
	def := panels.Definition{
		Name:             field,
		Field:            field,
		ItemLabel:        f.itemLabel,
		Skip:             f.skip,
		ExcludePrefixes:  f.excludePrefixes,
		NestedSeparator:  f.separator,
		Labels:           f.labels,
		ArrayIndexFormat: f.indexFormat,
	}
	if cmd.Flags().Changed("max-array-size") {
		def.MaxArraySize = &f.maxArraySize
	}
	if f.noFlatten {
		flatten := false
		def.FlattenNested = &flatten
	}
	if cmd.Flags().Changed("flatten-single") {
		def.FlattenSingleArrays = &f.flattenSingle
	}
	if cmd.Flags().Changed("skip-indices") {
		def.SkipArrayIndices = &f.skipIndices
	}
	return def
}

// render reads the input named by args and renders it.
func (f *renderFlags) render(ctx context.Context, cmd *cobra.Command, svc *panels.Service, args []string) ([]core.Panel, error) {
	data, name, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}

	if f.panel != "" {
		return svc.Render(ctx, f.panel, data)
	}

	field := f.field
	if field == "" {
		field = fieldFromName(name)
	}
	opts, err := f.definition(cmd, field).MergeOptions(svc.Registry().Defaults())
	if err != nil {
		return nil, err
	}
	return svc.RenderWith(ctx, field, data, opts)
}

func newRenderCmd(a *app) *cobra.Command {
	var (
		flags   renderFlags
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a JSON file (or stdin) as panels",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, cleanup, err := a.service(ctx)
			if err != nil {
				return a.fail(cmd, err)
			}
			defer cleanup()

			result, err := flags.render(ctx, cmd, svc, args)
			if err != nil {
				return a.fail(cmd, err)
			}

			if jsonOut {
				return writePanelsJSON(ctx, cmd.OutOrStdout(), result)
			}
			writePanelsText(cmd.OutOrStdout(), result)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "write panels as JSON")
	return cmd
}

func newDocumentCmd(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "document <panel> <id>",
		Short: "Render a stored document through its panel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, cleanup, err := a.service(ctx)
			if err != nil {
				return a.fail(cmd, err)
			}
			defer cleanup()

			result, err := svc.RenderDocument(ctx, args[0], args[1])
			if err != nil {
				return a.fail(cmd, err)
			}

			if jsonOut {
				return writePanelsJSON(ctx, cmd.OutOrStdout(), result)
			}
			writePanelsText(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "write panels as JSON")
	return cmd
}

// readInput returns the contents of the file in args, or stdin when args is
// empty or "-", together with a name for it.
func readInput(cmd *cobra.Command, args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, "", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("failed to read input: %w", err)
	}
	return data, args[0], nil
}

// fieldFromName derives a field name from a file name: "order_items.json"
// is "Order Items".
func fieldFromName(name string) string {
	if name == "" {
		return web.DefaultFieldName
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return core.DefaultOptions().LabelFor(strings.ReplaceAll(base, "-", "_"))
}

func writePanelsText(w io.Writer, result []core.Panel) {
	for i, p := range result {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, headerStyle.Render(p.Label))

		switch p.Kind {
		case core.PanelKeyValue:
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			p.Values.Range(func(label string, v any) bool {
				fmt.Fprintf(tw, "  %s\t%s\n", label, application.ValueText(v))
				return true
			})
			tw.Flush()
		case core.PanelFailed:
			fmt.Fprintln(w, "  Error:", core.FormatUserError(p.Err))
		default:
			fmt.Fprintln(w, " ", p.Text)
		}
	}
}

func writePanelsJSON(ctx context.Context, w io.Writer, result []core.Panel) error {
	out, err := web.NewPanelResponses(ctx, result)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(web.RenderResponse{Panels: out})
}
