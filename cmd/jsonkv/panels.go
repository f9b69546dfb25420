package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/jsonkv/internal/format"
	"github.com/JonMunkholm/jsonkv/internal/panels"
)

func newPanelsCmd(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "panels",
		Short: "List the panels in the definitions file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.panelsFile == "" {
				return a.fail(cmd, errors.New("no panels file: pass --panels or set PANELS_FILE"))
			}

			registry, err := panels.LoadRegistry(a.panelsFile, a.cfg.Display.Options())
			if err != nil {
				return a.fail(cmd, err)
			}

			all := registry.All()
			if jsonOut {
				defs := make([]panels.Definition, len(all))
				for i, p := range all {
					defs[i] = p.Definition
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(defs)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tFIELD\tFORMATTERS\tLOOKUPS\tSOURCE")
			for _, p := range all {
				source := "-"
				if p.Source != nil {
					source = p.Source.Table
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", p.Name, p.Field, formatterSummary(p.Formatters), len(p.Lookups), source)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "write definitions as JSON")
	return cmd
}

// formatterSummary lists "key:type" pairs in key order.
func formatterSummary(specs map[string]format.Spec) string {
	if len(specs) == 0 {
		return "-"
	}
	keys := slices.Sorted(maps.Keys(specs))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + specs[k].Type
	}
	return strings.Join(parts, ",")
}
