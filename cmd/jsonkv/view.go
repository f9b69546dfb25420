package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/jsonkv/internal/application"
	"github.com/JonMunkholm/jsonkv/internal/core"
)

func newViewCmd(a *app) *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Browse a JSON file interactively",
		Long:  "Opens a terminal viewer over the rendered panels. Press r to re-read a file after editing it.",
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

			// Stdin cannot be read twice, so only files reload.
			var load application.Loader
			if len(args) == 1 && args[0] != "-" {
				load = func(ctx context.Context) ([]core.Panel, error) {
					return flags.render(ctx, cmd, svc, args)
				}
			}

			title := flags.panel
			if title == "" && len(args) == 1 {
				title = args[0]
			}
			if title == "" {
				title = "stdin"
			}

			return application.Run(ctx, application.NewModel(ctx, title, result, load))
		},
	}

	flags.register(cmd)
	return cmd
}
