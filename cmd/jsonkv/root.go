package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/jsonkv/internal/config"
	"github.com/JonMunkholm/jsonkv/internal/core"
	"github.com/JonMunkholm/jsonkv/internal/database"
	"github.com/JonMunkholm/jsonkv/internal/logging"
	"github.com/JonMunkholm/jsonkv/internal/panels"
)

// app holds the global flags and the configuration they override.
type app struct {
	panelsFile string
	dbURL      string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "jsonkv",
		Short:         "Render JSON data as label/value panels",
		Long:          "Turns JSON documents into labelled, formatted key/value panels, using the same panel definitions as the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.panelsFile, "panels", os.Getenv("PANELS_FILE"), "panel definitions file (YAML)")
	flags.StringVar(&a.dbURL, "db", "", "PostgreSQL URL for lookups and stored documents (default $DATABASE_URL)")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newRenderCmd(a),
		newViewCmd(a),
		newPanelsCmd(a),
		newDocumentCmd(a),
	)

	return root
}

// setup configures logging on stderr, keeping stdout for rendered output,
// and loads display defaults from the environment.
func (a *app) setup(cmd *cobra.Command) error {
	logging.Setup(cmd.ErrOrStderr(), a.logLevel, a.logFormat)

	cfg, err := config.Load()
	if err != nil {
		return a.fail(cmd, err)
	}
	if a.dbURL != "" {
		cfg.Database.URL = a.dbURL
	}
	a.cfg = cfg
	return nil
}

// service wires a panels service. cleanup releases the database pool, if
// one was opened.
func (a *app) service(ctx context.Context) (svc *panels.Service, cleanup func(), err error) {
	defaults := a.cfg.Display.Options()
	registry, err := panels.LoadRegistry(a.panelsFile, defaults)
	if err != nil {
		return nil, nil, err
	}

	var (
		lookup core.Lookup
		docs   panels.DocumentLoader
	)
	cleanup = func() {}
	if a.cfg.Database.Enabled() {
		pool, err := database.Connect(ctx, a.cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		store := database.New(pool, a.cfg.Lookup.Timeout)
		lookup, docs = store, store
		cleanup = pool.Close
	}

	return panels.NewService(registry, lookup, docs, nil), cleanup, nil
}

// fail prints err in its user-facing form and returns it so cobra exits
// non-zero.
func (a *app) fail(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "Error:", core.FormatUserError(err))
	return err
}
