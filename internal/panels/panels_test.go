package panels

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/jsonkv/internal/core"
	"github.com/JonMunkholm/jsonkv/internal/database"
)

const sampleYAML = `
panels:
  - name: orders
    item_label: Order
    skip: [secret]
    labels:
      dob: Date of Birth
    formatters:
      total: {type: currency, symbol: "$", decimals: 2}
    max_array_size: 10
    source: {table: orders, id_column: id, json_column: payload}
  - name: customer_profile
    flatten_nested: false
    exclude_suffixes: []
    lookups:
      country_id: {source: countries, match: id, display: name, fallback: country}
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "1", f.Version)
	require.Len(t, f.Panels, 2)

	orders := f.Panels[0]
	assert.Equal(t, "Orders", orders.Field)
	assert.Equal(t, "Order", orders.ItemLabel)
	assert.Equal(t, "$", *orders.Formatters["total"].Symbol)
	assert.Equal(t, 10, *orders.MaxArraySize)
	assert.Equal(t, &database.Source{Table: "orders", IDColumn: "id", JSONColumn: "payload"}, orders.Source)

	profile := f.Panels[1]
	assert.Equal(t, "Customer Profile", profile.Field)
	assert.False(t, *profile.FlattenNested)
	assert.NotNil(t, profile.ExcludeSuffixes)
	assert.Empty(t, profile.ExcludeSuffixes)
	assert.Equal(t, "country", profile.Lookups["country_id"].FallbackKey)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad yaml", "panels: [", "failed to parse panels YAML"},
		{"missing name", "panels:\n  - field: X\n", "name is required"},
		{"duplicate", "panels:\n  - name: a\n  - name: a\n", "defined more than once"},
		{"partial source", "panels:\n  - name: a\n    source: {table: t}\n", "source needs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panels.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Panels, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read panels file")
}

func TestDefinition_MergeOptions(t *testing.T) {
	defaults := core.DefaultOptions()
	defaults.ExcludePrefixes = []string{"internal_"}
	defaults.MaxArraySize = 50
	defaults.Skip = []string{"token"}

	flatten := false
	size := 5
	def := Definition{
		Name:            "x",
		Skip:            []string{"password"},
		ExcludeSuffixes: []string{},
		FlattenNested:   &flatten,
		MaxArraySize:    &size,
		Labels:          map[string]string{"dob": "Born"},
	}

	opts, err := def.MergeOptions(defaults)
	require.NoError(t, err)

	assert.Equal(t, []string{"token", "password"}, opts.Skip)
	assert.Empty(t, opts.ExcludeSuffixes)
	assert.Equal(t, []string{"internal_"}, opts.ExcludePrefixes)
	assert.True(t, opts.KeepNested)
	assert.Equal(t, 5, opts.MaxArraySize)
	assert.Equal(t, "Born", opts.Labels["dob"])
	assert.Equal(t, core.DefaultNestedSeparator, opts.NestedSeparator)

	assert.Equal(t, []string{"token"}, defaults.Skip, "defaults must not be modified")
}

func TestDefinition_MergeOptionsUnknownFormatter(t *testing.T) {
	f, err := Parse([]byte("panels:\n  - name: a\n    formatters:\n      x: {type: money}\n"))
	require.NoError(t, err)

	_, err = f.Panels[0].MergeOptions(core.DefaultOptions())
	assert.ErrorIs(t, err, core.ErrInvalidOptions)
	assert.Equal(t, "CFG002", core.MapError(err).Code)
}

func TestRegistry(t *testing.T) {
	f, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	r := NewRegistry(core.DefaultOptions())
	require.NoError(t, r.RegisterAll(f.Panels))

	assert.Equal(t, 2, r.Count())

	p, ok := r.Get("orders")
	require.True(t, ok)
	assert.Equal(t, "Order", p.Options.ItemLabel)
	assert.Contains(t, p.Options.Formatters, "total")

	_, ok = r.Get("missing")
	assert.False(t, ok)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "customer_profile", all[0].Name)
	assert.Equal(t, "orders", all[1].Name)

	err = r.Register(Definition{Name: "orders"})
	assert.ErrorContains(t, err, "already registered")
}

type fakeDocs struct {
	docs map[string]string
	err  error
}

func (f fakeDocs) Document(_ context.Context, src database.Source, id string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	doc, ok := f.docs[src.Table+"/"+id]
	if !ok {
		return nil, database.ErrDocumentNotFound
	}
	return []byte(doc), nil
}

type recorder struct {
	names []string
	errs  []error
}

func (r *recorder) ObserveRender(panel string, _ []core.Panel, _ time.Duration, err error) {
	r.names = append(r.names, panel)
	r.errs = append(r.errs, err)
}

func newTestService(t *testing.T, docs DocumentLoader, obs Observer) *Service {
	t.Helper()
	f, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	r := NewRegistry(core.DefaultOptions())
	require.NoError(t, r.RegisterAll(f.Panels))
	return NewService(r, nil, docs, obs)
}

func TestService_Render(t *testing.T) {
	obs := &recorder{}
	svc := newTestService(t, nil, obs)

	result, err := svc.Render(context.Background(), "orders", `[{"total":5,"secret":"x"},{"total":7}]`)
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, "Order #1", result[0].Label)
	assert.Equal(t, []string{"Total"}, result[0].Values.Keys())
	v, _ := result[1].Values.Get("Total")
	assert.Equal(t, "$7.00", v)

	assert.Equal(t, []string{"orders"}, obs.names)
	assert.NoError(t, obs.errs[0])
}

func TestService_RenderErrors(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.Render(context.Background(), "nope", `{}`)
	assert.ErrorIs(t, err, ErrPanelNotFound)

	_, err = svc.Render(context.Background(), "customer_profile", `{"country_id":1}`)
	assert.ErrorIs(t, err, core.ErrInvalidOptions, "lookups without a collaborator")
}

func TestService_RenderDocument(t *testing.T) {
	docs := fakeDocs{docs: map[string]string{"orders/9": `{"total":1}`}}
	svc := newTestService(t, docs, nil)

	result, err := svc.RenderDocument(context.Background(), "orders", "9")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Order", result[0].Label)

	_, err = svc.RenderDocument(context.Background(), "orders", "10")
	assert.ErrorIs(t, err, database.ErrDocumentNotFound)

	_, err = svc.RenderDocument(context.Background(), "customer_profile", "9")
	assert.ErrorIs(t, err, ErrNoSource)

	failing := newTestService(t, fakeDocs{err: errors.New("connection refused")}, nil)
	_, err = failing.RenderDocument(context.Background(), "orders", "9")
	assert.Equal(t, "DB004", core.MapError(err).Code)
}

func TestService_RenderDocumentBusy(t *testing.T) {
	docs := fakeDocs{docs: map[string]string{"orders/9": `{"total":1}`}}
	svc := newTestService(t, docs, nil)
	l := NewLimiter(1, 10*time.Millisecond)
	svc.LimitDocuments(l)
	require.Same(t, l, svc.Limiter())

	require.NoError(t, l.Acquire(context.Background(), "other"))
	_, err := svc.RenderDocument(context.Background(), "orders", "9")
	assert.ErrorIs(t, err, ErrTooManyRenders)
	assert.Equal(t, "RATE002", core.MapError(err).Code)

	l.Release("other")
	_, err = svc.RenderDocument(context.Background(), "orders", "9")
	require.NoError(t, err)
	assert.Equal(t, 0, l.ActiveCount())
}

func TestService_RenderWith(t *testing.T) {
	svc := newTestService(t, nil, nil)

	result, err := svc.RenderWith(context.Background(), "Data", `[]`, core.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, core.PanelText, result[0].Kind)
	assert.Equal(t, "No Data available", result[0].Text)
}

func TestRegistry_CheckLookups(t *testing.T) {
	f, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	r := NewRegistry(core.DefaultOptions())
	require.NoError(t, r.RegisterAll(f.Panels))

	tests := []struct {
		name    string
		lookups map[string]core.LookupDescriptor
		wantErr bool
	}{
		{"none", nil, false},
		{"declared under another key", map[string]core.LookupDescriptor{
			"nation": {Source: "countries", MatchField: "id", DisplayField: "name"},
		}, false},
		{"undeclared table", map[string]core.LookupDescriptor{
			"id": {Source: "users", MatchField: "id", DisplayField: "password_hash"},
		}, true},
		{"declared table, other column", map[string]core.LookupDescriptor{
			"country_id": {Source: "countries", MatchField: "id", DisplayField: "secret"},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.CheckLookups(tt.lookups)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidOptions)
				assert.Equal(t, "CFG001", core.MapError(err).Code)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestService_RenderWithUndeclaredLookup(t *testing.T) {
	svc := newTestService(t, nil, nil)
	opts := core.DefaultOptions()
	opts.Lookups = map[string]core.LookupDescriptor{
		"id": {Source: "users", MatchField: "id", DisplayField: "password_hash"},
	}

	_, err := svc.RenderWith(context.Background(), "Data", `{"id":1}`, opts)
	assert.ErrorIs(t, err, core.ErrInvalidOptions)
}

func TestLoadRegistry(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		r, err := LoadRegistry("", core.DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 0, r.Count())
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "panels.yaml")
		require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

		r, err := LoadRegistry(path, core.DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 2, r.Count())
		_, ok := r.Get("customer_profile")
		assert.True(t, ok)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml"), core.DefaultOptions())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
