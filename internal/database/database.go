// Package database resolves lookups and loads stored JSON documents from
// PostgreSQL.
//
// Queries are built from configured table and column names, quoted with
// pgx.Identifier; values are always passed as parameters.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/jsonkv/internal/core"
)

// DBTX is the interface for database operations.
// Satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// ErrDocumentNotFound is returned when no row has the requested id.
var ErrDocumentNotFound = errors.New("document not found")

// Source locates stored JSON documents: one row per document, keyed by
// IDColumn, with the document in JSONColumn.
type Source struct {
	Table      string `yaml:"table" json:"table"`
	IDColumn   string `yaml:"id_column" json:"idColumn"`
	JSONColumn string `yaml:"json_column" json:"jsonColumn"`
}

// Store runs lookups and document loads against a database.
// It implements core.Lookup.
type Store struct {
	db      DBTX
	timeout time.Duration
}

// New creates a Store. A positive timeout bounds every query.
func New(db DBTX, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

var _ core.Lookup = (*Store)(nil)

// Lookup fetches the first row of desc.Source whose desc.MatchField equals
// value. A nil value never matches.
func (s *Store) Lookup(ctx context.Context, desc core.LookupDescriptor, value any) (map[string]any, bool, error) {
	if value == nil {
		return nil, false, nil
	}

	table, err := identifier(desc.Source)
	if err != nil {
		return nil, false, err
	}
	column, err := identifier(desc.MatchField)
	if err != nil {
		return nil, false, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 LIMIT 1", table, column)
	rows, err := s.db.Query(ctx, query, queryArg(value))
	if err != nil {
		return nil, false, fmt.Errorf("query %s: %w", desc.Source, err)
	}

	record, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("scan %s: %w", desc.Source, err)
	}

	for k, v := range record {
		record[k] = rowValue(v)
	}
	return record, true, nil
}

// Document returns the JSON text stored for id. A NULL column yields nil.
func (s *Store) Document(ctx context.Context, src Source, id string) ([]byte, error) {
	table, err := identifier(src.Table)
	if err != nil {
		return nil, err
	}
	idColumn, err := identifier(src.IDColumn)
	if err != nil {
		return nil, err
	}
	jsonColumn, err := identifier(src.JSONColumn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s::text FROM %s WHERE %s = $1", jsonColumn, table, idColumn)

	var doc pgtype.Text
	err = s.db.QueryRow(ctx, query, idArg(id)).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %q", ErrDocumentNotFound, src.Table, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %q: %w", src.Table, id, err)
	}
	if !doc.Valid {
		return nil, nil
	}
	return []byte(doc.String), nil
}

// Ping checks connectivity with a trivial query.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.Exec(ctx, "SELECT 1")
	return err
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// identifier quotes a possibly schema-qualified name such as
// "billing.customers".
func identifier(name string) (string, error) {
	parts := strings.Split(strings.TrimSpace(name), ".")
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return "", fmt.Errorf("invalid identifier %q", name)
		}
	}
	return pgx.Identifier(parts).Sanitize(), nil
}

// queryArg converts a decoded JSON value into a query parameter.
func queryArg(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case *core.Object, []any:
		return fmt.Sprint(core.DisplayValue(t))
	}
	return v
}

// idArg types a path id so it compares against uuid and integer keys.
func idArg(id string) any {
	if u, err := uuid.Parse(id); err == nil {
		return u
	}
	if i, err := strconv.ParseInt(id, 10, 64); err == nil {
		return i
	}
	return id
}

// rowValue converts pgx scan results into display-friendly values.
func rowValue(v any) any {
	switch t := v.(type) {
	case [16]byte:
		return uuid.UUID(t).String()
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	}
	return v
}
