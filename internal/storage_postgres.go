// Package internal holds concrete collaborators for the collections
// package's Storage interface: a pgx-backed implementation of the
// document search backend, and loaders that populate
// collections.ColumnarAttributesSpec from local disk or S3.
package internal

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kbase/collections-sub001"
)

// PostgresStorage implements collections.Storage against a Postgres
// database standing in for the real ArangoDB/ArangoSearch backend (which
// has no Go driver available to this module). It translates the `@name`
// bind tokens collections.Query emits into pgx's positional `$n`
// placeholders.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage wraps an already-connected pool.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

// HasSearchView reports whether a view with the given name exists,
// probing information_schema.views the way the teacher's postgres health check probes
// connectivity with a narrowly-scoped read-only query.
func (s *PostgresStorage) HasSearchView(ctx context.Context, view string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.views WHERE table_name = $1)`,
		view,
	).Scan(&exists)
	if err != nil {
		zap.S().Errorw("search view existence probe failed", "view", view, "error", err)
		return false, fmt.Errorf("internal: probing view %s: %w", view, err)
	}
	return exists, nil
}

// CreateAnalyzer upserts a row describing the analyzer into the
// analyzer_registry table. The real backend would install an actual
// ArangoSearch analyzer; this is a recording stand-in exercised by
// collections.InstallAnalyzers.
func (s *PostgresStorage) CreateAnalyzer(ctx context.Context, name string, definition []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO analyzer_registry (name, definition)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET definition = EXCLUDED.definition
	`, name, definition)
	if err != nil {
		return fmt.Errorf("internal: installing analyzer %s: %w", name, err)
	}
	zap.S().Infow("installed analyzer", "name", name)
	return nil
}

// Execute translates q's named bind variables to positional placeholders
// and runs it, scanning each result row into a field-name-to-value map
// keyed by the query's column names.
func (s *PostgresStorage) Execute(ctx context.Context, q collections.Query) ([]map[string]any, error) {
	sql, args := translateBindVars(q.AQL, q.BindVars)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		zap.S().Errorw("query execution failed", "error", err)
		return nil, fmt.Errorf("internal: executing query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var results []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("internal: scanning row: %w", err)
		}
		record := make(map[string]any, len(fields))
		for i, f := range fields {
			record[string(f.Name)] = values[i]
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("internal: iterating rows: %w", err)
	}
	return results, nil
}

var bindTokenPattern = regexp.MustCompile(`@{1,2}[A-Za-z_][A-Za-z0-9_]*`)

// translateBindVars rewrites every `@name`/`@@name` token in aql into a
// pgx positional placeholder ($1, $2, ...), returning the rewritten text
// and the argument slice in the order referenced. A token's value is
// looked up in bindVars by its text with the first @ stripped, so
// `@collid` reads the "collid" entry and `@@view` reads the "@view"
// entry; @@ tokens (collection/view references) are otherwise
// substituted identically to @ tokens; the real backend would quote these
// differently, but a flat args slice suffices for a stand-in executor.
func translateBindVars(aql string, bindVars map[string]any) (string, []any) {
	var args []any
	seen := make(map[string]int, len(bindVars))
	sql := bindTokenPattern.ReplaceAllStringFunc(aql, func(tok string) string {
		name := strings.TrimPrefix(tok, "@")
		if idx, ok := seen[name]; ok {
			return "$" + strconv.Itoa(idx)
		}
		args = append(args, bindVars[name])
		idx := len(args)
		seen[name] = idx
		return "$" + strconv.Itoa(idx)
	})
	return sql, args
}
