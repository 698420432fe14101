package factory

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbase/collections-sub001"
)

// fakeRows is a minimal pgx.Rows fake over an in-memory table, enough to
// exercise collectTablesFromPool without a real database.
type fakeRows struct {
	names []string
	i     int
	err   error
}

func (f *fakeRows) Next() bool {
	if f.err != nil || f.i >= len(f.names) {
		return false
	}
	f.i++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	*(dest[0].(*string)) = f.names[f.i-1]
	return nil
}

func (f *fakeRows) Err() error                                   { return f.err }
func (f *fakeRows) Close()                                       {}
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

type fakePool struct {
	rows *fakeRows
	err  error
}

func (p *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.rows, nil
}

func TestCollectTablesFromPool_QueryError(t *testing.T) {
	pool := &fakePool{err: assert.AnError}

	_, err := collectTablesFromPool(pool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to verify database connection")
}

func TestCollectTablesFromPool_Success(t *testing.T) {
	pool := &fakePool{rows: &fakeRows{names: []string{"analyzer_registry", "other_table"}}}

	tables, err := collectTablesFromPool(pool)
	require.NoError(t, err)
	assert.Contains(t, tables, "analyzer_registry")
	assert.Contains(t, tables, "other_table")
}

func TestHasAllTables(t *testing.T) {
	assert.True(t, hasAllTables([]string{"a", "b", "c"}, []string{"a", "c"}))
	assert.False(t, hasAllTables([]string{"a", "b"}, []string{"a", "c"}))
	assert.True(t, hasAllTables([]string{"a"}, nil))
}

func TestNewStorageWithConfig_MissingTables(t *testing.T) {
	original := tableCollector
	tableCollector = func(pool queryPool) ([]string, error) {
		return []string{"some_other_table"}, nil
	}
	t.Cleanup(func() { tableCollector = original })

	config := collections.DefaultConfig()
	config.Database.Host = "localhost"
	config.Database.Database = "does_not_matter"

	_, err := NewStorageWithConfig(context.Background(), config)
	require.Error(t, err)
}
