package driver_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/driver"
	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/query"
)

func activeAdults() *query.SelectQuery {
	return query.NewSelect([]string{"id", "name"}).
		From("users").
		Where(expression.Pairs("active", true, "age >", 18)).
		OrderDesc("id").
		Limit(5)
}

func TestLookup(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		wantName  string
		sqlDriver string
		style     binder.Style
	}{
		{"postgres", "postgres", "pgx", binder.Dollar},
		{"PostgreSQL", "postgres", "pgx", binder.Dollar},
		{" pgx ", "postgres", "pgx", binder.Dollar},
		{"mysql", "mysql", "mysql", binder.Question},
		{"sqlite3", "sqlite", "sqlite", binder.Question},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d, err := driver.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, d.Name)
			assert.Equal(t, tt.sqlDriver, d.SQLDriver)
			assert.Equal(t, tt.style, d.Style)
			assert.False(t, d.AutoQuote)
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	t.Parallel()
	_, err := driver.Lookup("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "oracle"`)
	assert.Contains(t, err.Error(), "postgres")
}

func TestNamesSorted(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"mysql", "pgx", "postgres", "postgresql", "sqlite", "sqlite3"}, driver.Names())
}

func TestLookupOptions(t *testing.T) {
	t.Parallel()
	d, err := driver.Lookup("mysql", driver.WithAutoQuote(true), driver.WithStyle(binder.Named))
	require.NoError(t, err)
	assert.True(t, d.AutoQuote)
	assert.Equal(t, binder.Named, d.Style)
}

func TestQuoteIdentifier(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `"users"."id"`, driver.Postgres().QuoteIdentifier("users.id"))
	assert.Equal(t, "`users`.`id`", driver.MySQL().QuoteIdentifier("users.id"))
	assert.Equal(t, `"users".*`, driver.SQLite().QuoteIdentifier("users.*"))
}

// --- Compile ---

func TestCompilePlaceholderStyles(t *testing.T) {
	t.Parallel()
	tests := []struct {
		driver *driver.Driver
		want   string
	}{
		{driver.Postgres(), "SELECT id, name FROM users WHERE (active = $1 AND age > $2) ORDER BY id DESC LIMIT 5"},
		{driver.MySQL(), "SELECT id, name FROM users WHERE (active = ? AND age > ?) ORDER BY id DESC LIMIT 5"},
		{driver.SQLite(), "SELECT id, name FROM users WHERE (active = ? AND age > ?) ORDER BY id DESC LIMIT 5"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.driver.Name, func(t *testing.T) {
			t.Parallel()
			sql, args, err := tt.driver.Compile(activeAdults())
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
			assert.Equal(t, []any{true, 18}, args)
		})
	}
}

func TestCompileNamedStyle(t *testing.T) {
	t.Parallel()
	d := driver.SQLite(driver.WithStyle(binder.Named))
	sql, args, err := d.Compile(activeAdults())
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM users WHERE (active = :c0 AND age > :c1) ORDER BY id DESC LIMIT 5", sql)
	assert.Equal(t, []any{true, 18}, args)
}

func TestCompileConvertsTypes(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("users").Where(expression.Pairs("age >", "18"), map[string]string{"age": "integer"})
	sql, args, err := driver.Postgres().Compile(q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE age > $1", sql)
	assert.Equal(t, []any{int64(18)}, args)
}

func TestCompileConversionError(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("users").Where(expression.Pairs("age >", "old"), map[string]string{"age": "integer"})
	_, _, err := driver.Postgres().Compile(q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver: bind :c0")
}

func TestCompileReturnsBuilderErrors(t *testing.T) {
	t.Parallel()
	_, _, err := driver.MySQL().Compile(query.NewUpdate("users"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, expression.ErrLogic))
}

type failing struct{ query.Transformer }

func (failing) TransformSelect(*query.SelectQuery) (*query.SelectQuery, error) {
	return nil, errors.New("denied")
}

func TestCompileTransformerError(t *testing.T) {
	t.Parallel()
	_, _, err := driver.Postgres().Compile(query.NewSelect().From("users").Use(failing{}))
	require.EqualError(t, err, "denied")
}

func TestCompileLeavesStatementUntouched(t *testing.T) {
	t.Parallel()
	q := activeAdults()
	_, _, err := driver.Postgres(driver.WithAutoQuote(true)).Compile(q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM users WHERE (active = :c0 AND age > :c1) ORDER BY id DESC LIMIT 5", q.String())
}
