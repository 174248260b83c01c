package driver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/sqlexpr/driver"
	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/query"
)

func compileQuoted(t *testing.T, d *driver.Driver, s query.Statement) (string, []any) {
	t.Helper()
	d.AutoQuote = true
	sql, args, err := d.Compile(s)
	require.NoError(t, err)
	return sql, args
}

func TestQuoteSelect(t *testing.T) {
	t.Parallel()
	sql, args := compileQuoted(t, driver.Postgres(), activeAdults())
	assert.Equal(t, `SELECT "id", "name" FROM "users" WHERE ("active" = $1 AND "age" > $2) ORDER BY "id" DESC LIMIT 5`, sql)
	assert.Equal(t, []any{true, 18}, args)
}

func TestQuoteSelectMySQL(t *testing.T) {
	t.Parallel()
	q := query.NewSelect(expression.Conditions{{Key: "total", Value: "COUNT(*)"}, {Value: "u.country"}}).
		From(map[string]string{"u": "users"}).
		Group("u.country").
		Order(map[string]string{"total": "DESC"})
	sql, _ := compileQuoted(t, driver.MySQL(), q)
	assert.Equal(t, "SELECT COUNT(*) AS `total`, `u`.`country` FROM `users` `u` GROUP BY `u`.`country` ORDER BY `total` DESC", sql)
}

func TestQuoteJoins(t *testing.T) {
	t.Parallel()
	q := query.NewSelect("p.title").
		From(map[string]string{"u": "users"}).
		LeftJoin("p", "posts", "u.id = p.user_id")
	sql, _ := compileQuoted(t, driver.SQLite(), q)
	assert.Equal(t, `SELECT "p"."title" FROM "users" "u" LEFT JOIN "posts" "p" ON u.id = p.user_id`, sql)
}

func TestQuoteLeavesRawOrderTerms(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").Order("name ASC").Order("score")
	sql, _ := compileQuoted(t, driver.Postgres(), q)
	assert.Equal(t, `SELECT * FROM "t" ORDER BY name ASC, "score"`, sql)
}

func TestQuoteSubqueries(t *testing.T) {
	t.Parallel()
	inner := query.NewSelect("id").From("users").Where(expression.Pairs("active", true))
	q := query.NewDelete("posts").Where(expression.Conditions{{Key: "user_id IN", Value: inner}})
	sql, _ := compileQuoted(t, driver.Postgres(), q)
	assert.Equal(t, `DELETE FROM "posts" WHERE "user_id" IN (SELECT "id" FROM "users" WHERE "active" = $1)`, sql)
}

func TestQuoteIdentifierExpressions(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").Where(expression.Conditions{{Key: "a", Value: expression.NewIdentifier("t.b")}})
	sql, args := compileQuoted(t, driver.Postgres(), q)
	assert.Equal(t, `SELECT * FROM "t" WHERE "a" = "t"."b"`, sql)
	assert.Empty(t, args)
}

func TestQuoteInsert(t *testing.T) {
	t.Parallel()
	q := query.NewInsert().Insert([]string{"name", "age"}).Into("users").Values(map[string]any{"name": "Ann", "age": 30})
	sql, args := compileQuoted(t, driver.MySQL(), q)
	assert.Equal(t, "INSERT INTO `users` (`name`, `age`) VALUES (?, ?)", sql)
	assert.Equal(t, []any{"Ann", 30}, args)
}

func TestQuoteUpdate(t *testing.T) {
	t.Parallel()
	q := query.NewUpdate("users").Set(expression.Pairs("name", "Ann")).Where(expression.Pairs("id", 7))
	sql, args := compileQuoted(t, driver.Postgres(), q)
	assert.Equal(t, `UPDATE "users" SET "name" = $1 WHERE "id" = $2`, sql)
	assert.Equal(t, []any{"Ann", 7}, args)
}

func TestQuoteTupleComparison(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").Where(
		expression.NewTupleComparison([]any{"a", "b"}, []any{1, 2}, nil, "="),
	)
	sql, _ := compileQuoted(t, driver.Postgres(), q)
	assert.Equal(t, `SELECT * FROM "t" WHERE ("a", "b") = ($1, $2)`, sql)
}
