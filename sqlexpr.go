// Package sqlexpr builds SQL statements from composable expression trees.
//
// This package re-exports commonly used types and functions from subpackages
// for convenience. Advanced users can import subpackages directly:
//   - github.com/bawdo/sqlexpr/query (statement builders)
//   - github.com/bawdo/sqlexpr/expression (expression nodes)
//   - github.com/bawdo/sqlexpr/driver (dialects and compilation)
//   - github.com/bawdo/sqlexpr/plugins (statement transformers)
package sqlexpr

import (
	"github.com/bawdo/sqlexpr/driver"
	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/query"
)

// --- Statements ---

type (
	Statement   = query.Statement
	SelectQuery = query.SelectQuery
	InsertQuery = query.InsertQuery
	UpdateQuery = query.UpdateQuery
	DeleteQuery = query.DeleteQuery
	Transformer = query.Transformer
)

// NewSelect creates a SELECT statement selecting fields.
func NewSelect(fields ...any) *query.SelectQuery {
	return query.NewSelect(fields...)
}

// NewInsert creates an INSERT statement.
func NewInsert() *query.InsertQuery {
	return query.NewInsert()
}

// NewUpdate creates an UPDATE statement for table.
func NewUpdate(table any) *query.UpdateQuery {
	return query.NewUpdate(table)
}

// NewDelete creates a DELETE statement for table.
func NewDelete(table string) *query.DeleteQuery {
	return query.NewDelete(table)
}

// --- Expressions ---

type (
	Expression = expression.Expression
	Cond       = expression.Cond
	Conditions = expression.Conditions
)

// Pairs builds ordered conditions from alternating keys and values.
func Pairs(kv ...any) expression.Conditions {
	return expression.Pairs(kv...)
}

// And creates an AND tree from conditions.
func And(conditions any) *expression.QueryExpression {
	return expression.NewAnd(conditions)
}

// Or creates an OR tree from conditions.
func Or(conditions any) *expression.QueryExpression {
	return expression.NewOr(conditions)
}

// Ident references a column or table by name.
func Ident(name string) *expression.IdentifierExpression {
	return expression.NewIdentifier(name)
}

// Raw embeds SQL text verbatim. Never pass user input.
func Raw(sql string) *expression.RawExpression {
	return expression.Raw(sql)
}

// Func returns the builder for common SQL functions.
func Func() expression.FunctionsBuilder {
	return expression.Func()
}

// Errors carried by builder misuse.
var (
	ErrLogic           = expression.ErrLogic
	ErrInvalidArgument = expression.ErrInvalidArgument
	ErrEmptyValueList  = expression.ErrEmptyValueList
	ErrUnsupported     = expression.ErrUnsupported
)

// --- Drivers ---

type Driver = driver.Driver

func Postgres(opts ...driver.Option) *driver.Driver { return driver.Postgres(opts...) }
func MySQL(opts ...driver.Option) *driver.Driver    { return driver.MySQL(opts...) }
func SQLite(opts ...driver.Option) *driver.Driver   { return driver.SQLite(opts...) }

// WithAutoQuote makes a driver quote identifiers while compiling.
func WithAutoQuote(on bool) driver.Option {
	return driver.WithAutoQuote(on)
}

// Compile renders s for d, returning SQL in d's placeholder style and the
// arguments to bind.
func Compile(d *driver.Driver, s query.Statement) (string, []any, error) {
	return d.Compile(s)
}
